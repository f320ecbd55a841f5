/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/userdir/apiserver/internal/db"
	"github.com/userdir/apiserver/internal/services"
	"github.com/userdir/apiserver/internal/storage"
	"github.com/userdir/apiserver/internal/store"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON snapshot of all users to object storage",
	Long: `Pages through every user in id order and uploads one JSON document
to the bucket selected by EXPORT_BACKEND (minio or gcs).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		objects, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}

		svc := services.NewExportService(store.NewUserRepository(dbConn), objects, cfg.Export.Prefix)
		result, err := svc.Export(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", result.Bucket, result.Key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
