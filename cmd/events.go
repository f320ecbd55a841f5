/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/userdir/apiserver/internal/events"
	"github.com/userdir/apiserver/internal/mq"
	"github.com/userdir/apiserver/types"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect user change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log user change events as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			if errors.Is(err, mq.ErrDisabled) {
				return errors.New("EVENTS_BACKEND is not set")
			}
			return err
		}
		defer broker.Close()

		log.WithField("channel", cfg.Events.Channel).Info("tailing user events")
		err = events.Consume(ctx, broker, cfg.Events.Channel, func(ctx context.Context, ev types.UserEvent) error {
			log.WithFields(log.Fields{
				"event_id":    ev.ID,
				"event_type":  ev.Type,
				"user_id":     ev.UserID,
				"occurred_at": ev.OccurredAt,
			}).Info("user event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
