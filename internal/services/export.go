package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/userdir/apiserver/types"
)

const (
	exportPageSize    = 500
	exportContentType = "application/json"
)

// ExportRepository pages through users in id order.
type ExportRepository interface {
	ListAfter(ctx context.Context, afterID, limit int) ([]types.User, error)
}

// ObjectWriter stores exported documents.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// ExportService writes JSON snapshots of every user to object storage.
type ExportService struct {
	repo   ExportRepository
	writer ObjectWriter
	prefix string
	now    func() time.Time
}

// ExportResult describes a finished export.
type ExportResult struct {
	Bucket string
	Key    string
	Count  int
}

type exportDocument struct {
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	Users      []types.User `json:"users"`
}

func NewExportService(repo ExportRepository, writer ObjectWriter, prefix string) *ExportService {
	return &ExportService{
		repo:   repo,
		writer: writer,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Export collects all users and uploads them as a single JSON document.
func (s *ExportService) Export(ctx context.Context) (ExportResult, error) {
	users := make([]types.User, 0)
	afterID := 0
	for {
		page, err := s.repo.ListAfter(ctx, afterID, exportPageSize)
		if err != nil {
			return ExportResult{}, fmt.Errorf("list users after %d: %w", afterID, err)
		}
		users = append(users, page...)
		if len(page) < exportPageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	exportedAt := s.now().UTC()
	data, err := json.Marshal(exportDocument{
		ExportedAt: exportedAt,
		Count:      len(users),
		Users:      users,
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := s.objectKey(exportedAt)
	if err := s.writer.Put(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	log.WithFields(log.Fields{
		"bucket": s.writer.Bucket(),
		"key":    key,
		"count":  len(users),
	}).Info("user export written")

	return ExportResult{Bucket: s.writer.Bucket(), Key: key, Count: len(users)}, nil
}

func (s *ExportService) objectKey(at time.Time) string {
	name := fmt.Sprintf("users-%s-%s.json", at.Format("20060102T150405Z"), uuid.NewString())
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
