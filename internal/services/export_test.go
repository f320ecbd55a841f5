package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/userdir/apiserver/types"
)

type pagingRepo struct {
	users []types.User
	calls []int
	err   error
}

func (p *pagingRepo) ListAfter(ctx context.Context, afterID, limit int) ([]types.User, error) {
	p.calls = append(p.calls, afterID)
	if p.err != nil {
		return nil, p.err
	}
	out := make([]types.User, 0, limit)
	for _, u := range p.users {
		if u.ID > afterID {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memWriter struct {
	key         string
	contentType string
	data        []byte
}

func (w *memWriter) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	if int64(buf.Len()) != size {
		return errors.New("size mismatch")
	}
	w.key = key
	w.contentType = contentType
	w.data = buf.Bytes()
	return nil
}

func (w *memWriter) Bucket() string { return "test-bucket" }

func TestExportService_Export(t *testing.T) {
	repo := &pagingRepo{}
	for i := 1; i <= exportPageSize+3; i++ {
		repo.users = append(repo.users, types.User{ID: i, Name: "u", Email: "u@x.com", Phone: "1"})
	}
	writer := &memWriter{}
	svc := NewExportService(repo, writer, "/exports/")
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if res.Count != exportPageSize+3 {
		t.Errorf("Count = %d, want %d", res.Count, exportPageSize+3)
	}
	if res.Bucket != "test-bucket" {
		t.Errorf("Bucket = %q", res.Bucket)
	}
	if !strings.HasPrefix(res.Key, "exports/users-20260102T030405Z-") || !strings.HasSuffix(res.Key, ".json") {
		t.Errorf("Key = %q", res.Key)
	}
	if len(repo.calls) != 2 || repo.calls[0] != 0 || repo.calls[1] != exportPageSize {
		t.Errorf("ListAfter calls = %v", repo.calls)
	}
	if writer.contentType != "application/json" {
		t.Errorf("contentType = %q", writer.contentType)
	}

	var doc exportDocument
	if err := json.Unmarshal(writer.data, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Count != res.Count || len(doc.Users) != res.Count {
		t.Errorf("document count = %d/%d, want %d", doc.Count, len(doc.Users), res.Count)
	}
}

func TestExportService_EmptyTable(t *testing.T) {
	writer := &memWriter{}
	svc := NewExportService(&pagingRepo{}, writer, "")

	res, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Count != 0 || strings.Contains(res.Key, "/") {
		t.Errorf("Export() = %+v", res)
	}
	if !bytes.Contains(writer.data, []byte(`"users":[]`)) {
		t.Errorf("export body = %s, want empty users array", writer.data)
	}
}

func TestExportService_ListError(t *testing.T) {
	repo := &pagingRepo{err: errors.New("db down")}
	writer := &memWriter{}
	svc := NewExportService(repo, writer, "exports")

	if _, err := svc.Export(context.Background()); err == nil {
		t.Fatalf("Export() error = nil, want failure")
	}
	if writer.key != "" {
		t.Errorf("export uploaded despite list failure")
	}
}
