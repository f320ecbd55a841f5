package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/userdir/apiserver/config"
)

func TestOpenRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "unknown backend", cfg: config.Config{Export: config.ExportConfig{Backend: "s3fs"}}},
		{name: "minio without endpoint", cfg: config.Config{Export: config.ExportConfig{Backend: "minio"}}},
		{
			name: "minio without keys",
			cfg: config.Config{
				Export: config.ExportConfig{Backend: "minio"},
				Minio:  config.MinioConfig{Endpoint: "localhost:9000", Bucket: "exports"},
			},
		},
		{
			name: "minio without bucket",
			cfg: config.Config{
				Export: config.ExportConfig{Backend: "MinIO"},
				Minio:  config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
			},
		},
		{name: "gcs without bucket", cfg: config.Config{Export: config.ExportConfig{Backend: "gcs"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.cfg)
			if err == nil {
				t.Fatalf("Open() error = nil, want failure")
			}
			if s != nil {
				t.Errorf("Open() returned storage, want nil")
			}
		})
	}
}

type memBackend struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func (m *memBackend) EnsureBucket(ctx context.Context) error { return nil }

func (m *memBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memBackend) Bucket() string { return "exports" }

func TestStoragePut(t *testing.T) {
	backend := &memBackend{objects: map[string][]byte{}, types: map[string]string{}}
	s := NewStorage(backend)

	body := []byte(`{"count":0}`)
	if err := s.Put(context.Background(), "exports/a.json", bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !bytes.Equal(backend.objects["exports/a.json"], body) {
		t.Errorf("stored %q", backend.objects["exports/a.json"])
	}
	if backend.types["exports/a.json"] != "application/json" {
		t.Errorf("content type = %q", backend.types["exports/a.json"])
	}
	if s.Bucket() != "exports" {
		t.Errorf("Bucket() = %q", s.Bucket())
	}
}

func TestStoragePutWrapsError(t *testing.T) {
	backend := &memBackend{putErr: errors.New("access denied")}
	s := NewStorage(backend)

	err := s.Put(context.Background(), "k", bytes.NewReader(nil), 0, "")
	if !errors.Is(err, backend.putErr) {
		t.Errorf("Put() error = %v, want wrapped %v", err, backend.putErr)
	}
}
