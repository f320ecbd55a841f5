package config

import (
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg Config) {
				if cfg.Server.Port != 8000 {
					t.Errorf("Port = %d, want 8000", cfg.Server.Port)
				}
				if cfg.Server.Host != "0.0.0.0" {
					t.Errorf("Host = %q, want 0.0.0.0", cfg.Server.Host)
				}
				if cfg.Server.Debug {
					t.Errorf("Debug = true, want false")
				}
				if cfg.Events.Channel != "user-events" {
					t.Errorf("Events.Channel = %q, want user-events", cfg.Events.Channel)
				}
				if cfg.Database.MaxOpenConns != 25 {
					t.Errorf("MaxOpenConns = %d, want 25", cfg.Database.MaxOpenConns)
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"PORT":           "9090",
				"HOST":           "127.0.0.1",
				"DEBUG":          "true",
				"DATABASE_URL":   "postgres://app@db:5432/app",
				"EVENTS_BACKEND": "rabbitmq",
				"RABBITMQ_URL":   "amqp://guest:guest@mq:5672/",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.Server.Port != 9090 {
					t.Errorf("Port = %d, want 9090", cfg.Server.Port)
				}
				if !cfg.Server.Debug {
					t.Errorf("Debug = false, want true")
				}
				if cfg.Database.URL != "postgres://app@db:5432/app" {
					t.Errorf("Database.URL = %q", cfg.Database.URL)
				}
				if cfg.Events.Backend != "rabbitmq" {
					t.Errorf("Events.Backend = %q, want rabbitmq", cfg.Events.Backend)
				}
				if cfg.RabbitMQ.URL != "amqp://guest:guest@mq:5672/" {
					t.Errorf("RabbitMQ.URL = %q", cfg.RabbitMQ.URL)
				}
				if cfg.Addr() != "127.0.0.1:9090" {
					t.Errorf("Addr() = %q, want 127.0.0.1:9090", cfg.Addr())
				}
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"PORT": "eighty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestPublicHidesSecrets(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		Database: DatabaseConfig{
			URL:       "postgres://app:secret@db:5432/app",
			AuthToken: "token",
		},
	}

	pub := cfg.Public()
	if !pub.DatabaseConfigured {
		t.Errorf("DatabaseConfigured = false, want true")
	}
	if pub.DatabaseURLType != "PostgreSQL" {
		t.Errorf("DatabaseURLType = %q, want PostgreSQL", pub.DatabaseURLType)
	}
}

func TestBackendLabel(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u@h/db", "PostgreSQL"},
		{"postgresql://u@h/db", "PostgreSQL"},
		{"libsql://example.turso.io", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		got := DatabaseConfig{URL: tt.url}.BackendLabel()
		if got != tt.want {
			t.Errorf("BackendLabel(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatabaseConfig
		want    string
		wantErr bool
	}{
		{
			name: "no token",
			cfg:  DatabaseConfig{URL: "postgres://app:pw@db:5432/app?sslmode=disable"},
			want: "postgres://app:pw@db:5432/app?sslmode=disable",
		},
		{
			name: "token fills missing password",
			cfg:  DatabaseConfig{URL: "postgres://app@db:5432/app", AuthToken: "tok"},
			want: "postgres://app:tok@db:5432/app",
		},
		{
			name: "explicit password wins",
			cfg:  DatabaseConfig{URL: "postgres://app:pw@db:5432/app", AuthToken: "tok"},
			want: "postgres://app:pw@db:5432/app",
		},
		{
			name:    "empty url",
			cfg:     DatabaseConfig{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DSN()
			if (err != nil) != tt.wantErr {
				t.Fatalf("DSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
