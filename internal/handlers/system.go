package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/userdir/apiserver/config"
)

// APIVersion is reported by the welcome endpoint.
const APIVersion = "1.0.0"

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the welcome, health and config endpoints.
type SystemHandler struct {
	pinger Pinger
	cfg    config.Config
}

func NewSystemHandler(pinger Pinger, cfg config.Config) *SystemHandler {
	return &SystemHandler{pinger: pinger, cfg: cfg}
}

// SystemRouter registers /, /health and /config.
func SystemRouter(r chi.Router, pinger Pinger, cfg config.Config) {
	handler := NewSystemHandler(pinger, cfg)

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Get("/config", handler.Config)
}

type WelcomeResponse struct {
	Message        string            `json:"message"`
	Version        string            `json:"version"`
	DatabaseStatus string            `json:"database_status"`
	Endpoints      map[string]string `json:"endpoints"`
}

type HealthResponse struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	DatabaseType      string `json:"database_type,omitempty"`
	Error             string `json:"error,omitempty"`
}

func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	status := "connected"
	if err := h.pinger.Ping(r.Context()); err != nil {
		status = "disconnected"
	}
	writeJSON(w, http.StatusOK, WelcomeResponse{
		Message:        "Welcome to the user directory API!",
		Version:        APIVersion,
		DatabaseStatus: status,
		Endpoints: map[string]string{
			"users":  "/users/",
			"health": "/health",
			"config": "/config",
		},
	})
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:            "unhealthy",
			DatabaseConnected: false,
			Error:             err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "healthy",
		DatabaseConnected: true,
		DatabaseType:      h.cfg.Database.BackendLabel(),
	})
}

func (h *SystemHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Public())
}
