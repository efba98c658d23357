// Package server exposes the HTTP surface (webhook intake, liveness, stats
// and metrics) and the gRPC health service.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// Intaker accepts one webhook payload and reports how it was ingested.
type Intaker interface {
	Intake(ctx context.Context, raw json.RawMessage) (model.BatchResult, error)
}

// StatsReader serves the read-only statistics endpoints.
type StatsReader interface {
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
	OriginStats(ctx context.Context, originID int64) (*model.OriginStats, error)
	ActorStats(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error)
}

// Options configures a Server.
type Options struct {
	// Intake receives webhook payloads. Nil disables POST /webhook (pull mode).
	Intake Intaker
	Stats  StatsReader
	// WebhookSecret, when set, must match the secret token header on webhooks.
	WebhookSecret string
	// AuthToken, when set, guards the /v1 API with a bearer token.
	AuthToken string
	Logger    *slog.Logger
}

// Server holds the collaborators behind the HTTP handlers.
type Server struct {
	intake        Intaker
	stats         StatsReader
	webhookSecret string
	authToken     string
	logger        *slog.Logger
}

// New returns a Server for the given options.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		intake:        opts.Intake,
		stats:         opts.Stats,
		webhookSecret: opts.WebhookSecret,
		authToken:     opts.AuthToken,
		logger:        opts.Logger,
	}
}
