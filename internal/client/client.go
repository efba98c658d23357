// Package client provides a transport-agnostic interface for the datacol
// service and implementations over its HTTP API and gRPC health service.
package client

import (
	"context"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// StatsClient is what CLI commands use to read collector statistics.
// It is implemented by HTTPClient.
type StatsClient interface {
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
	OriginStats(ctx context.Context, originID int64) (*model.OriginStats, error)
	ActorStats(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error)
	Close() error
}

// HealthChecker reports the liveness of a running collector.
// It is implemented by HTTPClient and GRPCClient.
type HealthChecker interface {
	// Health returns a short status string such as "OK" or "SERVING".
	Health(ctx context.Context) (string, error)
	Close() error
}

var (
	_ StatsClient   = (*HTTPClient)(nil)
	_ HealthChecker = (*HTTPClient)(nil)
	_ HealthChecker = (*GRPCClient)(nil)
)
