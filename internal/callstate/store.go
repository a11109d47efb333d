// Package callstate tracks calls through the screening pipeline so the
// API can answer status queries after the webhook returns.
package callstate

import (
	"context"
	"time"

	"github.com/arassiq/SafeSenior/internal/domain"
)

// DefaultTTL is how long finished call records stay queryable.
const DefaultTTL = 24 * time.Hour

// Store persists call records keyed by call ID.
type Store interface {
	// Put writes or replaces a call record.
	Put(ctx context.Context, call *domain.Call) error
	// Get returns the call or domain.ErrCallNotFound.
	Get(ctx context.Context, callID string) (*domain.Call, error)
	// List returns up to limit calls, most recently started first.
	List(ctx context.Context, limit int) ([]*domain.Call, error)
}
