// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the RegexFlow client and the cache implementation.
package port

import (
	"context"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

// HistoryFetcher retrieves the caller's matched SMS history from RegexFlow.
type HistoryFetcher interface {
	GetHistory(ctx context.Context, sess domain.Session) ([]domain.SMSRecord, error)
}

// Pinger checks upstream liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
