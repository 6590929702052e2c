// Package fitcache persists fit results keyed by a deterministic content
// hash of the fit request. The cache is append-only; writes persist
// immediately and concurrent writers are expected to be serialized by a
// caller-supplied lock.
package fitcache

import (
	"context"

	"svjfit/internal/model"
)

// Store is the backing key-value store for cached fit results.
type Store interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, hash string) (model.FitResult, bool, error)
	Write(ctx context.Context, hash string, res model.FitResult) error
}
