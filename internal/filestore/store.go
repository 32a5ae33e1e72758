// Package filestore removes stored assets referenced by resource URLs.
package filestore

import (
	"context"
	"errors"
)

// ErrNotManaged is returned for URIs this store does not own (external
// links, other buckets). Callers treat it as nothing to do.
var ErrNotManaged = errors.New("uri not managed by this store")

type Store interface {
	Delete(ctx context.Context, uri string) error
	Mode() string
}
