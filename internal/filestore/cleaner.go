package filestore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const deleteTimeout = 30 * time.Second

// Cleaner deletes stale assets in the background. Failures are logged and
// never reach the caller.
type Cleaner struct {
	store Store
	log   *slog.Logger
	wg    sync.WaitGroup
}

func NewCleaner(store Store, log *slog.Logger) *Cleaner {
	return &Cleaner{store: store, log: log}
}

func (c *Cleaner) Discard(uri string) {
	if uri == "" {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()

		log := c.log.With(slog.String("op", "filestore.Cleaner.Discard"), slog.String("uri", uri))
		err := c.store.Delete(ctx, uri)
		switch {
		case err == nil:
			log.Info("asset deleted", slog.String("mode", c.store.Mode()))
		case errors.Is(err, ErrNotManaged):
			log.Debug("asset not managed, skipped")
		default:
			log.Warn("failed to delete asset", slog.Any("err", err))
		}
	}()
}

// Wait blocks until all pending deletions have finished.
func (c *Cleaner) Wait() {
	c.wg.Wait()
}
