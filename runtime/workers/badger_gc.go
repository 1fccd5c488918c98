package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGCWorker periodically reclaims Badger value-log space. Badger only
// garbage-collects when asked; without this the value log grows unbounded.
type BadgerGCWorker struct {
	db       *badger.DB
	interval time.Duration
	log      *slog.Logger
}

func NewBadgerGCWorker(db *badger.DB, interval time.Duration, log *slog.Logger) *BadgerGCWorker {
	return &BadgerGCWorker{db: db, interval: interval, log: log}
}

func (w *BadgerGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping badger GC worker")
			return ctx.Err()
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth rewriting.
			if err := w.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				w.log.Warn("Badger value log GC failed", "error", err)
			}
		}
	}
}
