package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/remote"
	"github.com/dmitrijs2005/cpdvault/internal/logging"
)

// Syncer drives periodic background uploads. A tick is skipped, never queued,
// when the client is offline, has no session, or a sync is already running.
type Syncer struct {
	entries EntryService
	remote  remote.Client
	log     logging.Logger
}

func NewSyncer(entries EntryService, remoteClient remote.Client, log logging.Logger) *Syncer {
	return &Syncer{entries: entries, remote: remoteClient, log: log}
}

// Run blocks until ctx is done, attempting a sync pass every interval.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Syncer) tick(ctx context.Context) {
	if !s.remote.HasSession() {
		return
	}
	if s.entries.SyncInFlight() {
		s.log.Debug(ctx, "sync already running, skipping tick")
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := s.remote.Ping(pingCtx)
	cancel()
	if err != nil {
		// offline: stay quiet and wait for the next tick
		return
	}

	if _, err := s.entries.SyncPending(ctx); err != nil {
		s.log.Warn(ctx, "background sync could not start", "error", err)
	}
}
