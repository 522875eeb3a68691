// Package services contains the application services for the CPD Vault
// client: authentication, the entry reconciliation/sync engine, and the
// background syncer.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/localstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/models"
	"github.com/dmitrijs2005/cpdvault/internal/client/remote"
	"github.com/dmitrijs2005/cpdvault/internal/client/stats"
	"github.com/dmitrijs2005/cpdvault/internal/common"
	"github.com/dmitrijs2005/cpdvault/internal/logging"
	"golang.org/x/sync/errgroup"
)

// SyncReport summarizes one SyncPending pass. Partial failure is reported,
// never raised as an error.
type SyncReport struct {
	Attempted int
	Succeeded int
	Failed    int
}

// EntryService is the single capability surface the UI depends on. It merges
// the Local and Remote Entry Stores into one logical entry set and pushes
// pending changes opportunistically.
type EntryService interface {
	// GetAll returns the reconciled entry set, newest activity date first.
	// A remote read failure degrades silently to local-only results.
	GetAll(ctx context.Context) ([]*models.Entry, error)
	// Get returns one entry from the local store.
	Get(ctx context.Context, id string) (*models.Entry, error)
	// Create persists a new entry locally and uploads it best-effort.
	Create(ctx context.Context, entry *models.Entry) error
	// Update persists local edits and re-uploads best-effort. Edits always
	// revert the entry to pending until the upload is confirmed.
	Update(ctx context.Context, entry *models.Entry) error
	// Delete removes the entry locally and remotely (including attached
	// evidence objects, which the server owns). A remote removal that
	// cannot happen now is queued and retried by SyncPending.
	Delete(ctx context.Context, id string) error
	// SetStarred flips the user's star flag.
	SetStarred(ctx context.Context, id string, starred bool) error
	// SyncPending uploads every local-only/pending entry and retries
	// queued remote deletes. Safe to call concurrently with itself; an
	// entry already mid-upload is skipped.
	SyncPending(ctx context.Context) (*SyncReport, error)
	// SyncInFlight reports whether a SyncPending pass is currently running.
	SyncInFlight() bool
	// Statistics returns the derived rollups for the reconciled set. Cached
	// until the entry set changes.
	Statistics(ctx context.Context) (*stats.Statistics, error)
}

type entryService struct {
	remote remote.Client
	local  *localstore.EntryStore
	log    logging.Logger
	nowFn  func() time.Time

	// per-id upload markers so concurrent SyncPending passes never
	// double-upload one entry
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// running SyncPending passes; a counter so an overlapping pass never
	// clears the flag for one still going
	syncRunning atomic.Int64

	statsMu    sync.Mutex
	statsCache *stats.Statistics
}

// NewEntryService wires the reconciliation engine to its two stores.
func NewEntryService(remoteClient remote.Client, local *localstore.EntryStore, log logging.Logger) EntryService {
	return &entryService{
		remote:   remoteClient,
		local:    local,
		log:      log,
		nowFn:    time.Now,
		inflight: make(map[string]struct{}),
	}
}

func (s *entryService) invalidateStats() {
	s.statsMu.Lock()
	s.statsCache = nil
	s.statsMu.Unlock()
}

// GetAll reads both stores concurrently and merges by correlation id. The
// entry with the later last-update timestamp wins; remote-only entries are
// adopted into the local store (marked synced) for offline availability.
// Offline is an expected, silent mode: a failed remote read never surfaces.
func (s *entryService) GetAll(ctx context.Context) ([]*models.Entry, error) {
	var localEntries, remoteEntries []*models.Entry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		localEntries, err = s.local.List(gctx)
		return err
	})
	g.Go(func() error {
		if !s.remote.HasSession() {
			return nil
		}
		entries, err := s.remote.List(gctx)
		if err != nil {
			s.log.Debug(gctx, "remote read failed, staying local-only", "error", err)
			return nil
		}
		remoteEntries = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading local entries: %w", err)
	}

	merged := make(map[string]*models.Entry, len(localEntries)+len(remoteEntries))
	for _, e := range localEntries {
		merged[e.ID] = e
	}

	tombstoned := make(map[string]struct{})
	if len(remoteEntries) > 0 {
		ids, err := s.local.Tombstones(ctx)
		if err != nil {
			s.log.Warn(ctx, "could not read pending deletes", "error", err)
		}
		for _, id := range ids {
			tombstoned[id] = struct{}{}
		}
	}

	for _, r := range remoteEntries {
		// deleted here, remote removal still owed
		if _, dead := tombstoned[r.ID]; dead {
			continue
		}
		r.SyncState = models.SyncStateSynced
		l, ok := merged[r.ID]
		if ok && !r.UpdatedAt.After(l.UpdatedAt) {
			continue
		}
		merged[r.ID] = r
		if err := s.local.Put(ctx, r); err != nil {
			s.log.Warn(ctx, "could not cache remote entry locally", "id", r.ID, "error", err)
		}
		s.invalidateStats()
	}

	result := make([]*models.Entry, 0, len(merged))
	for _, e := range merged {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (s *entryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	return s.local.Get(ctx, id)
}

// Create writes locally first; the local write is the one that must succeed.
// The upload is best-effort and a failure leaves the entry queued.
func (s *entryService) Create(ctx context.Context, entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if entry.SyncState == "" {
		entry.SyncState = models.SyncStateLocalOnly
	}
	if err := s.local.Put(ctx, entry); err != nil {
		return err
	}
	s.invalidateStats()

	s.uploadBestEffort(ctx, entry)
	return nil
}

func (s *entryService) Update(ctx context.Context, entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	entry.Touch()
	if err := s.local.Put(ctx, entry); err != nil {
		return err
	}
	s.invalidateStats()

	s.uploadBestEffort(ctx, entry)
	return nil
}

// uploadBestEffort pushes one entry if a session exists; failures are left
// for the next sync pass.
func (s *entryService) uploadBestEffort(ctx context.Context, entry *models.Entry) {
	if !s.remote.HasSession() {
		return
	}
	if !s.tryAcquire(entry.ID) {
		return
	}
	defer s.release(entry.ID)

	// the push is underway, so the entry is no longer merely local
	if entry.SyncState == models.SyncStateLocalOnly {
		entry.SyncState = models.SyncStatePendingUpload
		if err := s.local.Put(ctx, entry); err != nil {
			s.log.Warn(ctx, "could not persist pending state", "id", entry.ID, "error", err)
		}
	}

	if err := s.remote.Upsert(ctx, entry); err != nil {
		s.log.Debug(ctx, "upload deferred", "id", entry.ID, "error", err)
		return
	}
	entry.SyncState = models.SyncStateSynced
	if err := s.local.Put(ctx, entry); err != nil {
		s.log.Warn(ctx, "could not persist synced state", "id", entry.ID, "error", err)
	}
}

func (s *entryService) Delete(ctx context.Context, id string) error {
	entry, err := s.local.Get(ctx, id)
	if err != nil && !isNotFound(err) {
		return err
	}

	if err := s.local.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats()

	// Entries that never left this device have no remote row to chase.
	if entry == nil || entry.SyncState == models.SyncStateLocalOnly {
		return nil
	}

	// The remote row (and its evidence objects, which the server owns) goes
	// too. A pending entry may still hold a row from an earlier sync, and
	// the remote delete tolerates a missing one, so every once-uploaded
	// state gets the call.
	if s.remote.HasSession() {
		err := s.remote.Delete(ctx, id)
		if err == nil {
			return nil
		}
		s.log.Warn(ctx, "remote delete failed, queued for retry", "id", id, "error", err)
	}

	// Not confirmed remotely. Leave a tombstone so the merge does not adopt
	// the row back and a later sync pass finishes the delete.
	if err := s.local.AddTombstone(ctx, id); err != nil {
		s.log.Warn(ctx, "could not record pending delete", "id", id, "error", err)
	}
	return nil
}

func (s *entryService) SetStarred(ctx context.Context, id string, starred bool) error {
	entry, err := s.local.Get(ctx, id)
	if err != nil {
		return err
	}
	entry.Starred = starred
	return s.Update(ctx, entry)
}

func (s *entryService) tryAcquire(id string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *entryService) release(id string) {
	s.inflightMu.Lock()
	delete(s.inflight, id)
	s.inflightMu.Unlock()
}

func (s *entryService) SyncInFlight() bool {
	return s.syncRunning.Load() > 0
}

// SyncPending uploads every queued entry and retries pending remote deletes.
// One failed upload never aborts the batch; the only error returned is a
// total inability to start.
func (s *entryService) SyncPending(ctx context.Context) (*SyncReport, error) {
	if !s.remote.HasSession() {
		return nil, common.ErrorNotAuthenticated
	}

	s.syncRunning.Add(1)
	defer s.syncRunning.Add(-1)

	entries, err := s.local.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	s.retryPendingDeletes(ctx, report)
	for _, e := range entries {
		if !e.NeedsUpload() {
			continue
		}
		if !s.tryAcquire(e.ID) {
			// another pass is uploading this one right now
			continue
		}
		report.Attempted++

		if err := s.remote.Upsert(ctx, e); err != nil {
			report.Failed++
			s.log.Debug(ctx, "sync of entry failed, will retry", "id", e.ID, "error", err)
			s.release(e.ID)
			continue
		}

		e.SyncState = models.SyncStateSynced
		if err := s.local.Put(ctx, e); err != nil {
			report.Failed++
			s.log.Warn(ctx, "could not persist synced state", "id", e.ID, "error", err)
		} else {
			report.Succeeded++
		}
		s.release(e.ID)
	}

	s.log.Info(ctx, "sync pass finished",
		"attempted", report.Attempted, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// retryPendingDeletes finishes deletes whose remote removal failed earlier.
func (s *entryService) retryPendingDeletes(ctx context.Context, report *SyncReport) {
	ids, err := s.local.Tombstones(ctx)
	if err != nil {
		s.log.Warn(ctx, "could not read pending deletes", "error", err)
		return
	}

	for _, id := range ids {
		if !s.tryAcquire(id) {
			continue
		}
		report.Attempted++

		if err := s.remote.Delete(ctx, id); err != nil {
			report.Failed++
			s.log.Debug(ctx, "remote delete failed, will retry", "id", id, "error", err)
			s.release(id)
			continue
		}

		if err := s.local.RemoveTombstone(ctx, id); err != nil {
			report.Failed++
			s.log.Warn(ctx, "could not clear pending delete", "id", id, "error", err)
		} else {
			report.Succeeded++
		}
		s.release(id)
	}
}

// Statistics serves the cached rollups, recomputing only after the entry set
// changed.
func (s *entryService) Statistics(ctx context.Context) (*stats.Statistics, error) {
	s.statsMu.Lock()
	if s.statsCache != nil {
		cached := s.statsCache.Clone()
		s.statsMu.Unlock()
		return &cached, nil
	}
	s.statsMu.Unlock()

	entries, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	st := stats.Aggregate(entries, s.nowFn())

	s.statsMu.Lock()
	s.statsCache = &st
	s.statsMu.Unlock()

	result := st.Clone()
	return &result, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
