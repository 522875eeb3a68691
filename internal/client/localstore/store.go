// Package localstore implements the Local Entry Store: CPD entries persisted
// as JSON values behind the generic key-value boundary. It is the source of
// truth for anything not yet confirmed synced.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/kvstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/models"
	"github.com/dmitrijs2005/cpdvault/internal/common"
	"github.com/dmitrijs2005/cpdvault/internal/logging"
)

const (
	entryKeyPrefix     = "cpd:entry:"
	tombstoneKeyPrefix = "cpd:tombstone:"
)

// EntryStore persists CPD entries in the local key-value store.
//
// Writes to the same id are serialized; writes to different ids are
// independent. Date fields are normalized to whole seconds in UTC on Put and
// rehydrated to time.Time on reads.
type EntryStore struct {
	kv  kvstore.Store
	log logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEntryStore binds an EntryStore to the given key-value store.
func NewEntryStore(kv kvstore.Store, log logging.Logger) *EntryStore {
	return &EntryStore{kv: kv, log: log, locks: make(map[string]*sync.Mutex)}
}

func entryKey(id string) string {
	return entryKeyPrefix + id
}

// idLock returns the per-id mutex, creating it on first use.
func (s *EntryStore) idLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Put upserts the entry by correlation id. A returned error means nothing was
// persisted.
func (s *EntryStore) Put(ctx context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is empty", common.ErrorStorageWrite)
	}

	l := s.idLock(entry.ID)
	l.Lock()
	defer l.Unlock()

	stored := *entry
	stored.Date = normalize(entry.Date)
	stored.CreatedAt = normalize(entry.CreatedAt)
	stored.UpdatedAt = normalize(entry.UpdatedAt)

	b, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("%w: marshal entry %s: %v", common.ErrorStorageWrite, entry.ID, err)
	}

	return s.kv.Set(ctx, entryKey(entry.ID), b)
}

// Get returns the entry or common.ErrorNotFound.
func (s *EntryStore) Get(ctx context.Context, id string) (*models.Entry, error) {
	b, err := s.kv.Get(ctx, entryKey(id))
	if err != nil {
		return nil, err
	}

	var e models.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: unmarshal entry %s: %v", common.ErrorStorageRead, id, err)
	}
	return &e, nil
}

// List returns every stored entry. A corrupt record is skipped with a warning
// instead of blanking the whole list.
func (s *EntryStore) List(ctx context.Context) ([]*models.Entry, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Entry, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, entryKeyPrefix) {
			continue
		}
		b, err := s.kv.Get(ctx, k)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// removed between Keys and Get
				continue
			}
			return nil, err
		}
		var e models.Entry
		if err := json.Unmarshal(b, &e); err != nil {
			s.log.Warn(ctx, "skipping corrupt entry record", "key", k, "error", err)
			continue
		}
		result = append(result, &e)
	}
	return result, nil
}

// Delete removes the record. Deleting an absent id is a no-op, not an error.
func (s *EntryStore) Delete(ctx context.Context, id string) error {
	l := s.idLock(id)
	l.Lock()
	defer l.Unlock()

	return s.kv.Remove(ctx, entryKey(id))
}

func tombstoneKey(id string) string {
	return tombstoneKeyPrefix + id
}

// AddTombstone records that the entry was deleted locally while its remote
// row could not be removed. The marker survives until RemoveTombstone.
func (s *EntryStore) AddTombstone(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: entry id is empty", common.ErrorStorageWrite)
	}
	stamp := normalize(time.Now()).Format(time.RFC3339)
	return s.kv.Set(ctx, tombstoneKey(id), []byte(stamp))
}

// RemoveTombstone clears the pending-delete marker. Clearing an absent id is
// a no-op, not an error.
func (s *EntryStore) RemoveTombstone(ctx context.Context, id string) error {
	return s.kv.Remove(ctx, tombstoneKey(id))
}

// Tombstones returns the ids of entries whose remote deletion is still owed.
func (s *EntryStore) Tombstones(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, tombstoneKeyPrefix) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(k, tombstoneKeyPrefix))
	}
	return ids, nil
}
