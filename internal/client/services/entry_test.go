package services

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/kvstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/localstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/models"
	"github.com/dmitrijs2005/cpdvault/internal/client/remote"
	"github.com/dmitrijs2005/cpdvault/internal/common"
	"github.com/dmitrijs2005/cpdvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeRemote is a hand-rolled in-memory stand-in for the server.
type fakeRemote struct {
	mu      sync.Mutex
	session *remote.Session
	rows    map[string]*models.Entry

	listErr    error
	pingErr    error
	loginErr   error
	deleteErr  error
	failUpsert map[string]error
	upserting  chan string   // if set, Upsert announces and then waits
	proceed    chan struct{} // release channel for blocked upserts
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		session:    &remote.Session{AccessToken: "acc", RefreshToken: "ref"},
		rows:       make(map[string]*models.Entry),
		failUpsert: make(map[string]error),
	}
}

func (f *fakeRemote) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session != nil
}
func (f *fakeRemote) Session() *remote.Session     { return f.session }
func (f *fakeRemote) SetSession(s *remote.Session) { f.session = s }
func (f *fakeRemote) Logout()                      { f.session = nil }

func (f *fakeRemote) Register(ctx context.Context, u, p string) error { return nil }
func (f *fakeRemote) Login(ctx context.Context, u, p string) (*remote.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	s := &remote.Session{AccessToken: "acc", RefreshToken: "ref"}
	f.SetSession(s)
	return s, nil
}
func (f *fakeRemote) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeRemote) Upsert(ctx context.Context, e *models.Entry) error {
	if f.upserting != nil {
		f.upserting <- e.ID
		<-f.proceed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpsert[e.ID]; ok {
		return err
	}
	clone := *e
	f.rows[e.ID] = &clone
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRemote) List(ctx context.Context) ([]*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Entry, 0, len(f.rows))
	for _, e := range f.rows {
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeRemote) PresignPut(ctx context.Context) (string, string, error) {
	return "key", "http://s3/put", nil
}
func (f *fakeRemote) PresignGet(ctx context.Context, key string) (string, error) {
	return "http://s3/get", nil
}

func setup(t *testing.T) (*entryService, *fakeRemote, *localstore.EntryStore) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	local := localstore.NewEntryStore(kvstore.NewSQLiteStore(db), log)
	fr := newFakeRemote()

	svc := NewEntryService(fr, local, log).(*entryService)
	return svc, fr, local
}

func mkEntry(title string, date time.Time) *models.Entry {
	return models.NewEntry(title, models.ActivityTypeCourse, 2.5, date)
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestCreate_OfflineStaysLocalOnly(t *testing.T) {
	svc, fr, _ := setup(t)
	fr.Logout()
	ctx := context.Background()

	e := mkEntry("Wound Care Workshop", day)
	require.NoError(t, svc.Create(ctx, e))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.SyncStateLocalOnly, all[0].SyncState)
	assert.Empty(t, fr.rows)
}

func TestCreate_OnlineUploadsAndMarksSynced(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("Wound Care Workshop", day)
	require.NoError(t, svc.Create(ctx, e))

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateSynced, stored.SyncState)
	assert.Contains(t, fr.rows, e.ID)
}

// Once the push starts the entry has left the local-only stage, even if the
// upload then fails.
func TestCreate_FailedUploadLeavesEntryPending(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("Wound Care Workshop", day)
	fr.failUpsert[e.ID] = common.ErrorNetworkUnavailable
	require.NoError(t, svc.Create(ctx, e))

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatePendingUpload, stored.SyncState)
	assert.Empty(t, fr.rows)
}

func TestCreate_RejectsInvalidEntry(t *testing.T) {
	svc, _, _ := setup(t)

	e := mkEntry("", day)
	err := svc.Create(context.Background(), e)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUpdate_FailedUploadLeavesPending(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("Handover reflection", day)
	require.NoError(t, svc.Create(ctx, e))

	fr.failUpsert[e.ID] = common.ErrorNetworkUnavailable
	e.Title = "Handover reflection (revised)"
	require.NoError(t, svc.Update(ctx, e))

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatePendingUpload, stored.SyncState)
}

func TestGetAll_OfflineReadFallsBackToLocalSilently(t *testing.T) {
	svc, fr, _ := setup(t)
	ctx := context.Background()

	e := mkEntry("Wound Care Workshop", day)
	require.NoError(t, svc.Create(ctx, e))

	fr.listErr = common.ErrorNetworkUnavailable

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetAll_MergePrefersLaterUpdate(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	e := mkEntry("Local draft", day)
	e.SyncState = models.SyncStateLocalOnly
	e.UpdatedAt = t1
	require.NoError(t, local.Put(ctx, e))

	remoteCopy := *e
	remoteCopy.Title = "Edited on another device"
	remoteCopy.UpdatedAt = t2
	fr.rows[e.ID] = &remoteCopy

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Edited on another device", all[0].Title)
	assert.Equal(t, models.SyncStateSynced, all[0].SyncState)

	// the winning version is now cached locally too
	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited on another device", stored.Title)
}

func TestGetAll_LocalNewerThanRemoteWins(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	e := mkEntry("Fresh local edit", day)
	e.SyncState = models.SyncStatePendingUpload
	e.UpdatedAt = t1.Add(time.Hour)
	require.NoError(t, local.Put(ctx, e))

	remoteCopy := *e
	remoteCopy.Title = "Stale remote"
	remoteCopy.UpdatedAt = t1
	fr.rows[e.ID] = &remoteCopy

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Fresh local edit", all[0].Title)
	assert.Equal(t, models.SyncStatePendingUpload, all[0].SyncState)
}

func TestGetAll_RemoteOnlyAdoptedLocally(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("Created on another device", day)
	fr.rows[e.ID] = e

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.SyncStateSynced, all[0].SyncState)

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, stored.ID)
}

func TestGetAll_SortedByActivityDateDescending(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	older := mkEntry("older", day.AddDate(0, -2, 0))
	newer := mkEntry("newer", day)
	require.NoError(t, svc.Create(ctx, older))
	require.NoError(t, svc.Create(ctx, newer))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].Title)
	assert.Equal(t, "older", all[1].Title)
}

func TestDelete_RemovesLocalAndRemote(t *testing.T) {
	svc, fr, _ := setup(t)
	ctx := context.Background()

	e := mkEntry("to be removed", day)
	require.NoError(t, svc.Create(ctx, e))
	require.Contains(t, fr.rows, e.ID)

	require.NoError(t, svc.Delete(ctx, e.ID))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotContains(t, fr.rows, e.ID)
}

// A synced entry that picked up a pending local edit still has a remote row;
// deleting it must remove that row so the merge cannot bring it back.
func TestDelete_PendingEditOfSyncedEntryRemovesRemoteRow(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("ALS refresher", day)
	require.NoError(t, svc.Create(ctx, e))
	require.Contains(t, fr.rows, e.ID)

	fr.failUpsert[e.ID] = common.ErrorNetworkUnavailable
	e.Title = "ALS refresher (revised)"
	require.NoError(t, svc.Update(ctx, e))

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, models.SyncStatePendingUpload, stored.SyncState)

	require.NoError(t, svc.Delete(ctx, e.ID))

	assert.NotContains(t, fr.rows, e.ID, "remote row must go with the entry")
	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "deleted entry must not come back via the merge")
}

func TestDelete_RemoteFailureQueuesRetry(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("to be removed", day)
	require.NoError(t, svc.Create(ctx, e))

	fr.deleteErr = common.ErrorNetworkUnavailable
	require.NoError(t, svc.Delete(ctx, e.ID))

	// the remote row survived, but the merge must not re-adopt it
	require.Contains(t, fr.rows, e.ID)
	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	ids, err := local.Tombstones(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{e.ID}, ids)

	// connectivity returns; the next sync pass finishes the delete
	fr.deleteErr = nil
	report, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)

	assert.NotContains(t, fr.rows, e.ID)
	ids, err = local.Tombstones(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDelete_WithoutSessionQueuesRemoteDelete(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	e := mkEntry("deleted while logged out", day)
	require.NoError(t, svc.Create(ctx, e))

	fr.Logout()
	require.NoError(t, svc.Delete(ctx, e.ID))

	ids, err := local.Tombstones(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{e.ID}, ids)

	fr.SetSession(&remote.Session{AccessToken: "acc"})
	report, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	assert.NotContains(t, fr.rows, e.ID)
	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDelete_NonexistentIsIdempotent(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	e := mkEntry("survivor", day)
	require.NoError(t, svc.Create(ctx, e))

	require.NoError(t, svc.Delete(ctx, "never-existed"))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSetStarred(t *testing.T) {
	svc, _, local := setup(t)
	ctx := context.Background()

	e := mkEntry("flagged", day)
	require.NoError(t, svc.Create(ctx, e))
	require.NoError(t, svc.SetStarred(ctx, e.ID, true))

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, stored.Starred)
}

func TestSyncPending_NotAuthenticated(t *testing.T) {
	svc, fr, _ := setup(t)
	fr.Logout()

	_, err := svc.SyncPending(context.Background())
	assert.ErrorIs(t, err, common.ErrorNotAuthenticated)
}

func TestSyncPending_PartialFailureReported(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()

	fr.Logout() // create all three offline
	e1 := mkEntry("one", day)
	e2 := mkEntry("two", day.AddDate(0, 0, 1))
	e3 := mkEntry("three", day.AddDate(0, 0, 2))
	for _, e := range []*models.Entry{e1, e2, e3} {
		require.NoError(t, svc.Create(ctx, e))
	}

	fr.SetSession(&remote.Session{AccessToken: "acc"})
	fr.failUpsert[e2.ID] = common.ErrorRemoteRejected

	report, err := svc.SyncPending(ctx)
	require.NoError(t, err, "partial failure must not raise")

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	for id, want := range map[string]models.SyncState{
		e1.ID: models.SyncStateSynced,
		e2.ID: models.SyncStateLocalOnly,
		e3.ID: models.SyncStateSynced,
	} {
		stored, err := local.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.SyncState)
	}
}

func TestSyncPending_ConcurrentPassSkipsInFlightEntries(t *testing.T) {
	svc, fr, _ := setup(t)
	ctx := context.Background()

	fr.Logout()
	e := mkEntry("slow upload", day)
	require.NoError(t, svc.Create(ctx, e))
	fr.SetSession(&remote.Session{AccessToken: "acc"})

	fr.upserting = make(chan string)
	fr.proceed = make(chan struct{})

	done := make(chan *SyncReport)
	go func() {
		r, err := svc.SyncPending(ctx)
		require.NoError(t, err)
		done <- r
	}()

	<-fr.upserting // first pass is now mid-upload

	fr.upserting = nil // second pass must not block
	second, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Attempted, "in-flight entry must be skipped")

	close(fr.proceed)
	first := <-done
	assert.Equal(t, 1, first.Attempted)
	assert.Equal(t, 1, first.Succeeded)
}

func TestSyncInFlight_StaysTrueWhileAnyPassRuns(t *testing.T) {
	svc, fr, _ := setup(t)
	ctx := context.Background()

	fr.Logout()
	e := mkEntry("slow upload", day)
	require.NoError(t, svc.Create(ctx, e))
	fr.SetSession(&remote.Session{AccessToken: "acc"})

	fr.upserting = make(chan string)
	fr.proceed = make(chan struct{})

	done := make(chan struct{})
	go func() {
		_, err := svc.SyncPending(ctx)
		require.NoError(t, err)
		close(done)
	}()

	<-fr.upserting // first pass is now mid-upload

	// a second pass finishing must not clear the flag for the first
	fr.upserting = nil
	_, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.True(t, svc.SyncInFlight(), "first pass is still running")

	close(fr.proceed)
	<-done
	assert.False(t, svc.SyncInFlight())
}

func TestStatistics_EndToEndOfflineThenSync(t *testing.T) {
	svc, fr, local := setup(t)
	ctx := context.Background()
	svc.nowFn = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	fr.Logout()
	e := mkEntry("Wound Care Workshop", day) // 2.5h course, 2024-03-01
	require.NoError(t, svc.Create(ctx, e))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, models.SyncStateLocalOnly, all[0].SyncState)

	// connectivity returns
	fr.SetSession(&remote.Session{AccessToken: "acc"})
	report, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	stored, err := local.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateSynced, stored.SyncState)

	st, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, st.HoursThisYear)
	assert.Equal(t, 7, st.CompliancePercentage) // round(2.5/35*100)
}

func TestStatistics_CacheInvalidatedByWrites(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	svc.nowFn = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Create(ctx, mkEntry("first", day)))

	st, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, st.TotalHours)

	require.NoError(t, svc.Create(ctx, mkEntry("second", day)))

	st, err = svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, st.TotalHours)
}

func TestStatistics_ReturnedDistributionIsCallerOwned(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	svc.nowFn = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Create(ctx, mkEntry("isolated", day)))

	st, err := svc.Statistics(ctx)
	require.NoError(t, err)
	st.TypeDistribution[models.ActivityTypeCourse] = 999

	again, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, again.TypeDistribution[models.ActivityTypeCourse])

	// the cached copy is shielded the other way round too
	again.TypeDistribution[models.ActivityTypeCourse] = -1
	final, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, final.TypeDistribution[models.ActivityTypeCourse])
}
