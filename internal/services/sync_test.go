package services_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/abrezinsky/picklecup/internal/autosave"
	apperrors "github.com/abrezinsky/picklecup/internal/errors"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/remote"
	"github.com/abrezinsky/picklecup/internal/repository"
	"github.com/abrezinsky/picklecup/internal/repository/mock"
	"github.com/abrezinsky/picklecup/internal/services"
	"github.com/abrezinsky/picklecup/internal/state"
	"github.com/abrezinsky/picklecup/internal/testutil"
)

// flakyStore wraps a MemoryStore and can fail on demand.
type flakyStore struct {
	*remote.MemoryStore
	loadErr error
	saveErr error
}

func (s *flakyStore) Load(ctx context.Context) (*models.Tournament, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(ctx)
}

func (s *flakyStore) Save(ctx context.Context, t *models.Tournament) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, t)
}

type syncFixture struct {
	container *state.Container
	repo      *mock.Repository
	store     *flakyStore
	saver     *autosave.Scheduler
	svc       *services.SyncService
}

func newSyncFixture(t *testing.T, withStore bool) *syncFixture {
	t.Helper()
	log := testutil.NewQuietLogger()
	real := testutil.NewTestRepository(t)
	f := &syncFixture{
		container: state.New(state.WithRand(rand.New(rand.NewSource(3)))),
		repo:      mock.NewRepository(real),
	}
	targets := []autosave.Target{real}
	var store remote.Store
	if withStore {
		f.store = &flakyStore{MemoryStore: remote.NewMemoryStore()}
		store = f.store
		targets = append(targets, f.store)
	}
	f.saver = autosave.New(f.container, targets, log, autosave.WithRetry(1, time.Millisecond))
	t.Cleanup(f.saver.Stop)
	f.svc = services.NewSyncService(log, f.container, f.repo, store, f.saver)
	return f
}

func remoteTournament() *models.Tournament {
	t := models.NewTournament()
	t.Categories[models.CategoryMen].Teams = []models.Team{{ID: "r1", Name1: "Remote", Name2: "Pair"}}
	return t
}

func TestInitialLoad_PrefersRemote(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx := context.Background()
	f.store.MemoryStore.Save(ctx, remoteTournament())
	f.repo.SaveSnapshot(ctx, repository.SnapshotID, models.NewTournament())

	source, err := f.svc.InitialLoad(ctx)
	if err != nil || source != services.LoadedFromRemote {
		t.Fatalf("InitialLoad = %q, %v", source, err)
	}
	if f.container.Snapshot().Categories[models.CategoryMen].Teams[0].ID != "r1" {
		t.Error("container should hold the remote tournament")
	}
	local, _, _ := f.repo.LoadSnapshot(ctx, repository.SnapshotID)
	if len(local.Categories[models.CategoryMen].Teams) != 1 {
		t.Error("remote tournament should be copied to the local database")
	}
	if f.svc.Status(ctx).LastSync == "" {
		t.Error("last sync time not recorded")
	}
}

func TestInitialLoad_FallsBackToLocal(t *testing.T) {
	tests := []struct {
		name    string
		loadErr error
	}{
		{"remote empty", nil},
		{"remote down", errors.New("dial tcp: i/o timeout")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture(t, true)
			ctx := context.Background()
			f.store.loadErr = tt.loadErr
			f.repo.SaveSnapshot(ctx, repository.SnapshotID, remoteTournament())

			source, err := f.svc.InitialLoad(ctx)
			if err != nil || source != services.LoadedFromLocal {
				t.Fatalf("InitialLoad = %q, %v", source, err)
			}
			if len(f.container.Snapshot().Categories[models.CategoryMen].Teams) != 1 {
				t.Error("container should hold the local snapshot")
			}
		})
	}
}

func TestInitialLoad_Empty(t *testing.T) {
	f := newSyncFixture(t, false)

	source, err := f.svc.InitialLoad(context.Background())
	if err != nil || source != services.LoadedEmpty {
		t.Errorf("InitialLoad = %q, %v", source, err)
	}
}

func TestInitialLoad_LocalReadError(t *testing.T) {
	f := newSyncFixture(t, false)
	f.repo.LoadSnapshotError = errors.New("file is not a database")

	if _, err := f.svc.InitialLoad(context.Background()); !apperrors.IsKind(err, apperrors.ErrInternal) {
		t.Errorf("err = %v", err)
	}
}

func TestPull(t *testing.T) {
	ctx := context.Background()

	noStore := newSyncFixture(t, false)
	if _, err := noStore.svc.Pull(ctx); !errors.Is(err, services.ErrNoRemote) {
		t.Errorf("no store err = %v", err)
	}

	f := newSyncFixture(t, true)
	if _, err := f.svc.Pull(ctx); !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("empty store err = %v", err)
	}

	f.store.loadErr = errors.New("403 forbidden")
	if _, err := f.svc.Pull(ctx); !apperrors.IsKind(err, apperrors.ErrUnavailable) {
		t.Errorf("unreachable store err = %v", err)
	}

	f.store.loadErr = nil
	f.store.MemoryStore.Save(ctx, remoteTournament())
	got, err := f.svc.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if got.Categories[models.CategoryMen].Teams[0].ID != "r1" {
		t.Errorf("pulled = %+v", got.Categories[models.CategoryMen])
	}
}

func TestUpload(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx := context.Background()
	f.container.ImportTeams(models.CategoryWomen, testutil.Roster(4))

	st, err := f.svc.Upload(ctx)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if st.Save.State != autosave.StateSaved || st.Mode != remote.ModeMemory || st.LastSync == "" {
		t.Errorf("status = %+v", st)
	}
	stored, _ := f.store.MemoryStore.Load(ctx)
	if stored == nil || len(stored.Categories[models.CategoryWomen].Teams) != 4 {
		t.Error("remote store did not receive the snapshot")
	}
	local, _, err := f.repo.LoadSnapshot(ctx, repository.SnapshotID)
	if err != nil || len(local.Categories[models.CategoryWomen].Teams) != 4 {
		t.Errorf("local snapshot = %v, %v", local, err)
	}
}

func TestUpload_RemoteFailure(t *testing.T) {
	f := newSyncFixture(t, true)
	f.store.saveErr = errors.New("bucket not found")

	st, err := f.svc.Upload(context.Background())
	if !apperrors.IsKind(err, apperrors.ErrUnavailable) {
		t.Errorf("err = %v", err)
	}
	if st.Save.State != autosave.StateError || st.Save.LastError == "" {
		t.Errorf("status = %+v", st.Save)
	}
}

func TestStatus_LocalOnly(t *testing.T) {
	f := newSyncFixture(t, false)

	st := f.svc.Status(context.Background())
	if st.Mode != services.ModeLocalOnly || st.Backend != "sqlite" || st.Save.State != autosave.StateIdle {
		t.Errorf("status = %+v", st)
	}
}

func TestWatch_AdoptsRemoteUpdates(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.Watch(ctx, 5*time.Millisecond)
	}()

	f.store.MemoryStore.Save(context.Background(), remoteTournament())

	deadline := time.Now().Add(2 * time.Second)
	for len(f.container.Snapshot().Categories[models.CategoryMen].Teams) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("remote update was not adopted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	local, _, err := f.repo.LoadSnapshot(context.Background(), repository.SnapshotID)
	if err != nil || len(local.Categories[models.CategoryMen].Teams) != 1 {
		t.Errorf("adopted snapshot should be stored locally: %v", err)
	}
}

func TestWatch_ReturnsWithoutStore(t *testing.T) {
	f := newSyncFixture(t, false)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.Watch(context.Background(), time.Millisecond)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch should return when no remote store is configured")
	}
}

func TestPollRemote_AdoptsAsRemoteSource(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx := context.Background()
	var events []state.Event
	f.container.Subscribe(func(e state.Event) { events = append(events, e) })

	if f.svc.PollRemote(ctx) {
		t.Error("an empty store has nothing to adopt")
	}
	f.store.MemoryStore.Save(ctx, remoteTournament())
	if !f.svc.PollRemote(ctx) {
		t.Fatal("a new remote snapshot should be adopted")
	}
	if f.svc.PollRemote(ctx) {
		t.Error("the same snapshot should not be adopted twice")
	}
	if len(events) != 1 || events[0].Kind != state.EventReplaced || events[0].Source != state.SourceRemote {
		t.Errorf("events = %+v", events)
	}
}

func TestPollRemote_KeepsUnsavedLocalEdits(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx := context.Background()
	f.container.Subscribe(f.saver.Notify)
	f.store.MemoryStore.Save(ctx, remoteTournament())

	f.container.ImportTeams(models.CategoryWomen, testutil.Roster(4))

	if f.svc.PollRemote(ctx) {
		t.Error("remote snapshot must not replace edits waiting to be saved")
	}
	if len(f.container.Snapshot().Categories[models.CategoryWomen].Teams) != 4 {
		t.Error("local edits were lost")
	}
}

func TestPollRemote_IgnoresOwnAndStaleSnapshots(t *testing.T) {
	f := newSyncFixture(t, true)
	ctx := context.Background()
	f.store.MemoryStore.Save(ctx, remoteTournament())
	if !f.svc.PollRemote(ctx) {
		t.Fatal("first remote snapshot should be adopted")
	}

	// A save that reached the remote store echoes back unchanged.
	f.container.ImportTeams(models.CategoryWomen, testutil.Roster(4))
	if err := f.saver.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if f.svc.PollRemote(ctx) {
		t.Error("our own save should not be adopted")
	}

	// A save that only reached the local database leaves the remote copy stale.
	f.store.saveErr = errors.New("bucket not found")
	f.container.ImportTeams(models.CategoryMixed, testutil.Roster(6))
	if err := f.saver.Flush(ctx); err == nil {
		t.Fatal("Flush should fail on the remote target")
	}
	if f.svc.PollRemote(ctx) {
		t.Error("a stale remote copy should not be adopted")
	}
	if len(f.container.Snapshot().Categories[models.CategoryMixed].Teams) != 6 {
		t.Error("local edits were reverted")
	}
}
