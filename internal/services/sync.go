package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/abrezinsky/picklecup/internal/autosave"
	apperrors "github.com/abrezinsky/picklecup/internal/errors"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/remote"
	"github.com/abrezinsky/picklecup/internal/repository"
	"github.com/abrezinsky/picklecup/internal/state"
)

// Load sources reported by InitialLoad.
const (
	LoadedFromRemote = "remote"
	LoadedFromLocal  = "local"
	LoadedEmpty      = "empty"
)

// ModeLocalOnly is reported when no remote store is configured.
const ModeLocalOnly = "local-only"

// SyncServiceRepository defines the repository methods needed by SyncService
type SyncServiceRepository interface {
	repository.SnapshotRepository
	repository.SettingsRepository
}

// Saver writes the current snapshot to every target on demand.
type Saver interface {
	Flush(ctx context.Context) error
	Status() autosave.Status
}

// SyncService moves snapshots between the container, the local database and
// the remote store
type SyncService struct {
	log       logger.Logger
	container *state.Container
	repo      SyncServiceRepository
	store     remote.Store
	saver     Saver

	mu         sync.Mutex
	lastRemote []byte // encoded remote snapshot as last read or written
}

// NewSyncService creates a new SyncService. store may be nil.
func NewSyncService(log logger.Logger, container *state.Container, repo SyncServiceRepository, store remote.Store, saver Saver) *SyncService {
	return &SyncService{log: log, container: container, repo: repo, store: store, saver: saver}
}

// SyncStatus is what the admin page shows about persistence
type SyncStatus struct {
	Save     autosave.Status `json:"save"`
	Mode     string          `json:"mode"`
	Backend  string          `json:"backend"`
	LastSync string          `json:"lastSync,omitempty"`
}

func (s *SyncService) Status(ctx context.Context) SyncStatus {
	st := SyncStatus{Save: s.saver.Status(), Mode: ModeLocalOnly, Backend: "sqlite"}
	if s.store != nil {
		st.Mode = s.store.Mode()
		st.Backend = s.store.Name()
	}
	if v, err := s.repo.GetSetting(ctx, repository.SettingLastSync); err == nil {
		st.LastSync = v
	}
	return st
}

// Upload saves the current snapshot everywhere right away
func (s *SyncService) Upload(ctx context.Context) (SyncStatus, error) {
	if err := s.saver.Flush(ctx); err != nil {
		s.log.Warn("Manual upload failed", "error", err)
		return s.Status(ctx), apperrors.Unavailable(err, "upload failed")
	}
	s.markSynced(ctx)
	s.remember(s.container.Snapshot())
	s.log.Info("Snapshot uploaded")
	return s.Status(ctx), nil
}

// Pull replaces the local tournament with the remote copy
func (s *SyncService) Pull(ctx context.Context) (*models.Tournament, error) {
	if s.store == nil {
		return nil, ErrNoRemote
	}
	t, err := s.store.Load(ctx)
	if err != nil {
		return nil, apperrors.Unavailable(err, "could not reach the remote store")
	}
	if t == nil {
		return nil, ErrRemoteEmpty
	}
	out := s.adopt(ctx, t)
	s.remember(t)
	s.markSynced(ctx)
	s.log.Info("Pulled tournament from remote store", "backend", s.store.Name())
	return out, nil
}

// InitialLoad restores state at startup. The remote copy wins when it can be
// read; otherwise the last local snapshot is used.
func (s *SyncService) InitialLoad(ctx context.Context) (string, error) {
	if s.store != nil {
		t, err := s.store.Load(ctx)
		switch {
		case err != nil:
			s.log.Warn("Remote store unavailable, falling back to local snapshot", "backend", s.store.Name(), "error", err)
		case t != nil:
			s.adopt(ctx, t)
			s.remember(t)
			s.markSynced(ctx)
			return LoadedFromRemote, nil
		}
	}

	t, _, err := s.repo.LoadSnapshot(ctx, repository.SnapshotID)
	if errors.Is(err, repository.ErrNotFound) {
		return LoadedEmpty, nil
	}
	if err != nil {
		return "", apperrors.Internal(err)
	}
	s.container.Replace(t, state.SourceRemote)
	return LoadedFromLocal, nil
}

// Watch polls the remote store every interval until ctx is done, adopting
// updates another device wrote. It returns at once without a remote store or
// with a non-positive interval.
func (s *SyncService) Watch(ctx context.Context, interval time.Duration) {
	if s.store == nil || interval <= 0 {
		return
	}
	s.log.Debug("Watching remote store", "backend", s.store.Name(), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PollRemote(ctx)
		}
	}
}

// PollRemote reads the remote snapshot once and adopts it when it changed since
// the last read and differs from the local tournament. Local edits that are
// still waiting to be saved win, so nothing is adopted while a save is pending.
func (s *SyncService) PollRemote(ctx context.Context) bool {
	if s.store == nil || s.unsaved() {
		return false
	}
	t, err := s.store.Load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Debug("Remote poll failed", "backend", s.store.Name(), "error", err)
		}
		return false
	}
	if t == nil || s.unsaved() {
		return false
	}

	data, err := json.Marshal(t)
	if err != nil {
		s.log.Warn("Failed to encode remote snapshot", "error", err)
		return false
	}
	s.mu.Lock()
	seen := bytes.Equal(data, s.lastRemote)
	s.lastRemote = data
	s.mu.Unlock()
	if seen {
		return false
	}
	if local, err := json.Marshal(s.container.Snapshot()); err == nil && bytes.Equal(data, local) {
		return false
	}

	s.adopt(ctx, t)
	s.markSynced(ctx)
	s.log.Info("Adopted remote update", "backend", s.store.Name())
	return true
}

func (s *SyncService) unsaved() bool {
	st := s.saver.Status()
	return st.Pending || st.State == autosave.StateSaving
}

func (s *SyncService) remember(t *models.Tournament) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.lastRemote = data
	s.mu.Unlock()
}

// adopt installs a remote snapshot without triggering an autosave and keeps
// the local database in step with it.
func (s *SyncService) adopt(ctx context.Context, t *models.Tournament) *models.Tournament {
	out := s.container.Replace(t, state.SourceRemote)
	if err := s.repo.SaveSnapshot(ctx, repository.SnapshotID, out); err != nil {
		s.log.Warn("Failed to store remote snapshot locally", "error", err)
	}
	return out
}

func (s *SyncService) markSynced(ctx context.Context) {
	if err := s.repo.SetSetting(ctx, repository.SettingLastSync, time.Now().Format(time.RFC3339)); err != nil {
		s.log.Warn("Failed to record sync time", "error", err)
	}
}
