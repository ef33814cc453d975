// Package remote keeps an off-site copy of the tournament so a second device or a
// restarted server can pick up where the venue left off.
package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/abrezinsky/picklecup/internal/config"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/pkg/kvrest"
)

// Store modes reported to the dashboard.
const (
	ModeMemory = "temporary-memory"
	ModeRealDB = "real-db"
)

// SnapshotKey identifies the tournament in stores that key rows or items.
const SnapshotKey = "pc_tuyen_quang"

// Store is a whole-snapshot, last-writer-wins remote copy.
type Store interface {
	// Load returns nil, nil when nothing has been stored yet.
	Load(ctx context.Context) (*models.Tournament, error)
	Save(ctx context.Context, t *models.Tournament) error
	Mode() string
	Name() string
}

// New builds the store selected by cfg. It returns nil, nil for BackendNone.
func New(ctx context.Context, cfg config.Remote, log logger.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendKV:
		return NewKVStore(kvrest.NewHTTPClient(cfg.KVURL, cfg.KVToken, log)), nil
	case config.BackendS3:
		return NewS3Store(ctx, cfg)
	case config.BackendDynamo:
		return NewDynamoStore(ctx, cfg)
	case config.BackendPostgres:
		return OpenPostgresStore(ctx, cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
}

// MemoryStore lives only as long as the process. It stands in for a remote
// store during development and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	data *models.Tournament
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	return s.data.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = t.Clone()
	return nil
}

func (s *MemoryStore) Mode() string { return ModeMemory }
func (s *MemoryStore) Name() string { return "memory" }
