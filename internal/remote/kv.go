package remote

import (
	"context"

	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/pkg/kvrest"
)

// KVStore keeps the snapshot as one JSON string in a REST key-value store.
type KVStore struct {
	client kvrest.Client
	key    string
}

func NewKVStore(client kvrest.Client) *KVStore {
	return &KVStore{client: client, key: kvrest.TournamentKey}
}

func (s *KVStore) Load(ctx context.Context) (*models.Tournament, error) {
	data, found, err := s.client.Get(ctx, s.key)
	if err != nil || !found {
		return nil, err
	}
	return decode(data)
}

func (s *KVStore) Save(ctx context.Context, t *models.Tournament) error {
	data, err := encode(t)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data)
}

func (s *KVStore) Mode() string { return ModeRealDB }
func (s *KVStore) Name() string { return "kv" }
