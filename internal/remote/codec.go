package remote

import (
	"encoding/json"
	"fmt"

	"github.com/abrezinsky/picklecup/internal/models"
)

func encode(t *models.Tournament) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode tournament: %w", err)
	}
	return data, nil
}

// decode fills in any category the stored document is missing.
func decode(data []byte) (*models.Tournament, error) {
	var t models.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tournament: %w", err)
	}
	return t.Clone(), nil
}
