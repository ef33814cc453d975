package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/repository"
)

// NewTestRepository creates a fresh in-memory repository with migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// NewQuietLogger returns a logger that discards output.
func NewQuietLogger() *logger.SlogLogger {
	return logger.NewWithWriter(io.Discard, slog.LevelError)
}

// Roster returns n teams without IDs, ready for import.
func Roster(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{
			Name1: "Player " + string(rune('A'+i%26)),
			Name2: "Partner " + string(rune('A'+i%26)),
			Org:   "Điện lực",
		}
	}
	return teams
}
