package services

import (
	"context"
	"io"

	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/state"
)

// TournamentServicer defines the admin commands on the tournament
type TournamentServicer interface {
	Snapshot(ctx context.Context) *models.Tournament
	Category(ctx context.Context, key models.CategoryKey) (*models.CategoryData, error)
	ImportRoster(ctx context.Context, key models.CategoryKey, r io.Reader, filename, contentType string) (*ImportResult, error)
	ImportTeams(ctx context.Context, key models.CategoryKey, teams []models.Team) (*ImportResult, error)
	UpdateMatch(ctx context.Context, key models.CategoryKey, matchID string, u state.MatchUpdate) (*models.CategoryData, error)
	SetWinner(ctx context.Context, key models.CategoryKey, matchID string, winnerID *string) (*models.CategoryData, error)
	ReorderMatches(ctx context.Context, key models.CategoryKey, ids []string) (*models.CategoryData, error)
	SeedBracket(ctx context.Context, key models.CategoryKey, req SeedRequest) (*SeedResponse, error)
	Variant(ctx context.Context, key models.CategoryKey) (string, error)
	SetVariant(ctx context.Context, key models.CategoryKey, variant string) error
	Simulate(ctx context.Context, key models.CategoryKey) (*models.CategoryData, error)
	ClearCategory(ctx context.Context, key models.CategoryKey) (*models.CategoryData, error)
	Reset(ctx context.Context) *models.Tournament
	Replace(ctx context.Context, t *models.Tournament) (*models.Tournament, error)
	Audit(ctx context.Context, category string, limit int) ([]models.AuditEntry, error)
}

// ResultsServicer defines the read-only views shown on the public dashboard
type ResultsServicer interface {
	Standings(ctx context.Context, key models.CategoryKey) ([]GroupStanding, error)
	Matches(ctx context.Context, key models.CategoryKey) ([]MatchView, error)
	Bracket(ctx context.Context, key models.CategoryKey) (*BracketView, error)
	Podium(ctx context.Context, key models.CategoryKey) (*PodiumView, error)
	Summary(ctx context.Context) (*TournamentSummary, error)
	EventName(ctx context.Context) string
}

// SyncServicer defines persistence and remote synchronisation operations
type SyncServicer interface {
	Status(ctx context.Context) SyncStatus
	Upload(ctx context.Context) (SyncStatus, error)
	Pull(ctx context.Context) (*models.Tournament, error)
	InitialLoad(ctx context.Context) (string, error)
}

// Ensure concrete types implement interfaces
var (
	_ TournamentServicer = (*TournamentService)(nil)
	_ ResultsServicer    = (*ResultsService)(nil)
	_ SyncServicer       = (*SyncService)(nil)
)
