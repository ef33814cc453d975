package services_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/repository/mock"
	"github.com/abrezinsky/picklecup/internal/services"
	"github.com/abrezinsky/picklecup/internal/state"
	"github.com/abrezinsky/picklecup/internal/testutil"
)

type fixture struct {
	container *state.Container
	repo      *mock.Repository
	svc       *services.TournamentService
	results   *services.ResultsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := state.New(state.WithRand(rand.New(rand.NewSource(7))))
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	log := testutil.NewQuietLogger()
	return &fixture{
		container: c,
		repo:      repo,
		svc:       services.NewTournamentService(log, c, repo),
		results:   services.NewResultsService(log, c, repo),
	}
}

// playGroups imports n teams into key and finishes every group match.
func (f *fixture) playGroups(t *testing.T, key models.CategoryKey, n int) *models.CategoryData {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.ImportTeams(ctx, key, testutil.Roster(n)); err != nil {
		t.Fatalf("ImportTeams: %v", err)
	}
	cat, err := f.svc.Simulate(ctx, key)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	return cat
}

// finish scores the knockout match with the given note as a straight win for side A.
func (f *fixture) finish(t *testing.T, key models.CategoryKey, note string) *models.CategoryData {
	t.Helper()
	ctx := context.Background()
	cat, _ := f.container.Category(key)
	for _, m := range cat.Matches {
		if m.Note != note {
			continue
		}
		score := models.MatchScore{Set1: models.SetScore{A: 11, B: 6}, Set2: models.SetScore{A: 11, B: 8}}
		out, err := f.svc.UpdateMatch(ctx, key, m.ID, state.MatchUpdate{Score: &score})
		if err != nil {
			t.Fatalf("UpdateMatch %s: %v", note, err)
		}
		return out
	}
	t.Fatalf("no match with note %s", note)
	return nil
}

func matchByNote(cat *models.CategoryData, note string) (models.Match, bool) {
	for _, m := range cat.Matches {
		if m.Note == note {
			return m, true
		}
	}
	return models.Match{}, false
}
