package services

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/abrezinsky/picklecup/internal/engine"
	apperrors "github.com/abrezinsky/picklecup/internal/errors"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/repository"
	"github.com/abrezinsky/picklecup/internal/roster"
	"github.com/abrezinsky/picklecup/internal/state"
)

// TournamentServiceRepository defines the repository methods needed by TournamentService
type TournamentServiceRepository interface {
	repository.SettingsRepository
	repository.AuditRepository
}

// TournamentService runs admin commands against the state container and
// records each one in the activity log.
type TournamentService struct {
	log       logger.Logger
	container *state.Container
	repo      TournamentServiceRepository
}

// NewTournamentService creates a new TournamentService
func NewTournamentService(log logger.Logger, container *state.Container, repo TournamentServiceRepository) *TournamentService {
	return &TournamentService{log: log, container: container, repo: repo}
}

// ImportResult reports the outcome of a roster import
type ImportResult struct {
	Category  *models.CategoryData `json:"category"`
	Imported  int                  `json:"imported"`
	RowErrors []roster.RowError    `json:"rowErrors"`
}

// SeedRequest selects how a bracket is seeded. A nil Variant uses the
// variant stored for the category.
type SeedRequest struct {
	Variant     *string `json:"variant"`
	Provisional bool    `json:"provisional"`
}

// SeedResponse is the seeded category and what changed
type SeedResponse struct {
	Category *models.CategoryData `json:"category"`
	Variant  string               `json:"variant"`
	Result   engine.SeedResult    `json:"result"`
}

func (s *TournamentService) Snapshot(ctx context.Context) *models.Tournament {
	return s.container.Snapshot()
}

func (s *TournamentService) Category(ctx context.Context, key models.CategoryKey) (*models.CategoryData, error) {
	return s.container.Category(key)
}

// ImportRoster parses an uploaded entry sheet (.xlsx or CSV) and imports the
// valid rows. Bad rows are reported, not fatal.
func (s *TournamentService) ImportRoster(ctx context.Context, key models.CategoryKey, r io.Reader, filename, contentType string) (*ImportResult, error) {
	parsed, err := roster.Read(r, filename, contentType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidInput, "could not read roster")
	}
	res, err := s.ImportTeams(ctx, key, parsed.Teams)
	if res != nil {
		res.RowErrors = append(parsed.RowErrors, res.RowErrors...)
	}
	return res, err
}

// ImportTeams replaces the roster of a category and schedules its group stage.
// Teams without a first player or with a repeated ID are skipped and reported.
func (s *TournamentService) ImportTeams(ctx context.Context, key models.CategoryKey, teams []models.Team) (*ImportResult, error) {
	kept, skipped := roster.Clean(teams)
	if len(kept) == 0 {
		if !key.Valid() {
			return nil, apperrors.NotFoundf("category %q not found", key)
		}
		return &ImportResult{RowErrors: skipped}, ErrEmptyRoster
	}
	cat, err := s.container.ImportTeams(key, kept)
	if err != nil {
		return nil, err
	}
	s.log.Info("Roster imported", "category", key, "teams", len(cat.Teams), "groups", len(cat.Groups), "matches", len(cat.Matches), "skipped", len(skipped))
	s.audit(ctx, models.AuditEntry{
		Category: string(key),
		Action:   "import",
		Detail:   auditDetail("%d teams, %d groups, %d matches", len(cat.Teams), len(cat.Groups), len(cat.Matches)),
	})
	return &ImportResult{Category: cat, Imported: len(cat.Teams), RowErrors: skipped}, nil
}

// UpdateMatch applies an admin edit to one match
func (s *TournamentService) UpdateMatch(ctx context.Context, key models.CategoryKey, matchID string, u state.MatchUpdate) (*models.CategoryData, error) {
	cat, err := s.container.UpdateMatch(key, matchID, u)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditEntry{Category: string(key), MatchID: matchID, Action: "update", Detail: describeUpdate(cat, matchID, u)})
	return cat, nil
}

// SetWinner forces or clears the winner of a match
func (s *TournamentService) SetWinner(ctx context.Context, key models.CategoryKey, matchID string, winnerID *string) (*models.CategoryData, error) {
	cat, err := s.container.SetWinner(key, matchID, winnerID)
	if err != nil {
		return nil, err
	}
	detail := "cleared"
	if winnerID != nil {
		detail = teamLabel(cat, *winnerID)
	}
	s.audit(ctx, models.AuditEntry{Category: string(key), MatchID: matchID, Action: "winner", Detail: detail})
	return cat, nil
}

func (s *TournamentService) ReorderMatches(ctx context.Context, key models.CategoryKey, ids []string) (*models.CategoryData, error) {
	cat, err := s.container.ReorderMatches(key, ids)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditEntry{Category: string(key), Action: "reorder", Detail: auditDetail("%d matches", len(ids))})
	return cat, nil
}

// SeedBracket creates or refreshes the knockout matches of a category
func (s *TournamentService) SeedBracket(ctx context.Context, key models.CategoryKey, req SeedRequest) (*SeedResponse, error) {
	if !key.Valid() {
		return nil, apperrors.NotFoundf("category %q not found", key)
	}
	var variant string
	if req.Variant != nil {
		variant = strings.TrimSpace(*req.Variant)
		if !slices.Contains(engine.Variants(key), variant) {
			return nil, unknownVariant(key, variant)
		}
	} else {
		v, err := s.Variant(ctx, key)
		if err != nil {
			return nil, err
		}
		variant = v
	}

	cat, res, err := s.container.SeedBracket(key, engine.SeedOptions{Variant: variant, Provisional: req.Provisional})
	if err != nil {
		return nil, err
	}
	s.log.Info("Bracket seeded", "category", key, "variant", variant,
		"created", len(res.Created), "updated", len(res.Updated), "locked", len(res.Locked))
	if res.Changed() {
		s.audit(ctx, models.AuditEntry{
			Category: string(key),
			Action:   "seed",
			Detail:   auditDetail("created %s; updated %s", joinNotes(res.Created), joinNotes(res.Updated)),
		})
	}
	return &SeedResponse{Category: cat, Variant: variant, Result: res}, nil
}

// Variant returns the stored bracket variant of a category
func (s *TournamentService) Variant(ctx context.Context, key models.CategoryKey) (string, error) {
	return variantFor(ctx, s.repo, key)
}

func (s *TournamentService) SetVariant(ctx context.Context, key models.CategoryKey, variant string) error {
	if !key.Valid() {
		return apperrors.NotFoundf("category %q not found", key)
	}
	variant = strings.TrimSpace(variant)
	if !slices.Contains(engine.Variants(key), variant) {
		return unknownVariant(key, variant)
	}
	if err := s.repo.SetSetting(ctx, repository.VariantSettingKey(key), variant); err != nil {
		return apperrors.Internal(err)
	}
	s.audit(ctx, models.AuditEntry{Category: string(key), Action: "variant", Detail: variantLabel(variant)})
	return nil
}

// Simulate fills open group matches with random results for rehearsals
func (s *TournamentService) Simulate(ctx context.Context, key models.CategoryKey) (*models.CategoryData, error) {
	cat, err := s.container.SimulateResults(key)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditEntry{Category: string(key), Action: "simulate"})
	return cat, nil
}

func (s *TournamentService) ClearCategory(ctx context.Context, key models.CategoryKey) (*models.CategoryData, error) {
	cat, err := s.container.ClearCategory(key)
	if err != nil {
		return nil, err
	}
	s.log.Warn("Category cleared", "category", key)
	s.audit(ctx, models.AuditEntry{Category: string(key), Action: "clear"})
	return cat, nil
}

func (s *TournamentService) Reset(ctx context.Context) *models.Tournament {
	t := s.container.Reset()
	s.log.Warn("Tournament reset")
	s.audit(ctx, models.AuditEntry{Category: "*", Action: "reset"})
	return t
}

// Replace swaps in an uploaded snapshot. Unknown category keys are dropped.
func (s *TournamentService) Replace(ctx context.Context, t *models.Tournament) (*models.Tournament, error) {
	if t == nil {
		return nil, ErrNilTournament
	}
	known := 0
	for key := range t.Categories {
		if key.Valid() {
			known++
		}
	}
	if known == 0 {
		return nil, ErrNoCategoryKeys
	}
	out := s.container.Replace(t, state.SourceLocal)
	s.audit(ctx, models.AuditEntry{Category: "*", Action: "replace", Detail: auditDetail("%d categories", known)})
	return out, nil
}

// Audit lists recent admin actions, newest first
func (s *TournamentService) Audit(ctx context.Context, category string, limit int) ([]models.AuditEntry, error) {
	entries, err := s.repo.ListAudit(ctx, category, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// audit records an entry. A failed write is logged and never fails the command.
func (s *TournamentService) audit(ctx context.Context, e models.AuditEntry) {
	if err := s.repo.RecordAudit(ctx, e); err != nil {
		s.log.Warn("Failed to record audit entry", "action", e.Action, "category", e.Category, "error", err)
	}
}

// variantFor reads the stored variant, falling back to the default.
func variantFor(ctx context.Context, repo repository.SettingsRepository, key models.CategoryKey) (string, error) {
	if !key.Valid() {
		return "", apperrors.NotFoundf("category %q not found", key)
	}
	v, err := repo.GetSetting(ctx, repository.VariantSettingKey(key))
	if errors.Is(err, repository.ErrNotFound) {
		return engine.VariantDefault, nil
	}
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if !slices.Contains(engine.Variants(key), v) {
		return engine.VariantDefault, nil
	}
	return v, nil
}

func variantLabel(v string) string {
	if v == engine.VariantDefault {
		return "default"
	}
	return v
}

func joinNotes(notes []string) string {
	if len(notes) == 0 {
		return "-"
	}
	return strings.Join(notes, ",")
}

func teamLabel(cat *models.CategoryData, id string) string {
	if t, ok := cat.Team(id); ok {
		return t.DisplayName()
	}
	return id
}

func describeUpdate(cat *models.CategoryData, matchID string, u state.MatchUpdate) string {
	var parts []string
	if u.Score != nil {
		sc := u.Score
		parts = append(parts, auditDetail("score %d-%d %d-%d %d-%d",
			sc.Set1.A, sc.Set1.B, sc.Set2.A, sc.Set2.B, sc.Set3.A, sc.Set3.B))
	}
	if u.TeamAID != nil || u.TeamBID != nil {
		if i := cat.MatchIndex(matchID); i >= 0 {
			m := cat.Matches[i]
			parts = append(parts, auditDetail("teams %s vs %s",
				teamLabel(cat, models.StrValue(m.TeamAID)), teamLabel(cat, models.StrValue(m.TeamBID))))
		}
	}
	if u.Time != nil {
		parts = append(parts, "time "+*u.Time)
	}
	if u.Court != nil {
		parts = append(parts, "court "+*u.Court)
	}
	if u.MatchNumber != nil {
		parts = append(parts, auditDetail("number %d", *u.MatchNumber))
	}
	if u.IsStarred != nil {
		parts = append(parts, auditDetail("starred %t", *u.IsStarred))
	}
	return strings.Join(parts, "; ")
}
