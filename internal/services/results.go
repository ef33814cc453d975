package services

import (
	"context"
	"errors"
	"sort"

	"github.com/abrezinsky/picklecup/internal/engine"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/repository"
	"github.com/abrezinsky/picklecup/internal/state"
)

// ResultsService builds the read models shown on the scoreboard
type ResultsService struct {
	log       logger.Logger
	container *state.Container
	repo      repository.SettingsRepository
}

// NewResultsService creates a new ResultsService
func NewResultsService(log logger.Logger, container *state.Container, repo repository.SettingsRepository) *ResultsService {
	return &ResultsService{log: log, container: container, repo: repo}
}

// GroupStanding is the ranked table of one group
type GroupStanding struct {
	GroupID  string        `json:"groupId"`
	Name     string        `json:"name"`
	Teams    []models.Team `json:"teams"`
	Played   int           `json:"played"`
	Total    int           `json:"total"`
	Complete bool          `json:"complete"`
}

// MatchView is a match with its teams resolved. A team that cannot be found
// leaves its side nil and the match undetermined.
type MatchView struct {
	models.Match
	TeamA *models.Team `json:"teamA"`
	TeamB *models.Team `json:"teamB"`
	State string       `json:"state"`
	Rule  string       `json:"rule"`
}

// BracketSlot is one knockout match of the scheme, whether or not it exists yet
type BracketSlot struct {
	Note      string     `json:"note"`
	RoundName string     `json:"roundName"`
	SourceA   string     `json:"sourceA"`
	SourceB   string     `json:"sourceB"`
	Match     *MatchView `json:"match"`
}

// BracketView is the knockout stage of a category
type BracketView struct {
	Category  models.CategoryKey         `json:"category"`
	Variant   string                     `json:"variant"`
	Variants  []string                   `json:"variants"`
	Slots     []BracketSlot              `json:"slots"`
	Wildcards []engine.WildcardCandidate `json:"wildcards,omitempty"`
	Seeded    bool                       `json:"seeded"`
}

// PodiumView is the final placing, once decided
type PodiumView struct {
	Category models.CategoryKey `json:"category"`
	Decided  bool               `json:"decided"`
	engine.Podium
}

// CategorySummary is one tile of the rotating dashboard
type CategorySummary struct {
	Key             models.CategoryKey `json:"key"`
	Name            string             `json:"name"`
	Teams           int                `json:"teams"`
	Groups          int                `json:"groups"`
	GroupMatches    int                `json:"groupMatches"`
	GroupFinished   int                `json:"groupFinished"`
	KnockoutMatches int                `json:"knockoutMatches"`
	KnockoutDone    int                `json:"knockoutFinished"`
	Progress        int                `json:"progress"`
	Champion        string             `json:"champion,omitempty"`
}

// TournamentSummary covers every category in display order
type TournamentSummary struct {
	EventName  string            `json:"eventName"`
	Categories []CategorySummary `json:"categories"`
}

// Standings ranks every group of a category, in group name order
func (s *ResultsService) Standings(ctx context.Context, key models.CategoryKey) ([]GroupStanding, error) {
	cat, err := s.container.Category(key)
	if err != nil {
		return nil, err
	}
	return standingsOf(cat), nil
}

func standingsOf(cat *models.CategoryData) []GroupStanding {
	groups := append([]models.Group(nil), cat.Groups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	out := make([]GroupStanding, 0, len(groups))
	for _, g := range groups {
		gs := GroupStanding{
			GroupID:  g.ID,
			Name:     g.Name,
			Teams:    engine.Rank(cat.Teams, cat.Matches, g.ID),
			Complete: engine.GroupComplete(cat.Matches, g.ID),
		}
		for _, m := range cat.Matches {
			if m.GroupID != g.ID {
				continue
			}
			gs.Total++
			if m.IsFinished {
				gs.Played++
			}
		}
		out = append(out, gs)
	}
	return out
}

// Matches lists every match of a category in schedule order
func (s *ResultsService) Matches(ctx context.Context, key models.CategoryKey) ([]MatchView, error) {
	cat, err := s.container.Category(key)
	if err != nil {
		return nil, err
	}
	views := make([]MatchView, 0, len(cat.Matches))
	for _, m := range cat.Matches {
		views = append(views, viewOf(cat, m))
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].MatchNumber < views[j].MatchNumber })
	return views, nil
}

func viewOf(cat *models.CategoryData, m models.Match) MatchView {
	v := MatchView{Match: m, Rule: engine.RuleFor(m).String()}
	if m.TeamAID != nil {
		v.TeamA = lookup(cat, *m.TeamAID)
	}
	if m.TeamBID != nil {
		v.TeamB = lookup(cat, *m.TeamBID)
	}
	if v.TeamA == nil || v.TeamB == nil {
		v.State = engine.StateUndetermined.String()
	} else {
		v.State = engine.StateOf(m).String()
	}
	return v
}

func lookup(cat *models.CategoryData, id string) *models.Team {
	if t, ok := cat.Team(id); ok {
		return &t
	}
	return nil
}

// Bracket lays the knockout matches over the scheme of the stored variant
func (s *ResultsService) Bracket(ctx context.Context, key models.CategoryKey) (*BracketView, error) {
	cat, err := s.container.Category(key)
	if err != nil {
		return nil, err
	}
	variant, err := variantFor(ctx, s.repo, key)
	if err != nil {
		return nil, err
	}
	scheme, _ := engine.SchemeFor(key, variant)

	view := &BracketView{
		Category: key,
		Variant:  variant,
		Variants: engine.Variants(key),
		Slots:    make([]BracketSlot, 0, len(scheme.Slots)),
	}
	for _, spec := range scheme.Slots {
		slot := BracketSlot{
			Note:      spec.Note,
			RoundName: spec.RoundName,
			SourceA:   spec.A.String(),
			SourceB:   spec.B.String(),
		}
		for _, m := range cat.Matches {
			if m.IsKnockout() && m.Note == spec.Note {
				mv := viewOf(cat, m)
				slot.Match = &mv
				view.Seeded = true
				break
			}
		}
		view.Slots = append(view.Slots, slot)
	}
	if scheme.Wildcards > 0 {
		view.Wildcards = engine.AdjustedThirdPlace(cat, scheme.Groups)
	}
	return view, nil
}

func (s *ResultsService) Podium(ctx context.Context, key models.CategoryKey) (*PodiumView, error) {
	cat, err := s.container.Category(key)
	if err != nil {
		return nil, err
	}
	p, ok := engine.PodiumFor(cat)
	view := &PodiumView{Category: key, Decided: ok, Podium: p}
	if view.ThirdPlace == nil {
		view.ThirdPlace = []models.Team{}
	}
	return view, nil
}

// Summary reports progress of every category for the rotating dashboard
func (s *ResultsService) Summary(ctx context.Context) (*TournamentSummary, error) {
	t := s.container.Snapshot()
	out := &TournamentSummary{
		EventName:  s.EventName(ctx),
		Categories: make([]CategorySummary, 0, len(models.AllCategories)),
	}
	for _, key := range models.AllCategories {
		out.Categories = append(out.Categories, summaryOf(t.Categories[key]))
	}
	return out, nil
}

func summaryOf(cat *models.CategoryData) CategorySummary {
	cs := CategorySummary{
		Key:    cat.Key,
		Name:   cat.Name,
		Teams:  len(cat.Teams),
		Groups: len(cat.Groups),
	}
	for _, m := range cat.Matches {
		if m.IsKnockout() {
			cs.KnockoutMatches++
			if m.IsFinished {
				cs.KnockoutDone++
			}
			continue
		}
		cs.GroupMatches++
		if m.IsFinished {
			cs.GroupFinished++
		}
	}
	if total := cs.GroupMatches + cs.KnockoutMatches; total > 0 {
		cs.Progress = (cs.GroupFinished + cs.KnockoutDone) * 100 / total
	}
	if p, ok := engine.PodiumFor(cat); ok && p.Champion != nil {
		cs.Champion = p.Champion.DisplayName()
	}
	return cs
}

// EventName returns the configured event title
func (s *ResultsService) EventName(ctx context.Context) string {
	name, err := s.repo.GetSetting(ctx, repository.SettingEventName)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Failed to read event name", "error", err)
		}
		return "Giải Pickleball"
	}
	return name
}
