// Package state holds the tournament snapshot and the commands that change it.
package state

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/picklecup/internal/engine"
	apperrors "github.com/abrezinsky/picklecup/internal/errors"
	"github.com/abrezinsky/picklecup/internal/models"
)

// Source tells subscribers where a change came from.
type Source int

const (
	SourceLocal Source = iota
	// SourceRemote marks snapshots pushed in from a remote store.
	SourceRemote
)

func (s Source) String() string {
	if s == SourceRemote {
		return "remote"
	}
	return "local"
}

// EventKind names the command that produced an event.
type EventKind string

const (
	EventImported     EventKind = "imported"
	EventMatchUpdated EventKind = "match_updated"
	EventReordered    EventKind = "reordered"
	EventSeeded       EventKind = "seeded"
	EventSimulated    EventKind = "simulated"
	EventCleared      EventKind = "cleared"
	EventReset        EventKind = "reset"
	EventReplaced     EventKind = "replaced"
)

// Event is delivered to subscribers after a command changed the snapshot.
// Category and MatchID are empty for tournament-wide events.
type Event struct {
	Kind     EventKind
	Category models.CategoryKey
	MatchID  string
	Source   Source
}

// Listener receives events. It runs on the caller's goroutine, outside the lock.
type Listener func(Event)

// Container owns the tournament snapshot. All mutations go through its commands,
// which are serialized by a mutex.
type Container struct {
	mu   sync.Mutex
	data *models.Tournament

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	shuffle engine.ShuffleFunc
	intn    func(n int) int
}

// Option configures a Container.
type Option func(*Container)

// WithShuffle sets the function ordering generated group matches.
func WithShuffle(shuffle engine.ShuffleFunc) Option {
	return func(c *Container) { c.shuffle = shuffle }
}

// WithRand sets the random source used for shuffling and simulated results.
// The container serializes its own calls into r.
func WithRand(r *rand.Rand) Option {
	return func(c *Container) {
		lr := &lockedRand{r: r}
		c.shuffle = lr.Shuffle
		c.intn = lr.Intn
	}
}

// lockedRand makes a *rand.Rand safe to share between concurrent commands.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// New creates a container holding the four empty categories.
func New(opts ...Option) *Container {
	lr := &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	c := &Container{
		data:      models.NewTournament(),
		listeners: make(map[int]Listener),
		shuffle:   lr.Shuffle,
		intn:      lr.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers l and returns a function that removes it.
func (c *Container) Subscribe(l Listener) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Container) emit(e Event) {
	c.listenersMu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, c.listeners[id])
	}
	c.listenersMu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

// Snapshot returns a deep copy of the whole tournament.
func (c *Container) Snapshot() *models.Tournament {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Clone()
}

// Category returns a deep copy of one category.
func (c *Container) Category(key models.CategoryKey) (*models.CategoryData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, err := c.category(key)
	if err != nil {
		return nil, err
	}
	return cat.Clone(), nil
}

func (c *Container) category(key models.CategoryKey) (*models.CategoryData, error) {
	if !key.Valid() {
		return nil, apperrors.NotFoundf("category %q not found", key)
	}
	cat, ok := c.data.Categories[key]
	if !ok || cat == nil {
		cat = models.NewCategory(key)
		c.data.Categories[key] = cat
	}
	return cat, nil
}

// mutate runs fn against a working copy of a category and swaps it in when fn
// succeeds. The event is emitted after the lock is released.
func (c *Container) mutate(key models.CategoryKey, e Event, fn func(cat *models.CategoryData) error) (*models.CategoryData, error) {
	c.mu.Lock()
	current, err := c.category(key)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	work := current.Clone()
	if err := fn(work); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.data.Categories[key] = work
	out := work.Clone()
	c.mu.Unlock()

	e.Category = key
	c.emit(e)
	return out, nil
}

// ImportTeams replaces a category's roster, builds its groups and schedules
// every group's round robin. Teams with a group hint join that group, the rest
// are dealt round the groups in order.
func (c *Container) ImportTeams(key models.CategoryKey, teams []models.Team) (*models.CategoryData, error) {
	if len(teams) == 0 {
		return nil, apperrors.Validation("no teams to import")
	}

	roster := make([]models.Team, len(teams))
	seen := make(map[string]bool, len(teams))
	names := make(map[string]bool)
	for _, name := range engine.DefaultGroupNames(key) {
		names[name] = true
	}
	for i, t := range teams {
		if strings.TrimSpace(t.Name1) == "" {
			return nil, apperrors.Validationf("team %d has no player name", i+1)
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if seen[t.ID] {
			return nil, apperrors.Validationf("duplicate team id %q", t.ID)
		}
		seen[t.ID] = true
		t.InitialGroupName = strings.ToUpper(strings.TrimSpace(t.InitialGroupName))
		if t.InitialGroupName != "" {
			names[t.InitialGroupName] = true
		}
		t.GroupID = ""
		t.Stats = nil
		roster[i] = t
	}

	groupNames := make([]string, 0, len(names))
	for name := range names {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	if len(groupNames) == 0 {
		groupNames = []string{"A"}
	}

	groups := make([]models.Group, len(groupNames))
	for i, name := range groupNames {
		groups[i] = models.Group{ID: uuid.NewString(), Name: name, TeamIDs: []string{}}
	}

	for i := range roster {
		target := i % len(groups)
		if hint := roster[i].InitialGroupName; hint != "" {
			for gi := range groups {
				if groups[gi].Name == hint {
					target = gi
					break
				}
			}
		}
		groups[target].TeamIDs = append(groups[target].TeamIDs, roster[i].ID)
		roster[i].GroupID = groups[target].ID
	}

	c.mu.Lock()
	shuffle := c.shuffle
	c.mu.Unlock()

	matches := []models.Match{}
	for _, g := range groups {
		matches = append(matches, engine.Generate(g, key, shuffle)...)
	}
	engine.AssignSlots(matches, engine.ConfigFor(key))

	return c.mutate(key, Event{Kind: EventImported, Source: SourceLocal}, func(cat *models.CategoryData) error {
		cat.Teams = roster
		cat.Groups = groups
		cat.Matches = matches
		return nil
	})
}

// MatchUpdate carries the fields of an admin edit. Nil fields are left alone.
// An empty team ID clears that slot.
type MatchUpdate struct {
	Score       *models.MatchScore
	Time        *string
	Court       *string
	MatchNumber *int
	IsStarred   *bool
	TeamAID     *string
	TeamBID     *string
}

// UpdateMatch applies an admin edit. Team slots can only be edited on knockout
// matches. A new score re-derives the result and drops any manual override.
func (c *Container) UpdateMatch(key models.CategoryKey, id string, u MatchUpdate) (*models.CategoryData, error) {
	return c.mutate(key, Event{Kind: EventMatchUpdated, MatchID: id, Source: SourceLocal}, func(cat *models.CategoryData) error {
		idx := cat.MatchIndex(id)
		if idx < 0 {
			return apperrors.NotFoundf("match %q not found", id)
		}
		m := cat.Matches[idx]

		if u.TeamAID != nil || u.TeamBID != nil {
			if !m.IsKnockout() {
				return apperrors.Validation("teams of a group match cannot be changed")
			}
			teamA, err := slotValue(cat, m.TeamAID, u.TeamAID)
			if err != nil {
				return err
			}
			teamB, err := slotValue(cat, m.TeamBID, u.TeamBID)
			if err != nil {
				return err
			}
			if teamA != nil && teamB != nil && *teamA == *teamB {
				return apperrors.Validation("a team cannot play itself")
			}
			m = engine.SetTeams(m, teamA, teamB)
		}

		if u.Score != nil {
			for _, set := range u.Score.Sets() {
				if set.A < 0 || set.B < 0 {
					return apperrors.Validation("scores cannot be negative")
				}
			}
			m = engine.ApplyScore(m, *u.Score)
		}
		if u.Time != nil {
			m.Time = strings.TrimSpace(*u.Time)
		}
		if u.Court != nil {
			m.Court = strings.TrimSpace(*u.Court)
		}
		if u.MatchNumber != nil {
			if *u.MatchNumber < 0 {
				return apperrors.Validation("match number cannot be negative")
			}
			m.MatchNumber = *u.MatchNumber
		}
		if u.IsStarred != nil {
			m.IsStarred = *u.IsStarred
		}

		cat.Matches[idx] = m
		return nil
	})
}

func slotValue(cat *models.CategoryData, current, update *string) (*string, error) {
	if update == nil {
		return current, nil
	}
	if *update == "" {
		return nil, nil
	}
	if _, ok := cat.Team(*update); !ok {
		return nil, apperrors.Validationf("team %q is not in category %s", *update, cat.Key)
	}
	return models.Str(*update), nil
}

// SetWinner forces the winner of a match, or clears the result when winnerID is nil.
func (c *Container) SetWinner(key models.CategoryKey, id string, winnerID *string) (*models.CategoryData, error) {
	return c.mutate(key, Event{Kind: EventMatchUpdated, MatchID: id, Source: SourceLocal}, func(cat *models.CategoryData) error {
		idx := cat.MatchIndex(id)
		if idx < 0 {
			return apperrors.NotFoundf("match %q not found", id)
		}
		m, ok := engine.ApplyOverride(cat.Matches[idx], winnerID)
		if !ok {
			return apperrors.Validationf("team %q does not play in match %q", models.StrValue(winnerID), id)
		}
		cat.Matches[idx] = m
		return nil
	})
}

// ReorderMatches puts the matches in the given order and renumbers them from 1.
// ids must list every match of the category exactly once.
func (c *Container) ReorderMatches(key models.CategoryKey, ids []string) (*models.CategoryData, error) {
	return c.mutate(key, Event{Kind: EventReordered, Source: SourceLocal}, func(cat *models.CategoryData) error {
		if len(ids) != len(cat.Matches) {
			return apperrors.Validationf("expected %d match ids, got %d", len(cat.Matches), len(ids))
		}
		byID := make(map[string]models.Match, len(cat.Matches))
		for _, m := range cat.Matches {
			byID[m.ID] = m
		}
		ordered := make([]models.Match, 0, len(ids))
		for i, id := range ids {
			m, ok := byID[id]
			if !ok {
				return apperrors.Validationf("unknown or repeated match id %q", id)
			}
			delete(byID, id)
			m.MatchNumber = i + 1
			ordered = append(ordered, m)
		}
		cat.Matches = ordered
		return nil
	})
}

// SeedBracket creates or updates the knockout matches of a category.
func (c *Container) SeedBracket(key models.CategoryKey, opts engine.SeedOptions) (*models.CategoryData, engine.SeedResult, error) {
	var res engine.SeedResult
	cat, err := c.mutate(key, Event{Kind: EventSeeded, Source: SourceLocal}, func(cat *models.CategoryData) error {
		if len(cat.Teams) == 0 {
			return apperrors.Validationf("category %s has no teams", key)
		}
		seeded, r := engine.Seed(cat, opts)
		res = r
		*cat = *seeded
		return nil
	})
	return cat, res, err
}

// SimulateResults fills every open group match with a random decisive set 1,
// where the first team scores 8 to 15 and the second 0 to 9.
func (c *Container) SimulateResults(key models.CategoryKey) (*models.CategoryData, error) {
	return c.mutate(key, Event{Kind: EventSimulated, Source: SourceLocal}, func(cat *models.CategoryData) error {
		if len(cat.Teams) == 0 {
			return apperrors.Validationf("category %s has no teams", key)
		}
		for i, m := range cat.Matches {
			if m.IsKnockout() || m.IsFinished || engine.StateOf(m) == engine.StateUndetermined {
				continue
			}
			a := c.intn(8) + 8
			b := c.intn(10)
			if a == b {
				b--
			}
			score := m.Score
			score.Set1 = models.SetScore{A: a, B: b}
			cat.Matches[i] = engine.ApplyScore(m, score)
		}
		return nil
	})
}

// ClearCategory removes the teams, groups and matches of one category.
func (c *Container) ClearCategory(key models.CategoryKey) (*models.CategoryData, error) {
	return c.mutate(key, Event{Kind: EventCleared, Source: SourceLocal}, func(cat *models.CategoryData) error {
		*cat = *models.NewCategory(key)
		return nil
	})
}

// Reset empties every category.
func (c *Container) Reset() *models.Tournament {
	c.mu.Lock()
	c.data = models.NewTournament()
	out := c.data.Clone()
	c.mu.Unlock()

	c.emit(Event{Kind: EventReset, Source: SourceLocal})
	return out
}

// Replace swaps in a whole snapshot, last writer wins. Remote pushes use
// SourceRemote so autosave does not write them straight back.
func (c *Container) Replace(t *models.Tournament, source Source) *models.Tournament {
	next := t.Clone()
	for key, cat := range next.Categories {
		if !key.Valid() {
			delete(next.Categories, key)
			continue
		}
		cat.Key = key
		if cat.Name == "" {
			cat.Name = key.DisplayName()
		}
	}

	c.mu.Lock()
	c.data = next
	out := c.data.Clone()
	c.mu.Unlock()

	c.emit(Event{Kind: EventReplaced, Source: source})
	return out
}
