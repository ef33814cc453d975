package engine

import (
	"strings"

	"github.com/abrezinsky/picklecup/internal/models"
)

// State is the lifecycle position of a single match.
type State int

const (
	// StateUndetermined means at least one team slot is still empty.
	StateUndetermined State = iota
	StateScheduled
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateFinished:
		return "finished"
	default:
		return "undetermined"
	}
}

// StateOf reports the state of m.
func StateOf(m models.Match) State {
	if m.TeamAID == nil || m.TeamBID == nil {
		return StateUndetermined
	}
	if m.IsFinished {
		return StateFinished
	}
	return StateScheduled
}

// WinRule selects how the winner is derived from the score.
type WinRule int

const (
	BestOfOne WinRule = iota
	BestOfThree
)

func (r WinRule) String() string {
	if r == BestOfThree {
		return "best-of-3"
	}
	return "best-of-1"
}

// RuleFor returns best-of-3 for the final and best-of-1 for every other round.
func RuleFor(m models.Match) WinRule {
	if m.Note == models.NoteFinal || strings.Contains(strings.ToLower(m.RoundName), "chung kết") {
		return BestOfThree
	}
	return BestOfOne
}

// Side identifies which team of a match a result belongs to.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

// Decide applies rule to score. SideNone means no winner yet.
func Decide(rule WinRule, score models.MatchScore) Side {
	if rule == BestOfOne {
		return setWinner(score.Set1)
	}

	var winsA, winsB int
	for _, set := range score.Sets() {
		switch setWinner(set) {
		case SideA:
			winsA++
		case SideB:
			winsB++
		}
		if winsA == 2 {
			return SideA
		}
		if winsB == 2 {
			return SideB
		}
	}
	return SideNone
}

func setWinner(s models.SetScore) Side {
	switch {
	case s.A > s.B:
		return SideA
	case s.B > s.A:
		return SideB
	default:
		return SideNone
	}
}

// Recompute derives IsFinished and WinnerID from the score. Matches carrying a
// manual override keep their forced result.
func Recompute(m models.Match) models.Match {
	if m.Override {
		return m
	}
	if StateOf(m) == StateUndetermined {
		m.IsFinished = false
		m.WinnerID = nil
		return m
	}

	switch Decide(RuleFor(m), m.Score) {
	case SideA:
		m.IsFinished = true
		m.WinnerID = models.Str(*m.TeamAID)
	case SideB:
		m.IsFinished = true
		m.WinnerID = models.Str(*m.TeamBID)
	default:
		m.IsFinished = false
		m.WinnerID = nil
	}
	return m
}

// ApplyScore stores a new score, drops any manual override and re-derives the result.
// This is also how a finished match is re-opened.
func ApplyScore(m models.Match, score models.MatchScore) models.Match {
	m = m.Clone()
	m.Score = score
	m.Override = false
	return Recompute(m)
}

// ApplyOverride forces winnerID as the result regardless of the score. A nil
// winnerID force-clears the result. It reports false when winnerID is not one of
// the match's two teams.
func ApplyOverride(m models.Match, winnerID *string) (models.Match, bool) {
	m = m.Clone()
	if winnerID == nil {
		m.WinnerID = nil
		m.IsFinished = false
		m.Override = true
		return m, true
	}
	if !m.Involves(*winnerID) {
		return m, false
	}
	m.WinnerID = models.Str(*winnerID)
	m.IsFinished = true
	m.Override = true
	return m, true
}

// SetTeams replaces the team slots of a match. An override whose winner left the
// match is dropped, then the result is re-derived from the score.
func SetTeams(m models.Match, teamA, teamB *string) models.Match {
	m = m.Clone()
	m.TeamAID = cloneID(teamA)
	m.TeamBID = cloneID(teamB)
	if m.Override && m.WinnerID != nil && !m.Involves(*m.WinnerID) {
		m.Override = false
	}
	return Recompute(m)
}

func cloneID(p *string) *string {
	if p == nil {
		return nil
	}
	return models.Str(*p)
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
