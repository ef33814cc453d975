package engine

import (
	"github.com/google/uuid"

	"github.com/abrezinsky/picklecup/internal/models"
)

// SeedOptions tunes a seeding pass.
type SeedOptions struct {
	Variant string
	// Provisional fills group places from current standings even while the group
	// still has unfinished matches.
	Provisional bool
}

// SeedResult lists the note codes touched by a seeding pass.
type SeedResult struct {
	Created   []string `json:"created"`
	Updated   []string `json:"updated"`
	Unchanged []string `json:"unchanged"`
	// Locked holds finished matches, which seeding never modifies.
	Locked    []string            `json:"locked"`
	Wildcards []WildcardCandidate `json:"wildcards,omitempty"`
}

// Changed reports whether the pass created or updated any match.
func (r SeedResult) Changed() bool {
	return len(r.Created) > 0 || len(r.Updated) > 0
}

// Seed creates or updates the knockout matches of a category from its scheme and
// returns the new category; cat is not modified.
//
// Matches are found by note code. A finished match is left alone. An unfinished
// match takes every team the pass could determine and keeps its current team
// where the pass could not. Missing matches are appended.
func Seed(cat *models.CategoryData, opts SeedOptions) (*models.CategoryData, SeedResult) {
	out := cat.Clone()
	var res SeedResult

	scheme, ok := SchemeFor(out.Key, opts.Variant)
	if !ok {
		return out, res
	}

	r := &resolver{cat: out, scheme: scheme, opts: opts}
	res.Wildcards = r.wildcards()

	groupMatches := 0
	for _, m := range out.Matches {
		if !m.IsKnockout() {
			groupMatches++
		}
	}
	defaultTime, defaultCourt := KnockoutDefaults(out.Key)

	for i, slot := range scheme.Slots {
		teamA, teamB := r.resolve(slot.A), r.resolve(slot.B)

		idx := knockoutIndex(out.Matches, slot.Note)
		if idx < 0 {
			out.Matches = append(out.Matches, models.Match{
				ID:          uuid.NewString(),
				TeamAID:     teamA,
				TeamBID:     teamB,
				RoundName:   slot.RoundName,
				Category:    out.Key,
				Note:        slot.Note,
				MatchNumber: groupMatches + i + 1,
				Time:        defaultTime,
				Court:       defaultCourt,
			})
			res.Created = append(res.Created, slot.Note)
			continue
		}

		existing := out.Matches[idx]
		if existing.IsFinished {
			res.Locked = append(res.Locked, slot.Note)
			continue
		}
		if teamA == nil {
			teamA = existing.TeamAID
		}
		if teamB == nil {
			teamB = existing.TeamBID
		}
		if sameID(teamA, existing.TeamAID) && sameID(teamB, existing.TeamBID) {
			res.Unchanged = append(res.Unchanged, slot.Note)
			continue
		}
		out.Matches[idx] = SetTeams(existing, teamA, teamB)
		res.Updated = append(res.Updated, slot.Note)
	}
	return out, res
}

func knockoutIndex(matches []models.Match, note string) int {
	for i, m := range matches {
		if m.IsKnockout() && m.Note == note {
			return i
		}
	}
	return -1
}

// resolver turns slot sources into team IDs against one category snapshot.
type resolver struct {
	cat    *models.CategoryData
	scheme Scheme
	opts   SeedOptions

	standings map[string][]models.Team
	picks     []WildcardCandidate
	picked    bool
}

// groupStandings returns the standings of a group, or nil when the group is
// missing or not yet complete.
func (r *resolver) groupStandings(name string) []models.Team {
	if s, ok := r.standings[name]; ok {
		return s
	}
	if r.standings == nil {
		r.standings = make(map[string][]models.Team)
	}

	var s []models.Team
	if g, ok := r.cat.GroupByName(name); ok {
		if r.opts.Provisional || GroupComplete(r.cat.Matches, g.ID) {
			s = Rank(r.cat.Teams, r.cat.Matches, g.ID)
		}
	}
	r.standings[name] = s
	return s
}

// wildcards picks the best third-placed teams once every group of the scheme is
// complete, swapping them when one would meet its own group winner.
func (r *resolver) wildcards() []WildcardCandidate {
	if r.picked {
		return r.picks
	}
	r.picked = true
	if r.scheme.Wildcards == 0 {
		return nil
	}
	// Provisional standings never pick wildcards.
	for _, name := range r.scheme.Groups {
		g, ok := r.cat.GroupByName(name)
		if !ok || !GroupComplete(r.cat.Matches, g.ID) {
			return nil
		}
	}

	all := AdjustedThirdPlace(r.cat, r.scheme.Groups)
	if len(all) < r.scheme.Wildcards {
		return nil
	}
	picks := append([]WildcardCandidate(nil), all[:r.scheme.Wildcards]...)
	if len(picks) == 2 && wildcardClash(r.scheme, picks) {
		picks[0], picks[1] = picks[1], picks[0]
	}
	r.picks = picks
	return picks
}

func (r *resolver) resolve(src SlotSource) *string {
	switch src.Kind {
	case SourceGroupRank:
		s := r.groupStandings(src.Group)
		if src.Rank < 1 || src.Rank > len(s) {
			return nil
		}
		return models.Str(s[src.Rank-1].ID)
	case SourceWildcard:
		picks := r.wildcards()
		if src.Index < 1 || src.Index > len(picks) {
			return nil
		}
		return models.Str(picks[src.Index-1].Team.ID)
	case SourceWinnerOf:
		idx := knockoutIndex(r.cat.Matches, src.Note)
		if idx < 0 {
			return nil
		}
		m := r.cat.Matches[idx]
		if !m.IsFinished || m.WinnerID == nil {
			return nil
		}
		return models.Str(*m.WinnerID)
	default:
		return nil
	}
}
