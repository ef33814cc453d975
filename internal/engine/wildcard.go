package engine

import (
	"sort"

	"github.com/abrezinsky/picklecup/internal/models"
)

// WildcardMinGroupSize is the group size from which a third-placed team loses its
// result against the last-placed team before wildcards are compared.
const WildcardMinGroupSize = 5

// WildcardCandidate is a group's third-placed team with the stats used for the
// cross-group comparison.
type WildcardCandidate struct {
	Team       models.Team `json:"team"`
	Group      string      `json:"group"`
	Points     int         `json:"points"`
	PointsDiff int         `json:"pointsDiff"`
	Adjusted   bool        `json:"adjusted"`
}

// AdjustedThirdPlace returns the third-placed team of every named group that has
// one, best first: adjusted points, then adjusted point differential, then group name.
func AdjustedThirdPlace(cat *models.CategoryData, groupNames []string) []WildcardCandidate {
	var out []WildcardCandidate
	for _, name := range groupNames {
		group, ok := cat.GroupByName(name)
		if !ok {
			continue
		}
		standings := Rank(cat.Teams, cat.Matches, group.ID)
		if len(standings) < 3 {
			continue
		}

		third := standings[2]
		c := WildcardCandidate{
			Team:       third,
			Group:      name,
			Points:     third.Stats.Points,
			PointsDiff: third.Stats.PointsDiff,
		}

		if len(standings) >= WildcardMinGroupSize {
			last := standings[len(standings)-1]
			if m, ok := finishedBetween(cat.Matches, group.ID, third.ID, last.ID); ok {
				own, opp := m.Score.Totals()
				if models.StrValue(m.TeamAID) != third.ID {
					own, opp = opp, own
				}
				c.PointsDiff -= own - opp
				if models.StrValue(m.WinnerID) == third.ID {
					c.Points -= PointsPerWin
				}
				c.Adjusted = true
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].PointsDiff != out[j].PointsDiff {
			return out[i].PointsDiff > out[j].PointsDiff
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func finishedBetween(matches []models.Match, groupID, a, b string) (models.Match, bool) {
	for _, m := range matches {
		if m.GroupID == groupID && m.IsFinished && m.Involves(a) && m.Involves(b) {
			return m, true
		}
	}
	return models.Match{}, false
}

// wildcardClash reports whether a wildcard would meet the winner of its own group.
func wildcardClash(s Scheme, picks []WildcardCandidate) bool {
	for _, slot := range s.Slots {
		for _, pair := range [][2]SlotSource{{slot.A, slot.B}, {slot.B, slot.A}} {
			wc, other := pair[0], pair[1]
			if wc.Kind != SourceWildcard || other.Kind != SourceGroupRank || other.Rank != 1 {
				continue
			}
			if wc.Index <= len(picks) && picks[wc.Index-1].Group == other.Group {
				return true
			}
		}
	}
	return false
}
