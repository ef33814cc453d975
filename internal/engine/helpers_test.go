package engine_test

import (
	"fmt"

	"github.com/abrezinsky/picklecup/internal/engine"
	"github.com/abrezinsky/picklecup/internal/models"
)

type groupSpec struct {
	name  string
	size  int
	loser int // losing set-1 score; the lower-numbered team always wins 11 to loser
}

// buildCategory creates one group per spec with team IDs like "B3" (third team of
// group B). With complete set, every group match is played and the lower-numbered
// team wins, so team "X1" tops group X, "X2" is second and so on.
func buildCategory(key models.CategoryKey, specs []groupSpec, complete bool) *models.CategoryData {
	cat := models.NewCategory(key)
	for _, spec := range specs {
		g := models.Group{ID: "g-" + spec.name, Name: spec.name}
		for i := 1; i <= spec.size; i++ {
			id := fmt.Sprintf("%s%d", spec.name, i)
			g.TeamIDs = append(g.TeamIDs, id)
			cat.Teams = append(cat.Teams, models.Team{
				ID: id, Name1: id + "-1", Name2: id + "-2", Org: "PC " + spec.name, GroupID: g.ID,
			})
		}
		cat.Groups = append(cat.Groups, g)

		for _, m := range engine.Generate(g, key, nil) {
			if complete {
				m = engine.ApplyScore(m, models.MatchScore{Set1: models.SetScore{A: 11, B: spec.loser}})
			}
			cat.Matches = append(cat.Matches, m)
		}
	}
	return cat
}

func team(id, groupID string) models.Team {
	return models.Team{ID: id, Name1: id, Name2: id, GroupID: groupID}
}

// played returns a finished best-of-1 group match between a and b.
func played(groupID, a, b string, scoreA, scoreB int) models.Match {
	m := models.Match{
		ID:        a + "-" + b,
		TeamAID:   models.Str(a),
		TeamBID:   models.Str(b),
		RoundName: models.RoundGroupStage,
		GroupID:   groupID,
	}
	return engine.ApplyScore(m, models.MatchScore{Set1: models.SetScore{A: scoreA, B: scoreB}})
}

func knockout(cat *models.CategoryData, note string) (models.Match, bool) {
	for _, m := range cat.Matches {
		if m.IsKnockout() && m.Note == note {
			return m, true
		}
	}
	return models.Match{}, false
}

func ids(teams []models.Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.ID
	}
	return out
}

func finishKnockout(cat *models.CategoryData, note string, winnerSide engine.Side) {
	for i, m := range cat.Matches {
		if !m.IsKnockout() || m.Note != note {
			continue
		}
		score := models.MatchScore{Set1: models.SetScore{A: 11, B: 7}}
		if winnerSide == engine.SideB {
			score.Set1 = models.SetScore{A: 7, B: 11}
		}
		if engine.RuleFor(m) == engine.BestOfThree {
			score.Set2 = score.Set1
		}
		cat.Matches[i] = engine.ApplyScore(m, score)
	}
}
