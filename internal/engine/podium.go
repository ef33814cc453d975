package engine

import (
	"strings"

	"github.com/abrezinsky/picklecup/internal/models"
)

// Podium is the final placing of a category once its final is decided.
type Podium struct {
	Champion   *models.Team  `json:"champion"`
	RunnerUp   *models.Team  `json:"runnerUp"`
	ThirdPlace []models.Team `json:"thirdPlace"`
}

// PodiumFor returns the podium of a category, or false while the final is undecided.
// Both semifinal losers share third place. Teams that no longer exist are left nil.
func PodiumFor(cat *models.CategoryData) (Podium, bool) {
	var final *models.Match
	for i := range cat.Matches {
		m := &cat.Matches[i]
		if m.Note == models.NoteFinal || m.RoundName == models.RoundFinal {
			final = m
			break
		}
	}
	if final == nil || !final.IsFinished || final.WinnerID == nil {
		return Podium{}, false
	}

	p := Podium{ThirdPlace: []models.Team{}}
	p.Champion = lookupTeam(cat, *final.WinnerID)
	p.RunnerUp = lookupTeam(cat, loserOf(*final))

	for _, m := range cat.Matches {
		if !strings.HasPrefix(m.Note, "BK") || !m.IsFinished || m.WinnerID == nil {
			continue
		}
		if t := lookupTeam(cat, loserOf(m)); t != nil {
			p.ThirdPlace = append(p.ThirdPlace, *t)
		}
	}
	return p, true
}

func loserOf(m models.Match) string {
	winner := models.StrValue(m.WinnerID)
	if models.StrValue(m.TeamAID) == winner {
		return models.StrValue(m.TeamBID)
	}
	return models.StrValue(m.TeamAID)
}

func lookupTeam(cat *models.CategoryData, id string) *models.Team {
	if t, ok := cat.Team(id); ok {
		return &t
	}
	return nil
}
