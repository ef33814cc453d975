package engine

import (
	"sort"

	"github.com/abrezinsky/picklecup/internal/models"
)

// PointsPerWin is what a group-stage win is worth in the standings.
const PointsPerWin = 2

// Rank returns the standings of one group as fresh copies of its teams with Stats filled.
//
// Only teams whose GroupID is groupID and finished matches of that group count.
// Order: points, then head-to-head when exactly two teams share the points value,
// then point differential. Remaining ties keep input order.
func Rank(teams []models.Team, matches []models.Match, groupID string) []models.Team {
	ranked := []models.Team{}
	if groupID == "" {
		return ranked
	}

	var finished []models.Match
	for _, m := range matches {
		if m.GroupID == groupID && m.IsFinished {
			finished = append(finished, m)
		}
	}

	for _, t := range teams {
		if t.GroupID != groupID {
			continue
		}
		stats := statsFor(t.ID, finished)
		t.Stats = &stats
		ranked = append(ranked, t)
	}

	tiedOn := make(map[int]int, len(ranked))
	for _, t := range ranked {
		tiedOn[t.Stats.Points]++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Stats.Points != b.Stats.Points {
			return a.Stats.Points > b.Stats.Points
		}
		if tiedOn[a.Stats.Points] == 2 {
			switch headToHead(finished, a.ID, b.ID) {
			case a.ID:
				return true
			case b.ID:
				return false
			}
		}
		return a.Stats.PointsDiff > b.Stats.PointsDiff
	})
	return ranked
}

func statsFor(teamID string, finished []models.Match) models.TeamStats {
	var s models.TeamStats
	for _, m := range finished {
		if !m.Involves(teamID) {
			continue
		}
		s.Played++

		own, opp := m.Score.Totals()
		if models.StrValue(m.TeamAID) != teamID {
			own, opp = opp, own
		}
		s.PointsDiff += own - opp

		switch winner := models.StrValue(m.WinnerID); {
		case winner == teamID:
			s.Won++
		case winner != "":
			s.Lost++
		}
	}
	s.Points = s.Won * PointsPerWin
	return s
}

// headToHead returns the winner of the finished direct match between a and b, or "".
func headToHead(finished []models.Match, a, b string) string {
	for _, m := range finished {
		if m.Involves(a) && m.Involves(b) && m.WinnerID != nil {
			return *m.WinnerID
		}
	}
	return ""
}

// GroupComplete reports whether the group has matches and all of them are finished.
func GroupComplete(matches []models.Match, groupID string) bool {
	total := 0
	for _, m := range matches {
		if m.GroupID != groupID {
			continue
		}
		total++
		if !m.IsFinished {
			return false
		}
	}
	return total > 0
}
