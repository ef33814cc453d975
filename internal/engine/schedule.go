package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/abrezinsky/picklecup/internal/models"
)

// ShuffleFunc permutes n items through swap. rand.Shuffle and (*rand.Rand).Shuffle fit.
type ShuffleFunc func(n int, swap func(i, j int))

// ScheduleConfig describes how many courts run in parallel and when play starts.
type ScheduleConfig struct {
	Courts      int
	CourtPrefix string
	StartHour   int
	StartMinute int
	Day         string
	SlotMinutes int
}

// ConfigFor returns the court and time layout of a category. Mixed doubles plays
// on the B courts on the second morning; everything else on the A courts the day before.
func ConfigFor(key models.CategoryKey) ScheduleConfig {
	if key == models.CategoryMixed {
		return ScheduleConfig{Courts: 4, CourtPrefix: "B", StartHour: 7, Day: "19/12", SlotMinutes: 20}
	}
	return ScheduleConfig{Courts: 6, CourtPrefix: "A", StartHour: 15, Day: "18/12", SlotMinutes: 20}
}

// Court returns the label of the n-th court, counting from 1.
func (c ScheduleConfig) Court(n int) string {
	return fmt.Sprintf("Sân %s%d", c.CourtPrefix, n)
}

// SlotTime returns the "HH:MM day" label of a zero-based time slot.
func (c ScheduleConfig) SlotTime(slot int) string {
	total := c.StartHour*60 + c.StartMinute + slot*c.SlotMinutes
	return fmt.Sprintf("%02d:%02d %s", total/60, total%60, c.Day)
}

// Generate builds the complete round robin of a group: one match per unordered
// pair, ordered by shuffle (nil keeps pairing order), numbered and given slots.
func Generate(group models.Group, key models.CategoryKey, shuffle ShuffleFunc) []models.Match {
	ids := group.TeamIDs
	matches := make([]models.Match, 0, len(ids)*(len(ids)-1)/2+1)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			matches = append(matches, models.Match{
				ID:        uuid.NewString(),
				TeamAID:   models.Str(ids[i]),
				TeamBID:   models.Str(ids[j]),
				RoundName: models.RoundGroupStage,
				Category:  key,
				GroupID:   group.ID,
			})
		}
	}

	if shuffle != nil {
		shuffle(len(matches), func(i, j int) {
			matches[i], matches[j] = matches[j], matches[i]
		})
	}

	AssignSlots(matches, ConfigFor(key))
	return matches
}

// AssignSlots numbers matches in order and spreads them over the courts, filling
// every court of a time slot before moving to the next slot.
func AssignSlots(matches []models.Match, cfg ScheduleConfig) {
	courts := cfg.Courts
	if courts < 1 {
		courts = 1
	}
	for i := range matches {
		matches[i].MatchNumber = i + 1
		matches[i].Time = cfg.SlotTime(i / courts)
		matches[i].Court = cfg.Court(i%courts + 1)
	}
}
