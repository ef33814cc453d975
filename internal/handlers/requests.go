package handlers

import (
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/state"
)

// MatchUpdateRequest is an admin edit of one match. Omitted fields are left
// alone; an empty team ID clears that slot of a knockout match.
type MatchUpdateRequest struct {
	Score       *models.MatchScore `json:"score"`
	Time        *string            `json:"time"`
	Court       *string            `json:"court"`
	MatchNumber *int               `json:"matchNumber"`
	IsStarred   *bool              `json:"isStarred"`
	TeamAID     *string            `json:"teamAId"`
	TeamBID     *string            `json:"teamBId"`
}

func (r MatchUpdateRequest) toUpdate() state.MatchUpdate {
	return state.MatchUpdate{
		Score:       r.Score,
		Time:        r.Time,
		Court:       r.Court,
		MatchNumber: r.MatchNumber,
		IsStarred:   r.IsStarred,
		TeamAID:     r.TeamAID,
		TeamBID:     r.TeamBID,
	}
}

// WinnerRequest forces a winner. A null winnerId clears the result.
type WinnerRequest struct {
	WinnerID *string `json:"winnerId"`
}

// ReorderRequest lists every match ID of a category in the new order
type ReorderRequest struct {
	MatchIDs []string `json:"matchIds"`
}

// VariantRequest selects the bracket variant of a category
type VariantRequest struct {
	Variant string `json:"variant"`
}

// TeamsRequest imports a roster as JSON
type TeamsRequest struct {
	Teams []models.Team `json:"teams"`
}
