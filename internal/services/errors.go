package services

import (
	"fmt"

	apperrors "github.com/abrezinsky/picklecup/internal/errors"
	"github.com/abrezinsky/picklecup/internal/models"
)

// Service errors
var (
	ErrNoRemote       = apperrors.Validation("no remote store is configured")
	ErrRemoteEmpty    = apperrors.NotFound("the remote store has no tournament yet")
	ErrEmptyRoster    = apperrors.Validation("the roster contains no valid teams")
	ErrNilTournament  = apperrors.InvalidInput("tournament is required")
	ErrNoCategoryKeys = apperrors.InvalidInput("tournament has no known categories")
)

// unknownVariant reports a bracket variant the category does not offer.
func unknownVariant(key models.CategoryKey, variant string) error {
	return apperrors.Validationf("category %s has no bracket variant %q", key, variant)
}

func auditDetail(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
