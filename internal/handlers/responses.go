package handlers

import (
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/roster"
)

// VariantResponse is the stored bracket variant of a category and its options
type VariantResponse struct {
	Category models.CategoryKey `json:"category"`
	Variant  string             `json:"variant"`
	Variants []string           `json:"variants"`
}

// AuditResponse wraps the activity log
type AuditResponse struct {
	Entries []models.AuditEntry `json:"entries"`
}

// ImportErrorResponse is returned when no row of an uploaded roster was usable
type ImportErrorResponse struct {
	APIError
	RowErrors []roster.RowError `json:"rowErrors"`
}
