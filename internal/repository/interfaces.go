package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/picklecup/internal/models"
)

// SnapshotRepository stores whole tournament snapshots.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, id string, t *models.Tournament) error
	LoadSnapshot(ctx context.Context, id string) (*models.Tournament, time.Time, error)
}

// SettingsRepository stores key/value settings.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ClearTable(ctx context.Context, table string) error
}

// AuditRepository stores the admin activity log.
type AuditRepository interface {
	RecordAudit(ctx context.Context, e models.AuditEntry) error
	ListAudit(ctx context.Context, category string, limit int) ([]models.AuditEntry, error)
}

// FullRepository combines all repository interfaces.
type FullRepository interface {
	SnapshotRepository
	SettingsRepository
	AuditRepository
	Ping(ctx context.Context) error
}

var _ FullRepository = (*Repository)(nil)
