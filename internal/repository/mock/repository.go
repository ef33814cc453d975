package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/repository"
)

// Repository wraps a real repository and lets tests inject errors.
//
// Usage:
//
//	mockRepo := mock.NewRepository(testutil.NewTestRepository(t))
//	mockRepo.SaveSnapshotError = errors.New("disk full")
//	svc := services.NewSyncService(log, c, mockRepo, store, saver)
type Repository struct {
	repository.FullRepository

	SaveSnapshotError error
	LoadSnapshotError error
	GetSettingError   error
	SetSettingError   error
	ClearTableError   error
	RecordAuditError  error
	ListAuditError    error
	PingError         error

	// SaveCalls counts SaveSnapshot calls that reached the wrapped repository.
	SaveCalls int
}

// NewRepository creates a mock repository wrapping a real one.
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{FullRepository: real}
}

func (m *Repository) SaveSnapshot(ctx context.Context, id string, t *models.Tournament) error {
	if m.SaveSnapshotError != nil {
		return m.SaveSnapshotError
	}
	m.SaveCalls++
	return m.FullRepository.SaveSnapshot(ctx, id, t)
}

func (m *Repository) LoadSnapshot(ctx context.Context, id string) (*models.Tournament, time.Time, error) {
	if m.LoadSnapshotError != nil {
		return nil, time.Time{}, m.LoadSnapshotError
	}
	return m.FullRepository.LoadSnapshot(ctx, id)
}

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) ClearTable(ctx context.Context, table string) error {
	if m.ClearTableError != nil {
		return m.ClearTableError
	}
	return m.FullRepository.ClearTable(ctx, table)
}

func (m *Repository) RecordAudit(ctx context.Context, e models.AuditEntry) error {
	if m.RecordAuditError != nil {
		return m.RecordAuditError
	}
	return m.FullRepository.RecordAudit(ctx, e)
}

func (m *Repository) ListAudit(ctx context.Context, category string, limit int) ([]models.AuditEntry, error) {
	if m.ListAuditError != nil {
		return nil, m.ListAuditError
	}
	return m.FullRepository.ListAudit(ctx, category, limit)
}

func (m *Repository) Ping(ctx context.Context) error {
	if m.PingError != nil {
		return m.PingError
	}
	return m.FullRepository.Ping(ctx)
}

var _ repository.FullRepository = (*Repository)(nil)
