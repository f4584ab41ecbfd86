package postgres

import (
	"context"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"gorm.io/gorm"
)

type TranscriptRepository interface {
	Insert(ctx context.Context, rec *models.TranscriptRecord) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]models.TranscriptRecord, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepository {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) Insert(ctx context.Context, rec *models.TranscriptRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *transcriptRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]models.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.TranscriptRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
