package postgres

import (
	"context"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"gorm.io/gorm"
)

type ExchangeRepository interface {
	Insert(ctx context.Context, ex *models.SuggestionExchange) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]models.SuggestionExchange, error)
}

type exchangeRepo struct {
	db *gorm.DB
}

func NewExchangeRepo(db *gorm.DB) ExchangeRepository {
	return &exchangeRepo{db: db}
}

func (r *exchangeRepo) Insert(ctx context.Context, ex *models.SuggestionExchange) error {
	return r.db.WithContext(ctx).Create(ex).Error
}

func (r *exchangeRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]models.SuggestionExchange, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.SuggestionExchange
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
