package postgres

import (
	"context"
	"errors"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	// GetByID fetches a project regardless of ownership. Used by internal
	// paths (transcript archiving) that hold no token.
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// GetByIDAndToken fetches a project only when token owns it.
	GetByIDAndToken(ctx context.Context, id, token string) (*models.Project, error)
	ListByToken(ctx context.Context, token string) ([]models.Project, error)
	Save(ctx context.Context, p *models.Project) error
	ExistsID(ctx context.Context, id string) (bool, error)
}

type projectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *projectRepo) GetByIDAndToken(ctx context.Context, id, token string) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND token = ?", id, token).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *projectRepo) ListByToken(ctx context.Context, token string) ([]models.Project, error) {
	var rows []models.Project
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *projectRepo) Save(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *projectRepo) ExistsID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
