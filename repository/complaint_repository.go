package repository

import (
	"context"
	stderrors "errors"

	"tiffin-service/models"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	ListRecent(ctx context.Context, limit int) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type GormComplaintRepository struct {
	db *gorm.DB
}

func NewGormComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &GormComplaintRepository{db: db}
}

func (r *GormComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *GormComplaintRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

func (r *GormComplaintRepository) ListRecent(ctx context.Context, limit int) ([]models.Complaint, error) {
	var complaints []models.Complaint
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *GormComplaintRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
