package repository

import (
	"context"
	stderrors "errors"

	"tiffin-service/models"

	"gorm.io/gorm"
)

type PlanRepository interface {
	ListActive(ctx context.Context) ([]models.TiffinPlan, error)
	FindByCode(ctx context.Context, planCode string) (*models.TiffinPlan, error)
	SeedDefaults(ctx context.Context) error
}

type GormPlanRepository struct {
	db *gorm.DB
}

func NewGormPlanRepository(db *gorm.DB) PlanRepository {
	return &GormPlanRepository{db: db}
}

func (r *GormPlanRepository) ListActive(ctx context.Context) ([]models.TiffinPlan, error) {
	var plans []models.TiffinPlan
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("price_minor ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *GormPlanRepository) FindByCode(ctx context.Context, planCode string) (*models.TiffinPlan, error) {
	var plan models.TiffinPlan
	if err := r.db.WithContext(ctx).Where("plan_code = ?", planCode).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// SeedDefaults inserts the starter catalog on an empty table so a fresh
// deployment has something to sell.
func (r *GormPlanRepository) SeedDefaults(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TiffinPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.TiffinPlan{
		{PlanCode: "daily-lunch", Name: "Daily Lunch", Description: "One fresh lunch tiffin every day", PriceMinor: 9900, Currency: "INR", Frequency: "daily"},
		{PlanCode: "weekly-veg", Name: "Weekly Veg", Description: "Lunch and dinner, Monday to Saturday", PriceMinor: 119900, Currency: "INR", Frequency: "weekly"},
		{PlanCode: "monthly-full", Name: "Monthly Full Board", Description: "Breakfast, lunch and dinner for a month", PriceMinor: 499900, Currency: "INR", Frequency: "monthly"},
	}
	for i := range defaults {
		if err := r.db.WithContext(ctx).Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// IsNotFound reports whether err is the underlying record-not-found error.
func IsNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}
