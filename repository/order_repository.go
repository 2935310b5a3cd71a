package repository

import (
	"context"
	stderrors "errors"

	"tiffin-service/models"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines the interface for order data access. Transition is
// the only write path once an order exists: it applies a status change
// atomically so concurrent confirmation and webhook deliveries cannot both
// observe the same pre-state.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByProviderRef(ctx context.Context, providerOrderRef string) (*models.Order, error)
	// Transition locks the order row, verifies the current status is in
	// fromStatuses, applies mutate and persists the result. It returns
	// ErrConflictingTransition when the status check fails and
	// ErrOrderNotFound when no order carries the given provider ref.
	Transition(ctx context.Context, providerOrderRef string, fromStatuses []string, mutate func(*models.Order)) (*models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByProviderRef(ctx context.Context, providerOrderRef string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("provider_order_ref = ?", providerOrderRef).First(&order).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) Transition(ctx context.Context, providerOrderRef string, fromStatuses []string, mutate func(*models.Order)) (*models.Order, error) {
	var updated *models.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("provider_order_ref = ?", providerOrderRef).
			First(&order).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrOrderNotFound
			}
			return err
		}

		if !statusIn(order.Status, fromStatuses) {
			return apperrors.ErrConflictingTransition
		}

		mutate(&order)
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormOrderRepository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
