package repository

import (
	"context"
	stderrors "errors"

	"tiffin-service/models"

	"gorm.io/gorm"
)

// CustomerRepository resolves and stores customer identities. Identity is
// matched by phone first, then email; Resolve creates a fresh record when
// neither matches.
type CustomerRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Resolve(ctx context.Context, name, email, phone string) (*models.Customer, error)
}

type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) CustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var cust models.Customer
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&cust).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var cust models.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&cust).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *GormCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *GormCustomerRepository) Resolve(ctx context.Context, name, email, phone string) (*models.Customer, error) {
	if phone != "" {
		cust, err := r.FindByPhone(ctx, phone)
		if err == nil {
			return cust, nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if email != "" {
		cust, err := r.FindByEmail(ctx, email)
		if err == nil {
			return cust, nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	cust := &models.Customer{Name: name, Email: email, Phone: phone}
	if err := r.Create(ctx, cust); err != nil {
		return nil, err
	}
	return cust, nil
}
