package services

import (
	"context"
	"fmt"
	"strings"

	"tiffin-service/models"
	"tiffin-service/repository"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateOrderRequest struct {
	PlanID      string       `json:"plan_id" binding:"required"`
	Amount      int64        `json:"amount" binding:"required,min=1"`
	Currency    string       `json:"currency"`
	Description string       `json:"description"`
	Customer    CustomerInfo `json:"customer"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// OrderService handles order creation: register the order with the payment
// provider, resolve the customer and persist the local row in `created`.
type OrderService struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	plans     repository.PlanRepository
	provider  PaymentProvider
	logger    *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	plans repository.PlanRepository,
	provider PaymentProvider,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		plans:     plans,
		provider:  provider,
		logger:    logger,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.PlanID == "" || req.Amount <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrValidation, fmt.Errorf("plan_id and amount are required"))
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "INR"
	}

	// A known plan code must match the advertised price.
	if plan, err := s.plans.FindByCode(ctx, req.PlanID); err == nil {
		if plan.PriceMinor != req.Amount {
			return nil, apperrors.Wrap(apperrors.ErrValidation,
				fmt.Errorf("amount %d does not match plan price %d", req.Amount, plan.PriceMinor))
		}
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	receipt := fmt.Sprintf("rcpt_%s_%s", req.PlanID, uuid.NewString()[:8])

	providerOrderRef, err := s.provider.CreateOrder(ctx, req.Amount, currency, receipt)
	if err != nil {
		s.logger.Error("Provider order creation failed",
			zap.String("plan_id", req.PlanID),
			zap.Error(err))
		return nil, err
	}

	var customerID *uuid.UUID
	cust, err := s.customers.Resolve(ctx, req.Customer.Name, req.Customer.Email, req.Customer.Phone)
	if err != nil {
		s.logger.Error("Customer resolution failed during order creation", zap.Error(err))
	} else {
		customerID = &cust.ID
	}

	order := &models.Order{
		PlanID:           req.PlanID,
		Description:      req.Description,
		Amount:           req.Amount,
		Currency:         currency,
		ProviderOrderRef: &providerOrderRef,
		Status:           models.OrderStatusCreated,
		CustomerID:       customerID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to save order",
			zap.String("provider_order_ref", providerOrderRef),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("provider_order_ref", providerOrderRef),
		zap.String("plan_id", req.PlanID),
		zap.Int64("amount", req.Amount))

	return &CreateOrderResponse{
		OrderID:  providerOrderRef,
		Amount:   req.Amount,
		Currency: currency,
		Key:      s.provider.CheckoutKey(),
	}, nil
}
