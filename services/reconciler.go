package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"tiffin-service/models"
	"tiffin-service/repository"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher pushes standardized payment events to downstream consumers.
// A nil publisher disables publication.
type EventPublisher interface {
	SendPaymentEvent(event models.PaymentEvent) error
}

// Reconciler owns order status transitions. Verified events from the client
// confirmation call and the provider webhook race for the same order; every
// mutation goes through the store's compare-and-swap Transition so exactly
// one of them wins and duplicates degrade to no-ops.
type Reconciler struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	notifier  Notifier
	events    EventPublisher
	logger    *zap.Logger
}

func NewReconciler(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	notifier Notifier,
	events EventPublisher,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		orders:    orders,
		customers: customers,
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}
}

// Apply routes a verified payment event through the transition rules and
// returns the resulting order state. Duplicate and stale events return the
// current order with no error so webhook callers can acknowledge receipt.
func (r *Reconciler) Apply(ctx context.Context, ev *VerifiedEvent) (*models.Order, error) {
	order, err := r.orders.FindByProviderRef(ctx, ev.ProviderOrderRef)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrOrderNotFound) {
			return r.fallbackCreate(ctx, ev)
		}
		return nil, err
	}

	switch ev.Outcome {
	case OutcomeSucceeded:
		return r.applySuccess(ctx, order, ev)
	case OutcomeFailed:
		return r.applyFailure(ctx, order, ev)
	default:
		return r.applyInterim(ctx, order, ev)
	}
}

func (r *Reconciler) applySuccess(ctx context.Context, order *models.Order, ev *VerifiedEvent) (*models.Order, error) {
	if order.Status == models.OrderStatusPaid || order.Status == models.OrderStatusFulfilled {
		r.logger.Info("Skipping duplicate success event",
			zap.String("provider_order_ref", ev.ProviderOrderRef),
			zap.String("status", order.Status))
		return order, nil
	}

	// A later authoritative success may still land on a failed order, and an
	// interim provider status must not block settlement.
	from := []string{models.OrderStatusCreated, models.OrderStatusFailed}
	if !isCanonicalStatus(order.Status) {
		from = append(from, order.Status)
	}

	chargeRef := ev.ProviderChargeRef
	updated, err := r.orders.Transition(ctx, ev.ProviderOrderRef, from, func(o *models.Order) {
		o.Status = models.OrderStatusPaid
		if chargeRef != "" {
			o.ProviderChargeRef = &chargeRef
		}
		if ev.Signature != "" {
			o.ProviderSignature = ev.Signature
		}
	})
	if err != nil {
		if stderrors.Is(err, apperrors.ErrConflictingTransition) {
			// Lost the race. If the winner settled the payment this event is
			// a duplicate, which is a no-op by contract.
			current, findErr := r.orders.FindByProviderRef(ctx, ev.ProviderOrderRef)
			if findErr == nil && (current.Status == models.OrderStatusPaid || current.Status == models.OrderStatusFulfilled) {
				r.logger.Info("Concurrent success event already settled the order",
					zap.String("provider_order_ref", ev.ProviderOrderRef))
				return current, nil
			}
		}
		return nil, err
	}

	r.notifyPaid(ctx, updated)
	r.publish(models.PaymentEvent{
		Type:      "payment_succeeded",
		OrderID:   updated.ID.String(),
		PaymentID: chargeRef,
		PlanID:    updated.PlanID,
		Amount:    updated.Amount,
		Currency:  updated.Currency,
		Timestamp: time.Now().UTC(),
	})
	return updated, nil
}

func (r *Reconciler) applyFailure(ctx context.Context, order *models.Order, ev *VerifiedEvent) (*models.Order, error) {
	switch order.Status {
	case models.OrderStatusFailed:
		return order, nil
	case models.OrderStatusPaid, models.OrderStatusFulfilled:
		// Stale failure after a settled payment carries no authority.
		r.logger.Warn("Ignoring failure event for settled order",
			zap.String("provider_order_ref", ev.ProviderOrderRef),
			zap.String("status", order.Status))
		return order, nil
	}

	from := []string{models.OrderStatusCreated}
	if !isCanonicalStatus(order.Status) {
		from = append(from, order.Status)
	}

	chargeRef := ev.ProviderChargeRef
	updated, err := r.orders.Transition(ctx, ev.ProviderOrderRef, from, func(o *models.Order) {
		o.Status = models.OrderStatusFailed
		if chargeRef != "" {
			o.ProviderChargeRef = &chargeRef
		}
		if ev.Signature != "" {
			o.ProviderSignature = ev.Signature
		}
	})
	if err != nil {
		if stderrors.Is(err, apperrors.ErrConflictingTransition) {
			current, findErr := r.orders.FindByProviderRef(ctx, ev.ProviderOrderRef)
			if findErr == nil {
				return current, nil
			}
		}
		return nil, err
	}

	r.publish(models.PaymentEvent{
		Type:      "payment_failed",
		OrderID:   updated.ID.String(),
		PaymentID: chargeRef,
		PlanID:    updated.PlanID,
		Amount:    updated.Amount,
		Currency:  updated.Currency,
		Timestamp: time.Now().UTC(),
	})
	return updated, nil
}

// applyInterim records a transient provider status ("processing" and
// friends) literally. It is neither success nor failure and fires no
// notification. Only a freshly created order picks it up.
func (r *Reconciler) applyInterim(ctx context.Context, order *models.Order, ev *VerifiedEvent) (*models.Order, error) {
	if order.Status != models.OrderStatusCreated {
		return order, nil
	}

	status := ev.Outcome
	updated, err := r.orders.Transition(ctx, ev.ProviderOrderRef, []string{models.OrderStatusCreated}, func(o *models.Order) {
		o.Status = status
	})
	if err != nil {
		if stderrors.Is(err, apperrors.ErrConflictingTransition) {
			current, findErr := r.orders.FindByProviderRef(ctx, ev.ProviderOrderRef)
			if findErr == nil {
				return current, nil
			}
		}
		return nil, err
	}
	return updated, nil
}

// fallbackCreate recovers from a lost or raced local write at order-creation
// time: the provider knows the order, we do not. The order is created in a
// degraded state with the event outcome applied directly; customer
// resolution follows the same precedence as normal order creation.
func (r *Reconciler) fallbackCreate(ctx context.Context, ev *VerifiedEvent) (*models.Order, error) {
	var customerID *uuid.UUID
	cust, err := r.customers.Resolve(ctx, ev.Customer.Name, ev.Customer.Email, ev.Customer.Phone)
	if err != nil {
		r.logger.Error("Customer resolution failed during fallback creation",
			zap.String("provider_order_ref", ev.ProviderOrderRef),
			zap.Error(err))
	} else {
		customerID = &cust.ID
	}

	planID := ev.PlanID
	if planID == "" {
		planID = "unknown"
	}
	status := ev.Outcome
	switch ev.Outcome {
	case OutcomeSucceeded:
		status = models.OrderStatusPaid
	case OutcomeFailed:
		status = models.OrderStatusFailed
	}

	orderRef := ev.ProviderOrderRef
	order := &models.Order{
		PlanID:            planID,
		Description:       "(created after payment)",
		Amount:            0,
		Currency:          "INR",
		ProviderOrderRef:  &orderRef,
		ProviderSignature: ev.Signature,
		Status:            status,
		CustomerID:        customerID,
	}
	if ev.ProviderChargeRef != "" {
		chargeRef := ev.ProviderChargeRef
		order.ProviderChargeRef = &chargeRef
	}

	if err := r.orders.Create(ctx, order); err != nil {
		// Unique provider ref: a concurrent fallback creation beat us.
		// Route the event through the normal path against the winner's row.
		if existing, findErr := r.orders.FindByProviderRef(ctx, ev.ProviderOrderRef); findErr == nil {
			r.logger.Info("Fallback creation raced, reapplying against existing order",
				zap.String("provider_order_ref", ev.ProviderOrderRef))
			switch ev.Outcome {
			case OutcomeSucceeded:
				return r.applySuccess(ctx, existing, ev)
			case OutcomeFailed:
				return r.applyFailure(ctx, existing, ev)
			default:
				return r.applyInterim(ctx, existing, ev)
			}
		}
		return nil, err
	}

	r.logger.Warn("Order created via fallback recovery path",
		zap.String("provider_order_ref", ev.ProviderOrderRef),
		zap.String("status", status))

	if status == models.OrderStatusPaid {
		r.notifyPaid(ctx, order)
		r.publish(models.PaymentEvent{
			Type:      "payment_succeeded",
			OrderID:   order.ID.String(),
			PaymentID: ev.ProviderChargeRef,
			PlanID:    order.PlanID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			Timestamp: time.Now().UTC(),
		})
	}
	return order, nil
}

// RejectForgery records an attempted confirmation whose signature did not
// verify. The referenced order, when it exists and is still pending, is
// marked failed with the offered refs kept for audit. Nothing else mutates.
func (r *Reconciler) RejectForgery(ctx context.Context, orderRef, chargeRef, signature string) {
	_, err := r.orders.Transition(ctx, orderRef, []string{models.OrderStatusCreated}, func(o *models.Order) {
		o.Status = models.OrderStatusFailed
		if chargeRef != "" {
			ref := chargeRef
			o.ProviderChargeRef = &ref
		}
		o.ProviderSignature = signature
	})
	if err != nil && !stderrors.Is(err, apperrors.ErrOrderNotFound) && !stderrors.Is(err, apperrors.ErrConflictingTransition) {
		r.logger.Error("Failed to record forged confirmation",
			zap.String("provider_order_ref", orderRef),
			zap.Error(err))
	}
}

// Fulfill marks a paid order as fulfilled. This is an administrative action,
// legal only from exactly the paid status.
func (r *Reconciler) Fulfill(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := r.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProviderOrderRef == nil || order.Status != models.OrderStatusPaid {
		return nil, apperrors.ErrInvalidTransition
	}

	updated, err := r.orders.Transition(ctx, *order.ProviderOrderRef, []string{models.OrderStatusPaid}, func(o *models.Order) {
		o.Status = models.OrderStatusFulfilled
	})
	if err != nil {
		if stderrors.Is(err, apperrors.ErrConflictingTransition) {
			return nil, apperrors.ErrInvalidTransition
		}
		return nil, err
	}

	r.publish(models.PaymentEvent{
		Type:      "order_fulfilled",
		OrderID:   updated.ID.String(),
		PlanID:    updated.PlanID,
		Amount:    updated.Amount,
		Currency:  updated.Currency,
		Timestamp: time.Now().UTC(),
	})
	return updated, nil
}

func (r *Reconciler) notifyPaid(ctx context.Context, order *models.Order) {
	subject := fmt.Sprintf("New subscription paid - %s - %.2f %s",
		order.PlanID, float64(order.Amount)/100, order.Currency)
	chargeRef := ""
	if order.ProviderChargeRef != nil {
		chargeRef = *order.ProviderChargeRef
	}
	orderRef := ""
	if order.ProviderOrderRef != nil {
		orderRef = *order.ProviderOrderRef
	}
	body := fmt.Sprintf(
		"A new payment has been received.\n\n"+
			"Order ID: %s\nPlan: %s\nAmount: %.2f %s\n"+
			"Provider Order Ref: %s\nProvider Charge Ref: %s\n\n"+
			"Please check the admin dashboard.\n",
		order.ID, order.PlanID, float64(order.Amount)/100, order.Currency,
		orderRef, chargeRef,
	)
	r.notifier.Notify(ctx, subject, body)
}

func (r *Reconciler) publish(event models.PaymentEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.SendPaymentEvent(event); err != nil {
		r.logger.Warn("Failed to publish payment event",
			zap.String("event_type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func isCanonicalStatus(status string) bool {
	switch status {
	case models.OrderStatusCreated, models.OrderStatusPaid, models.OrderStatusFailed, models.OrderStatusFulfilled:
		return true
	}
	return false
}
