package controllers

import (
	stderrors "errors"
	"net/http"

	"tiffin-service/services"

	apperrors "tiffin-service/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentController struct {
	Orders     *services.OrderService
	Reconciler *services.Reconciler
	Provider   services.PaymentProvider
	Logger     *zap.Logger
}

// CreateOrder registers the order with the payment provider and persists the
// local row.
func (pc *PaymentController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id and amount are required"})
		return
	}

	resp, err := pc.Orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type verifyPaymentRequest struct {
	PaymentID string                `json:"razorpay_payment_id"`
	OrderID   string                `json:"razorpay_order_id"`
	Signature string                `json:"razorpay_signature"`
	PlanID    string                `json:"plan_id"`
	Customer  services.CustomerInfo `json:"customer"`
}

// VerifyPayment handles the client-reported checkout confirmation. The
// signature is validated before any state can change; a verified success is
// then reconciled against the stored order.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing payment parameters"})
		return
	}
	if req.PaymentID == "" || req.OrderID == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing payment parameters"})
		return
	}

	if err := pc.Provider.VerifyConfirmation(req.OrderID, req.PaymentID, req.Signature); err != nil {
		pc.Logger.Warn("Payment confirmation signature mismatch",
			zap.String("provider_order_ref", req.OrderID),
			zap.String("provider_charge_ref", req.PaymentID))
		pc.Reconciler.RejectForgery(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid signature"})
		return
	}

	order, err := pc.Reconciler.Apply(c.Request.Context(), &services.VerifiedEvent{
		ProviderOrderRef:  req.OrderID,
		ProviderChargeRef: req.PaymentID,
		Signature:         req.Signature,
		Outcome:           services.OutcomeSucceeded,
		PlanID:            req.PlanID,
		Customer:          req.Customer,
	})
	if err != nil {
		pc.Logger.Error("Failed to reconcile payment confirmation",
			zap.String("provider_order_ref", req.OrderID),
			zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": order.Status})
}

// Webhook receives asynchronous provider events. Verified events are always
// acknowledged, including stale duplicates, so the provider does not build a
// redelivery storm; verification failures reject with a client error.
func (pc *PaymentController) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	event, err := pc.Provider.ParseWebhook(payload, c.GetHeader(pc.Provider.SignatureHeader()))
	if err != nil {
		if stderrors.Is(err, apperrors.ErrWebhookNotConfigured) {
			pc.Logger.Warn("Webhook received but no webhook secret is configured")
		} else {
			pc.Logger.Warn("Webhook verification failed", zap.Error(err))
		}
		apperrors.Respond(c, err)
		return
	}

	if _, err := pc.Reconciler.Apply(c.Request.Context(), event); err != nil {
		// Internal failure after successful verification: let the provider
		// redeliver rather than silently dropping the event.
		pc.Logger.Error("Failed to reconcile webhook event",
			zap.String("provider_order_ref", event.ProviderOrderRef),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
