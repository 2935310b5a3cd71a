package controllers

import (
	"net/http"

	"tiffin-service/models"
	"tiffin-service/repository"
	"tiffin-service/services"

	apperrors "tiffin-service/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dashboardListLimit = 200

type AdminController struct {
	Auth       *services.AdminAuthService
	Tokens     *services.TokenService
	Reconciler *services.Reconciler
	Complaints *services.ComplaintService
	Orders     repository.OrderRepository
	Logger     *zap.Logger
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges admin credentials for a signed, expiring session token.
func (ac *AdminController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := ac.Auth.Login(req.Username, req.Password)
	if err != nil {
		ac.Logger.Warn("Admin login rejected", zap.String("username", req.Username))
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(ac.Tokens.TTL().Seconds()),
	})
}

// ListOrders feeds the dashboard, newest first. Read-only.
func (ac *AdminController) ListOrders(c *gin.Context) {
	orders, err := ac.Orders.ListRecent(c.Request.Context(), dashboardListLimit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (ac *AdminController) ListComplaints(c *gin.Context) {
	complaints, err := ac.Complaints.ListRecent(c.Request.Context(), dashboardListLimit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

// FulfillOrder marks a paid order fulfilled. Any other starting status is a
// conflict surfaced to the caller.
func (ac *AdminController) FulfillOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := ac.Reconciler.Fulfill(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	ac.Logger.Info("Order marked fulfilled", zap.String("order_id", order.ID.String()))
	c.JSON(http.StatusOK, gin.H{"success": true, "status": order.Status})
}

func (ac *AdminController) ResolveComplaint(c *gin.Context) {
	ac.updateComplaintStatus(c, models.ComplaintStatusResolved)
}

func (ac *AdminController) ProgressComplaint(c *gin.Context) {
	ac.updateComplaintStatus(c, models.ComplaintStatusInProgress)
}

func (ac *AdminController) updateComplaintStatus(c *gin.Context, status string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid complaint id"})
		return
	}

	if err := ac.Complaints.UpdateStatus(c.Request.Context(), id, status); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
