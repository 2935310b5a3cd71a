package controllers

import (
	"net/http"

	"tiffin-service/services"

	apperrors "tiffin-service/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ComplaintController struct {
	Complaints *services.ComplaintService
	Logger     *zap.Logger
}

// Submit handles complaint submission from the frontend form.
func (cc *ComplaintController) Submit(c *gin.Context) {
	var req services.SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and phone are required"})
		return
	}

	complaint, err := cc.Complaints.Submit(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	cc.Logger.Info("Complaint registered",
		zap.String("complaint_id", complaint.ID.String()),
		zap.String("type", complaint.ComplaintType))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Complaint registered successfully"})
}
