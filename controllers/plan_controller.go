package controllers

import (
	"net/http"

	"tiffin-service/repository"

	apperrors "tiffin-service/errors"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	Plans repository.PlanRepository
}

// List returns the active plan catalog for the plans page.
func (pc *PlanController) List(c *gin.Context) {
	plans, err := pc.Plans.ListActive(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
