package routes

import (
	"net/http"

	"tiffin-service/controllers"
	"tiffin-service/middleware"
	"tiffin-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Payment   *controllers.PaymentController
	Complaint *controllers.ComplaintController
	Plan      *controllers.PlanController
	Admin     *controllers.AdminController
}

func Register(r *gin.Engine, ctrl Controllers, tokens *services.TokenService) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.RateLimitMiddleware())
	public.GET("/plans", ctrl.Plan.List)
	public.POST("/create_order", ctrl.Payment.CreateOrder)
	public.POST("/verify_payment", ctrl.Payment.VerifyPayment)
	public.POST("/submit_complaint", ctrl.Complaint.Submit)

	// Provider webhook (no auth, no rate limit; verified by signature)
	r.POST("/webhook", ctrl.Payment.Webhook)

	admin := r.Group("/admin")
	admin.POST("/login", ctrl.Admin.Login)

	protected := admin.Group("/")
	protected.Use(middleware.RequireAdmin(tokens))
	protected.GET("/orders", ctrl.Admin.ListOrders)
	protected.GET("/complaints", ctrl.Admin.ListComplaints)
	protected.POST("/orders/:id/fulfill", ctrl.Admin.FulfillOrder)
	protected.POST("/complaints/:id/resolve", ctrl.Admin.ResolveComplaint)
	protected.POST("/complaints/:id/progress", ctrl.Admin.ProgressComplaint)
}
