package main

import (
	"context"
	"log"

	"tiffin-service/config"
	"tiffin-service/controllers"
	"tiffin-service/database"
	"tiffin-service/kafka"
	"tiffin-service/middleware"
	"tiffin-service/repository"
	"tiffin-service/routes"
	"tiffin-service/sender"
	"tiffin-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[TiffinService] Failed to load config: ", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("[TiffinService] Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer database.Close(db)

	orderRepo := repository.NewGormOrderRepository(db)
	customerRepo := repository.NewGormCustomerRepository(db)
	complaintRepo := repository.NewGormComplaintRepository(db)
	planRepo := repository.NewGormPlanRepository(db)

	if err := planRepo.SeedDefaults(context.Background()); err != nil {
		logger.Fatal("Failed to seed plan catalog", zap.Error(err))
	}

	var provider services.PaymentProvider
	switch cfg.PaymentProvider {
	case "stripe":
		provider = services.NewStripeClient(cfg.StripeAPIKey, cfg.StripeWebhookSecret)
	default:
		provider = services.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, cfg.RazorpayBaseURL)
	}
	logger.Info("Payment provider selected", zap.String("provider", provider.Name()))

	var emailSender sender.EmailSender
	if cfg.NotifierConfigured() {
		smtpSender, err := sender.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		if err != nil {
			logger.Warn("SMTP misconfigured, admin notifications disabled", zap.Error(err))
		} else {
			emailSender = smtpSender
		}
	} else {
		logger.Info("SMTP or admin email not configured, admin notifications disabled")
	}
	notifier := services.NewEmailNotifier(emailSender, cfg.AdminEmail, logger)

	var events services.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewPaymentEventProducer(cfg.KafkaBrokers, cfg.PaymentEventsTopic, logger)
		defer producer.Close()
		events = producer
	}

	reconciler := services.NewReconciler(orderRepo, customerRepo, notifier, events, logger)
	orderSvc := services.NewOrderService(orderRepo, customerRepo, planRepo, provider, logger)
	complaintSvc := services.NewComplaintService(complaintRepo, customerRepo, notifier, logger)
	tokenSvc := services.NewTokenService(cfg.JWTSecret, 0)
	adminAuth := services.NewAdminAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash, tokenSvc)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	routes.Register(r, routes.Controllers{
		Payment: &controllers.PaymentController{
			Orders:     orderSvc,
			Reconciler: reconciler,
			Provider:   provider,
			Logger:     logger,
		},
		Complaint: &controllers.ComplaintController{
			Complaints: complaintSvc,
			Logger:     logger,
		},
		Plan: &controllers.PlanController{Plans: planRepo},
		Admin: &controllers.AdminController{
			Auth:       adminAuth,
			Tokens:     tokenSvc,
			Reconciler: reconciler,
			Complaints: complaintSvc,
			Orders:     orderRepo,
			Logger:     logger,
		},
	}, tokenSvc)

	logger.Info("Tiffin service running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
