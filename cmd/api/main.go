package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sefazor/designstudio-backend/internal/config"
	"github.com/sefazor/designstudio-backend/internal/handler"
	"github.com/sefazor/designstudio-backend/internal/middleware"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
	"github.com/sefazor/designstudio-backend/internal/service"
	"github.com/sefazor/designstudio-backend/pkg/ai"
	"github.com/sefazor/designstudio-backend/pkg/database"
	"github.com/sefazor/designstudio-backend/pkg/email"
	"github.com/sefazor/designstudio-backend/pkg/jwt"
	"github.com/sefazor/designstudio-backend/pkg/logger"
	"github.com/sefazor/designstudio-backend/pkg/payment"
	"github.com/sefazor/designstudio-backend/pkg/storage"
	"github.com/sefazor/designstudio-backend/pkg/utils"
)

const bodyLimit = 15 * 1024 * 1024

func main() {
	// .env is optional outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(cfg.DatabaseURL, zlog)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	designRepo := repository.NewDesignRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	validator := utils.NewValidator()

	// AI vendors
	gateway := ai.NewGateway(ai.Options{
		StabilityAPIKey:     cfg.AI.StabilityAPIKey,
		StabilityBaseURL:    cfg.AI.StabilityBaseURL,
		PollinationsBaseURL: cfg.AI.PollinationsBaseURL,
		RemoveBGAPIKey:      cfg.AI.RemoveBGAPIKey,
		RemoveBGBaseURL:     cfg.AI.RemoveBGBaseURL,
		DIDAPIKey:           cfg.AI.DIDAPIKey,
		DIDBaseURL:          cfg.AI.DIDBaseURL,
		PollInterval:        cfg.AI.VideoPollInterval,
		PollAttempts:        cfg.AI.VideoPollAttempts,
		OpenAIAPIKey:        cfg.AI.OpenAIAPIKey,
		OpenAIBaseURL:       cfg.AI.OpenAIBaseURL,
		OpenAIModel:         cfg.AI.OpenAIModel,
		Logger:              zlog.Named("ai"),
	})
	zlog.Info("ai features", zap.Any("features", gateway.Features()))

	// Artifact storage
	aiOpts := service.AIServiceOptions{
		VideoTimeout: cfg.AI.VideoTimeout,
		ReserveWait:  cfg.AI.ReserveWait,
	}
	if cfg.R2.Enabled() {
		r2Storage, err := storage.NewCloudflareStorage(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("initialize R2 storage: %w", err)
		}
		aiOpts.Store = r2Storage
		aiOpts.ArtifactKey = storage.ArtifactKey
	}

	emailService := email.NewEmailService(email.Config{
		APIKey:      cfg.Email.ResendAPIKey,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		AppURL:      cfg.FrontendURL,
	}, zlog.Named("email"))

	// Services
	ledger := service.NewCreditLedger(db, service.LedgerOptions{
		EnforceBackgroundQuota: cfg.Quota.EnforceBackgroundQuota,
		StrictCreditCheck:      cfg.Quota.StrictCreditCheck,
	}, zlog.Named("ledger"))
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(userRepo, tokens, validator, emailService, zlog.Named("auth"))
	userService := service.NewUserService(userRepo, usageRepo)
	designService := service.NewDesignService(designRepo)
	aiService := service.NewAIService(ledger, gateway, validator, aiOpts, zlog.Named("orchestrator"))

	var (
		planService    *service.PlanService
		paymentHandler *handler.PaymentHandler
	)
	prices := map[models.Plan]string{
		models.PlanPro:        cfg.Stripe.PriceIDPro,
		models.PlanEnterprise: cfg.Stripe.PriceIDEnterprise,
	}
	if cfg.Stripe.Enabled() {
		stripeService := payment.NewStripeService(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
		planService = service.NewPlanService(db, stripeService, prices, validator, zlog.Named("plans"))
		paymentHandler = handler.NewPaymentHandler(stripeService, planService, zlog.Named("payments"))
	} else {
		planService = service.NewPlanService(db, nil, prices, validator, zlog.Named("plans"))
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService, userService, zlog)
	userHandler := handler.NewUserHandler(userService, planService, zlog)
	aiHandler := handler.NewAIHandler(aiService, zlog)
	designHandler := handler.NewDesignHandler(designService, zlog)
	healthHandler := handler.NewHealthHandler(userRepo, designRepo, gateway.Features(), zlog)

	// Video calls may hold a connection for the whole poll window
	writeTimeout := cfg.AI.VideoTimeout + 10*time.Second
	app := fiber.New(fiber.Config{
		AppName:               "AI Design Studio",
		BodyLimit:             bodyLimit,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           2 * time.Minute,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				msg = fiberErr.Message
			}
			return c.Status(code).JSON(models.ErrorResponse(msg))
		},
	})

	limits := middleware.NewRateLimiter(middleware.NewRedisStorage(cfg.Redis))
	authRequired := middleware.AuthMiddleware(authService)

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(zlog.Named("http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins(), ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	api := app.Group("/api", limits.Limit("global", middleware.LimitGlobal))

	// Public routes
	api.Get("/health", healthHandler.Check)
	api.Post("/signup", limits.Limit("signup", middleware.LimitSignup), authHandler.Signup)
	api.Post("/login", limits.Limit("login", middleware.LimitLogin), authHandler.Login)
	if paymentHandler != nil {
		api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)
	}

	// Protected routes
	api.Post("/verify-token", authRequired, authHandler.VerifyToken)

	user := api.Group("/user", authRequired)
	user.Get("/profile", userHandler.GetProfile)
	user.Post("/upgrade", userHandler.Upgrade)
	user.Get("/usage", userHandler.GetUsage)
	user.Get("/purchases", userHandler.GetPurchases)

	aiRoutes := api.Group("/ai", authRequired)
	aiRoutes.Post("/generate-image", limits.Limit("image", middleware.LimitImage), aiHandler.GenerateImage)
	aiRoutes.Post("/remove-background", limits.Limit("background", middleware.LimitBackground), aiHandler.RemoveBackground)
	aiRoutes.Post("/generate-video", limits.Limit("video", middleware.LimitVideo), aiHandler.GenerateVideo)
	aiRoutes.Post("/generate-cv", aiHandler.GenerateCV)

	designs := api.Group("/designs", authRequired)
	designs.Get("/", designHandler.List)
	designs.Post("/", designHandler.Create)
	designs.Get("/:id", designHandler.Get)
	designs.Put("/:id", designHandler.Update)
	designs.Delete("/:id", designHandler.Delete)

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	if err := app.ShutdownWithTimeout(writeTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
