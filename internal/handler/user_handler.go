package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	planService *service.PlanService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, planService *service.PlanService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		planService: planService,
		logger:      orNop(logger),
	}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.userService.GetProfile(c.UserContext(), email)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(profile, ""))
}

func (h *UserHandler) Upgrade(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.UpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.planService.Upgrade(c.UserContext(), email, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if result.Applied {
		return c.JSON(models.SuccessResponse(result, "Successfully upgraded to "+string(result.Plan)+" plan"))
	}
	return c.JSON(models.SuccessResponse(result, "Checkout session created"))
}

func (h *UserHandler) GetUsage(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}

	usage, err := h.userService.UsageHistory(c.UserContext(), email)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if usage == nil {
		usage = []models.UsageAnalytics{}
	}

	return c.JSON(models.SuccessResponse(usage, ""))
}

func (h *UserHandler) GetPurchases(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}

	purchases, err := h.planService.Purchases(c.UserContext(), email)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(purchases, ""))
}
