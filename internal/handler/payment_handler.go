package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/service"
	"github.com/sefazor/designstudio-backend/pkg/payment"
	"go.uber.org/zap"
)

// WebhookParser verifies a signed Stripe payload.
type WebhookParser interface {
	ParseWebhook(payload []byte, signatureHeader string) (*payment.Event, error)
}

type PaymentHandler struct {
	parser      WebhookParser
	planService *service.PlanService
	logger      *zap.Logger
}

func NewPaymentHandler(parser WebhookParser, planService *service.PlanService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		parser:      parser,
		planService: planService,
		logger:      orNop(logger),
	}
}

func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := h.parser.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if errors.Is(err, payment.ErrNotCheckoutEvent) {
		return c.SendStatus(fiber.StatusOK)
	}
	if err != nil {
		h.logger.Warn("rejected stripe webhook", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid webhook signature"))
	}

	if err := h.planService.HandleCheckoutEvent(c.UserContext(), event); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
