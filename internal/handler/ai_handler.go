package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/service"
	"go.uber.org/zap"
)

// AIHandler exposes the feature calls. Successful results are written as
// top-level JSON objects.
type AIHandler struct {
	aiService *service.AIService
	logger    *zap.Logger
}

func NewAIHandler(aiService *service.AIService, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		aiService: aiService,
		logger:    orNop(logger),
	}
}

func (h *AIHandler) GenerateImage(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	var req models.GenerateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.aiService.GenerateImage(c.UserContext(), email, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(result)
}

func (h *AIHandler) RemoveBackground(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	var req models.RemoveBackgroundRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.aiService.RemoveBackground(c.UserContext(), email, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(result)
}

func (h *AIHandler) GenerateVideo(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	var req models.GenerateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.aiService.GenerateVideo(c.UserContext(), email, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(result)
}

func (h *AIHandler) GenerateCV(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	var req models.GenerateCVRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.aiService.GenerateCV(c.UserContext(), email, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(result)
}
