package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/service"
	"go.uber.org/zap"
)

type DesignHandler struct {
	designService *service.DesignService
	logger        *zap.Logger
}

func NewDesignHandler(designService *service.DesignService, logger *zap.Logger) *DesignHandler {
	return &DesignHandler{
		designService: designService,
		logger:        orNop(logger),
	}
}

func designID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func invalidDesignID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid design ID"))
}

func (h *DesignHandler) List(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}

	designs, err := h.designService.List(c.UserContext(), email)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(designs, ""))
}

func (h *DesignHandler) Get(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := designID(c)
	if !ok {
		return invalidDesignID(c)
	}

	design, err := h.designService.Get(c.UserContext(), email, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(design, ""))
}

func (h *DesignHandler) Create(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	var req models.SaveDesignRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	design, err := h.designService.Create(c.UserContext(), email, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(design, "Design saved successfully"))
}

func (h *DesignHandler) Update(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := designID(c)
	if !ok {
		return invalidDesignID(c)
	}
	var req models.UpdateDesignRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	design, err := h.designService.Update(c.UserContext(), email, id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(design, "Design updated successfully"))
}

func (h *DesignHandler) Delete(c *fiber.Ctx) error {
	email, ok := userEmail(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := designID(c)
	if !ok {
		return invalidDesignID(c)
	}

	if err := h.designService.Delete(c.UserContext(), email, id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Design deleted successfully"))
}
