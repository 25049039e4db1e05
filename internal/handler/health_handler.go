package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/pkg/ai"
	"go.uber.org/zap"
)

const apiVersion = "2.0.0"

// Counter reports the number of stored rows of one kind.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type HealthStats struct {
	TotalUsers   int64 `json:"total_users"`
	TotalDesigns int64 `json:"total_designs"`
}

type HealthResponse struct {
	Status     string       `json:"status"`
	Timestamp  time.Time    `json:"timestamp"`
	Version    string       `json:"version"`
	Stats      *HealthStats `json:"stats,omitempty"`
	AIFeatures ai.Features  `json:"ai_features"`
	Error      string       `json:"error,omitempty"`
}

type HealthHandler struct {
	users    Counter
	designs  Counter
	features ai.Features
	logger   *zap.Logger
	now      func() time.Time
}

func NewHealthHandler(users, designs Counter, features ai.Features, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		users:    users,
		designs:  designs,
		features: features,
		logger:   orNop(logger),
		now:      time.Now,
	}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:     "healthy",
		Timestamp:  h.now().UTC(),
		Version:    apiVersion,
		AIFeatures: h.features,
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	users, err := h.users.Count(ctx)
	if err == nil {
		var designs int64
		designs, err = h.designs.Count(ctx)
		resp.Stats = &HealthStats{TotalUsers: users, TotalDesigns: designs}
	}
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Stats = nil
		resp.Error = "Database unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	return c.JSON(resp)
}
