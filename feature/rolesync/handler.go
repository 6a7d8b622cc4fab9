package rolesync

import (
	"errors"

	"role-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler accepts role facts over HTTP.
type Handler struct {
	bridge *Bridge
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(bridge *Bridge, logger *zap.Logger) *Handler {
	return &Handler{bridge: bridge, logger: logger}
}

// RegisterRoutes registers the event routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/events", h.HandleEvent)
}

type eventBatch struct {
	Facts []Fact `json:"facts"`
}

// HandleEvent queues one fact, or a batch under "facts", in body order.
func (h *Handler) HandleEvent(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var batch eventBatch
	if err := c.BodyParser(&batch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if len(batch.Facts) == 0 {
		var single Fact
		if err := c.BodyParser(&single); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
		}
		batch.Facts = []Fact{single}
	}

	for i, f := range batch.Facts {
		if err := f.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "index": i})
		}
	}

	for _, f := range batch.Facts {
		if err := h.bridge.Deliver(f); err != nil {
			l.Error("Failed to queue fact", zap.String("platform_id", f.PlatformID), zap.Error(err))
			status := fiber.StatusInternalServerError
			if errors.Is(err, ErrFeatureDisabled) || errors.Is(err, ErrStopped) {
				status = fiber.StatusServiceUnavailable
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "queued",
		"count":  len(batch.Facts),
	})
}
