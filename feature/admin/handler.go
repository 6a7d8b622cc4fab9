package admin

import (
	"errors"
	"strings"

	"role-sync/core/host"
	"role-sync/core/logger"
	"role-sync/core/permission"
	"role-sync/core/store"
	"role-sync/feature/rolesync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for administrative operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the admin routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)
	app.Post("/reload", h.HandleReload)

	wl := app.Group("/whitelist")
	wl.Post("/reset", h.HandleWhitelistReset)
	wl.Put("/manage", h.HandleWhitelistManage)

	app.Post("/sync/:id", h.HandleResync)

	links := app.Group("/links")
	links.Post("/", h.HandleLink)
	links.Get("/:id", h.HandleGetLink)
	links.Delete("/:id", h.HandleUnlink)

	app.Get("/accounts/:platformID", h.HandleAccount)
}

// HandleStatus reports the bound backend and whitelist mode.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleReload re-reads the configuration and language files.
func (h *Handler) HandleReload(c *fiber.Ctx) error {
	if err := h.service.Reload(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  "reloaded",
		"message": h.service.Messages().Get("reload_complete"),
	})
}

// HandleWhitelistReset clears the whitelist and re-adds every linked account.
func (h *Handler) HandleWhitelistReset(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Resetting whitelist")

	res, err := h.service.ResetWhitelist(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  "reset",
		"cleared": res.Cleared,
		"added":   res.Added,
		"message": h.service.Messages().Format("whitelist_reset_complete", res.Cleared, res.Added),
	})
}

type manageRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandleWhitelistManage switches whitelist management on or off.
func (h *Handler) HandleWhitelistManage(c *fiber.Ctx) error {
	var req manageRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return h.badRequest(c, "body must be {\"enabled\": true|false}")
	}

	if err := h.service.SetManageWhitelist(c.Context(), *req.Enabled); err != nil {
		return h.fail(c, err)
	}

	key := "whitelist_disabled"
	if *req.Enabled {
		key = "whitelist_enabled"
	}
	return c.JSON(fiber.Map{
		"manage_whitelist": *req.Enabled,
		"message":          h.service.Messages().Get(key),
	})
}

// HandleResync queues a full sync for a game uuid or platform id.
func (h *Handler) HandleResync(c *fiber.Ctx) error {
	id := c.Params("id")
	link, err := h.service.Resync(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "queued",
		"link":    link,
		"message": h.service.Messages().Format("resync_queued", id),
	})
}

type linkRequest struct {
	PlatformID string `json:"platform_id"`
	GameID     string `json:"game_id"`
	Relink     bool   `json:"relink"`
}

// HandleLink links a platform account to a game account.
func (h *Handler) HandleLink(c *fiber.Ctx) error {
	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "malformed body")
	}
	req.PlatformID = strings.TrimSpace(req.PlatformID)
	if req.PlatformID == "" {
		return h.badRequest(c, "platform_id is required")
	}
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		return h.badRequest(c, "game_id must be a uuid")
	}

	link, err := h.service.Link(c.Context(), req.PlatformID, gameID, req.Relink)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"link":    link,
		"message": h.service.Messages().Format("link_created", link.PlatformID, link.GameID),
	})
}

// HandleGetLink looks a link up by game uuid or platform id.
func (h *Handler) HandleGetLink(c *fiber.Ctx) error {
	id := c.Params("id")
	link, err := h.service.FindLink(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if link == nil {
		return h.fail(c, rolesync.ErrNotLinked)
	}
	return c.JSON(link)
}

// HandleUnlink removes a link by game uuid or platform id.
func (h *Handler) HandleUnlink(c *fiber.Ctx) error {
	link, err := h.service.Unlink(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"link":    link,
		"message": h.service.Messages().Format("link_removed", link.PlatformID),
	})
}

// HandleAccount shows what the engine knows about a platform account.
func (h *Handler) HandleAccount(c *fiber.Ctx) error {
	acc, err := h.service.Account(c.Context(), c.Params("platformID"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(acc)
}

func (h *Handler) badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": h.service.Messages().Format("invalid_request", detail),
	})
}

// fail maps domain errors to a status and a localized message.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	msgs := h.service.Messages()
	body := fiber.Map{"details": err.Error()}

	var status int
	var conflict *store.ConflictError
	switch {
	case errors.Is(err, rolesync.ErrNotLinked):
		status = fiber.StatusNotFound
		body["error"] = msgs.Format("not_linked", c.Params("id", c.Params("platformID")))
	case errors.As(err, &conflict):
		status = fiber.StatusConflict
		body["error"] = msgs.Get("link_conflict")
		body["conflict"] = fiber.Map{
			"existing_game_id":     conflict.ExistingGameID,
			"existing_platform_id": conflict.ExistingPlatformID,
		}
	case errors.Is(err, store.ErrInvalidLink), errors.Is(err, rolesync.ErrInvalidFact):
		status = fiber.StatusBadRequest
		body["error"] = msgs.Format("invalid_request", err.Error())
	case errors.Is(err, permission.ErrBackendMissing):
		status = fiber.StatusServiceUnavailable
		body["error"] = msgs.Get("backend_missing")
	case errors.Is(err, rolesync.ErrFeatureDisabled):
		status = fiber.StatusConflict
		body["error"] = msgs.Get("whitelist_not_enabled")
	case errors.Is(err, rolesync.ErrStopped), errors.Is(err, host.ErrStopped), errors.Is(err, ErrReloadUnsupported):
		status = fiber.StatusServiceUnavailable
		body["error"] = msgs.Get("command_error")
	default:
		status = fiber.StatusInternalServerError
		body["error"] = msgs.Get("command_error")
		logger.WithRayID(h.service.logger, c).Error("Admin operation failed",
			zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}
