package rolesync

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	bridge  *Bridge
	handler *Handler
}

// NewFeature creates the role sync feature around a bridge.
func NewFeature(bridge *Bridge, logger *zap.Logger) *Feature {
	return &Feature{bridge: bridge, handler: NewHandler(bridge, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "rolesync"
}

// IsEnabled checks if the feature is enabled. Event ingestion stays
// mounted without a backend so senders get a clear refusal.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Bridge returns the underlying bridge.
func (f *Feature) Bridge() *Bridge {
	return f.bridge
}
