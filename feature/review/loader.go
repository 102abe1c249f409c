package review

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature creates the review feature.
func NewFeature(svc *Service, enabled bool) *Feature {
	return &Feature{service: svc, handler: NewHandler(svc), enabled: enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "review"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
