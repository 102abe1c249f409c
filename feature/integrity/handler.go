package integrity

import (
	"dailies/core/logger"
	"dailies/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/roots", h.HandleRootsCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/runlog", h.HandleRunLogCheck)
	group.Get("/tools", h.HandleToolsCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs every check (Roots, Storage, RunLog, Tools). Walking large roots may take a while.
// @Tags integrity
// @Produce json
// @Success 200 {object} Report "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")
	return c.JSON(h.service.CheckAll(c.Context()))
}

// HandleRootsCheck checks the configured roots.
// @Summary Check Roots
// @Description Checks that every configured root is a reachable directory without stale staging files.
// @Tags integrity
// @Produce json
// @Success 200 {array} checks.Result "Roots"
// @Router /integrity/roots [get]
func (h *Handler) HandleRootsCheck(c *fiber.Ctx) error {
	return c.JSON(h.service.CheckRoots())
}

// HandleStorageCheck checks the backup bucket.
// @Summary Check Storage
// @Description Checks that the backup bucket exists and can be listed.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.Result "Storage"
// @Failure 503 {object} checks.Result "Storage unreachable"
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	res := h.service.CheckStorage(c.Context())
	return c.Status(statusCode(res)).JSON(res)
}

// HandleRunLogCheck checks the run table schema.
// @Summary Check Run Log
// @Description Checks that the run table has every column the store writes.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.Result "Run log"
// @Failure 503 {object} checks.Result "Schema mismatch"
// @Router /integrity/runlog [get]
func (h *Handler) HandleRunLogCheck(c *fiber.Ctx) error {
	res := h.service.CheckRunLog()
	return c.Status(statusCode(res)).JSON(res)
}

// HandleToolsCheck looks up ffmpeg and ffprobe.
// @Summary Check Tools
// @Description Checks that the external binaries are on PATH.
// @Tags integrity
// @Produce json
// @Success 200 {array} checks.Result "Tools"
// @Router /integrity/tools [get]
func (h *Handler) HandleToolsCheck(c *fiber.Ctx) error {
	return c.JSON(h.service.CheckTools())
}

func statusCode(res checks.Result) int {
	if res.Status == checks.StatusError {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusOK
}
