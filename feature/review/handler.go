package review

import (
	"errors"

	"dailies/core/index"
	"dailies/core/logger"
	"dailies/core/reconcile"
	"dailies/core/runlog"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the review API.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the review routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	runs := app.Group("/runs")
	runs.Get("/", h.HandleListRuns)
	runs.Get("/:id", h.HandleGetRun)

	plans := app.Group("/plans")
	plans.Get("/", h.HandleListPairs)
	plans.Get("/:pair", h.HandleGetPlan)
}

// RunDetail is a run with its payload.
type RunDetail struct {
	Run     *runlog.Run     `json:"run"`
	Payload *runlog.Payload `json:"payload"`
}

// PlanView is a previewed plan with the index health of both roots.
type PlanView struct {
	Plan   *reconcile.Plan `json:"plan"`
	Source IndexHealth     `json:"source"`
	Target IndexHealth     `json:"target"`
}

// IndexHealth summarizes one root's index.
type IndexHealth struct {
	Location   string            `json:"location"`
	Entries    int               `json:"entries"`
	Bytes      int64             `json:"bytes"`
	Partial    bool              `json:"partial"`
	Errors     []index.FileError `json:"errors"`
	Collisions []index.Collision `json:"collisions"`
}

func health(idx *index.SetIndex) IndexHealth {
	h := IndexHealth{
		Location:   idx.Location,
		Entries:    idx.Len(),
		Bytes:      idx.TotalBytes(),
		Partial:    idx.Partial(),
		Errors:     idx.Errors,
		Collisions: idx.Collisions,
	}
	if h.Errors == nil {
		h.Errors = []index.FileError{}
	}
	if h.Collisions == nil {
		h.Collisions = []index.Collision{}
	}
	return h
}

// HandleListRuns returns recent runs.
// @Summary List Runs
// @Description List recent runs, newest first, without payloads.
// @Tags runs
// @Produce json
// @Param pair query string false "Pair name (ingest, proxy, backup, backsync, package)"
// @Param limit query int false "Maximum number of runs" default(50)
// @Success 200 {array} runlog.Run "Runs"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.Runs(c.Context(), runlog.ListOptions{
		Pair:  c.Query("pair"),
		Limit: c.QueryInt("limit", 50),
	})
	if err != nil {
		l.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}

// HandleGetRun returns one run with its payload.
// @Summary Get Run
// @Description Get a run with its plan, executor report and gate outcome.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} RunDetail "Run"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	l := logger.WithRayID(h.service.logger, c)

	run, payload, err := h.service.Run(c.Context(), id)
	if errors.Is(err, runlog.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Failed to get run", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(RunDetail{Run: run, Payload: payload})
}

// HandleListPairs returns the plannable pairs.
// @Summary List Pairs
// @Description List the pairs that can be planned.
// @Tags plans
// @Produce json
// @Success 200 {array} string "Pairs"
// @Router /plans [get]
func (h *Handler) HandleListPairs(c *fiber.Ctx) error {
	return c.JSON(h.service.Pairs())
}

// HandleGetPlan previews a pair.
// @Summary Preview Plan
// @Description Index both roots of a pair and return the plan. Nothing is executed.
// @Tags plans
// @Produce json
// @Param pair path string true "Pair name (ingest, proxy, backup)"
// @Success 200 {object} PlanView "Plan"
// @Failure 404 {object} map[string]string "Unknown pair"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /plans/{pair} [get]
func (h *Handler) HandleGetPlan(c *fiber.Ctx) error {
	pair := c.Params("pair")
	l := logger.WithRayID(h.service.logger, c)

	planned, err := h.service.Plan(c.Context(), pair)
	if errors.Is(err, ErrUnknownPair) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Failed to plan pair", zap.String("pair", pair), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(PlanView{Plan: planned.Plan, Source: health(planned.Source), Target: health(planned.Target)})
}
