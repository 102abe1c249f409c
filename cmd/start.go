package cmd

import (
	"fmt"

	"dailies/core/loader"
	"dailies/core/logger"
	"dailies/core/middleware/auth"
	"dailies/core/middleware/rayid"
	"dailies/feature/integrity"
	"dailies/feature/review"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "dailies/docs/swagger"
)

// @title Dailies Review API
// @version 1.0
// @description Read-only access to plans, executor reports, verification outcomes and the run log.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the read-only review server",
	Long: `Starts the HTTP review server. It serves fresh plans for every configured
pair and the run log. Nothing is ever executed through the API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			logg := a.logger
			if !a.cfg.Server.IsValidPort() {
				return fmt.Errorf("invalid server port %q", a.cfg.Server.Port)
			}

			// 1. Planners for every configured pair
			var planners []review.Planner
			if svc, err := a.ingest(); err == nil {
				planners = append(planners, svc)
			}
			if svc, err := a.proxy(); err == nil {
				planners = append(planners, svc)
			}
			if svc, err := a.backup(); err == nil {
				planners = append(planners, svc)
			} else {
				logg.Info("Backup pair not planned", zap.Error(err))
			}

			health, err := a.integrity()
			if err != nil {
				return err
			}

			// 2. Initialize Fiber App
			app := fiber.New(fiber.Config{
				DisableStartupMessage: true, // We will log our own startup message
			})

			// 3. Initialize Feature Loader
			mgr := loader.NewManager(logg)
			mgr.Register(review.NewFeature(review.NewService(a.store, logg, planners...), true))
			mgr.Register(integrity.NewFeature(health))

			// Middleware Registration
			// 1. RayID (Must be first to trace everything)
			app.Use(rayid.New())

			// 2. Logging Middleware (Zap + RayID)
			app.Use(func(c *fiber.Ctx) error {
				l := logger.WithRayID(logg, c)
				l.Info("Request started",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.String("ip", c.IP()),
				)
				err := c.Next()
				if err != nil {
					l.Error("Request error", zap.Error(err))
				}
				return err
			})

			// 3. Swagger Documentation (Public)
			app.Get("/swagger/*", swagger.HandlerDefault)

			// 4. Auth (Protect API)
			app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

			// 5. Load Features
			if err := mgr.LoadAll(app); err != nil {
				return err
			}

			// 6. Start Server
			errc := make(chan error, 1)
			go func() {
				logg.Info("Starting server",
					zap.String("address", a.cfg.Server.Address()),
					zap.Int("planners", len(planners)),
					zap.Bool("run_log", a.store != nil))
				errc <- app.Listen(a.cfg.Server.Address())
			}()

			// 7. Graceful Shutdown on interrupt
			select {
			case err := <-errc:
				return fmt.Errorf("server failed: %w", err)
			case <-cmd.Context().Done():
			}
			logg.Info("Shutting down server...")
			return app.Shutdown()
		})
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
