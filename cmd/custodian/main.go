package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/chainhaven/custodian/cmd/custodian/container"
	"github.com/chainhaven/custodian/cmd/custodian/repository"
	"github.com/chainhaven/custodian/cmd/custodian/routes"
	"github.com/chainhaven/custodian/common/bootstrap"
	"github.com/chainhaven/custodian/common/config"
	"github.com/chainhaven/custodian/common/db"
	"github.com/chainhaven/custodian/common/middleware"
	"github.com/chainhaven/custodian/common/ratelimit"
	"github.com/chainhaven/custodian/common/server"
)

func main() {
	ctx := context.Background()

	// Load .env if present; real deployments use environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	// Load configuration first: which components we bootstrap depends on it
	cfg, err := config.Load("custodian")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Bootstrap common components (logger, DB, redis, telemetry)
	components, err := bootstrap.Setup(ctx, "custodian", bootstrapOptions(cfg)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap custodian: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		components.Logger.Error("Failed to initialize service container", "error", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e, serviceContainer)

	// Setup health check
	setupHealthCheck(e, serviceContainer)

	// Register all routes
	routes.RegisterAssetRoutes(e, serviceContainer)

	// Start with graceful shutdown
	srv := server.New("custodian", cfg.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// bootstrapOptions skips the components the configured backends don't need
func bootstrapOptions(cfg *config.Config) []bootstrap.Option {
	opts := []bootstrap.Option{bootstrap.WithCustomConfig(cfg)}

	if cfg.Ledger.Backend == "postgres" {
		opts = append(opts, bootstrap.WithDBInitHook(func(d *db.DB) error {
			return repository.EnsureSchema(context.Background(), d)
		}))
	} else {
		opts = append(opts, bootstrap.WithoutDB())
	}

	if cfg.Store.Backend != "redis" && !cfg.RateLimit.Enabled {
		opts = append(opts, bootstrap.WithoutRedis())
	}

	return opts
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, c *container.Container) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())

	cfg := c.Components.Config
	if cfg.RateLimit.Enabled && c.Components.Redis != nil {
		limiter := ratelimit.NewRateLimiter(c.Components.Redis.GetUnderlying(), c.Components.Logger)
		e.Use(middleware.GlobalRateLimitMiddleware(limiter, cfg.RateLimit.GlobalPerMin))
	}
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		if err := c.Components.Health(ec.Request().Context()); err != nil {
			return ec.JSON(503, map[string]string{
				"status":  "degraded",
				"service": "custodian",
				"error":   err.Error(),
			})
		}
		return ec.JSON(200, map[string]string{
			"status":  "ok",
			"service": "custodian",
		})
	})
}
