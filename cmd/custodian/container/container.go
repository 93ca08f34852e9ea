package container

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chainhaven/custodian/cmd/custodian/handlers"
	"github.com/chainhaven/custodian/cmd/custodian/repository"
	"github.com/chainhaven/custodian/cmd/custodian/service"
	"github.com/chainhaven/custodian/common/bootstrap"
	"github.com/chainhaven/custodian/common/clients"
	"github.com/chainhaven/custodian/common/middleware"
	"github.com/chainhaven/custodian/common/ratelimit"
)

// Container holds all initialized services and adapters (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Adapters
	ContentStore clients.ContentStore
	Ledger       clients.Ledger

	// Services
	TxBuilder         *service.TxBuilder
	FulfillmentEngine *service.FulfillmentEngine
	CustodyService    *service.CustodyService

	// Handlers
	AssetHandler *handlers.AssetHandler
	KeysHandler  *handlers.KeysHandler

	// Upload-path middleware (rate limiting when enabled)
	UploadMiddleware []echo.MiddlewareFunc
}

// NewContainer initializes all services and adapters once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Core engines first: the ledger verifies fulfillments on submit
	builder := service.NewTxBuilder(log)
	engine := service.NewFulfillmentEngine(log)

	// Content store per configuration
	store, err := clients.NewContentStore(cfg, components.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create content store: %w", err)
	}

	// Ledger per configuration
	var ledger clients.Ledger
	switch cfg.Ledger.Backend {
	case "postgres":
		if components.DB == nil {
			return nil, fmt.Errorf("postgres ledger requires a database connection")
		}
		ledger = repository.NewLedgerRepository(components.DB, engine)
	case "http":
		httpClient := clients.NewHTTPClient(&http.Client{Timeout: cfg.Ledger.Timeout}, log)
		ledger = clients.NewHTTPLedger(cfg.Ledger.BaseURL, httpClient, log)
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", cfg.Ledger.Backend)
	}

	custodyService := service.NewCustodyService(
		store,
		ledger,
		builder,
		engine,
		cfg.Store.Timeout,
		cfg.Ledger.Timeout,
		log,
	)

	c := &Container{
		Components:        components,
		ContentStore:      store,
		Ledger:            ledger,
		TxBuilder:         builder,
		FulfillmentEngine: engine,
		CustodyService:    custodyService,
		AssetHandler:      handlers.NewAssetHandler(components, custodyService),
		KeysHandler:       handlers.NewKeysHandler(components),
	}

	if cfg.RateLimit.Enabled && components.Redis != nil {
		limiter := ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
		c.UploadMiddleware = []echo.MiddlewareFunc{
			middleware.UploadRateLimitMiddleware(limiter, cfg.RateLimit.UploadsPerMin),
		}
	}

	return c, nil
}
