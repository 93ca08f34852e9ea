package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/chainhaven/custodian/cmd/custodian/container"
)

// RegisterAssetRoutes registers asset custody routes
func RegisterAssetRoutes(e *echo.Echo, c *container.Container) {
	api := e.Group("/api/v1")

	// POST /api/v1/assets - deposit a file and commit a CREATE transaction
	api.POST("/assets", c.AssetHandler.CreateAsset, c.UploadMiddleware...)

	// GET /api/v1/assets/:tx_id - metadata recorded for a handle
	api.GET("/assets/:tx_id", c.AssetHandler.GetAsset)

	// GET /api/v1/assets/:tx_id/content - deposited bytes
	api.GET("/assets/:tx_id/content", c.AssetHandler.GetAssetContent)

	// POST /api/v1/assets/:tx_id/transfer - move custody to a new owner
	api.POST("/assets/:tx_id/transfer", c.AssetHandler.TransferAsset)

	// POST /api/v1/keys - generate an owner key pair
	api.POST("/keys", c.KeysHandler.GenerateKeyPair)
}
