package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chainhaven/custodian/common/bootstrap"
	"github.com/chainhaven/custodian/common/keys"
)

// KeysHandler issues fresh owner key pairs. Convenience for clients
// that cannot generate keys locally; nothing is stored server-side.
type KeysHandler struct {
	components *bootstrap.Components
}

// NewKeysHandler creates a new keys handler
func NewKeysHandler(components *bootstrap.Components) *KeysHandler {
	return &KeysHandler{components: components}
}

// GenerateKeyPair returns a new ed25519 key pair
// POST /api/v1/keys
func (h *KeysHandler) GenerateKeyPair(c echo.Context) error {
	pair, err := keys.Generate()
	if err != nil {
		h.components.Logger.Error("key generation failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate key pair")
	}

	return c.JSON(http.StatusCreated, pair)
}
