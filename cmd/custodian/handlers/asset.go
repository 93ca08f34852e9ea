package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chainhaven/custodian/cmd/custodian/service"
	"github.com/chainhaven/custodian/common/bootstrap"
	"github.com/chainhaven/custodian/common/models"
)

// AssetHandler handles asset custody operations
type AssetHandler struct {
	components *bootstrap.Components
	custodySvc *service.CustodyService
	maxUpload  int64
}

// transferRequest is the TRANSFER request body
type transferRequest struct {
	NewOwnerPublicKey      string `json:"new_owner_public_key"`
	NewOwnerName           string `json:"new_owner_name"`
	CurrentOwnerPrivateKey string `json:"current_owner_private_key"`
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(components *bootstrap.Components, custodySvc *service.CustodyService) *AssetHandler {
	return &AssetHandler{
		components: components,
		custodySvc: custodySvc,
		maxUpload:  components.Config.MaxUploadBytes(),
	}
}

// CreateAsset deposits a file and commits a CREATE transaction
// POST /api/v1/assets
func (h *AssetHandler) CreateAsset(c echo.Context) error {
	ownerName := c.FormValue("owner_name")
	ownerPublicKey := c.FormValue("owner_public_key")
	ownerPrivateKey := c.FormValue("owner_private_key")
	if ownerName == "" || ownerPublicKey == "" || ownerPrivateKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_name, owner_public_key and owner_private_key are required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer src.Close()

	staged, err := service.StageUpload(fileHeader.Filename, src, h.maxUpload)
	if err != nil {
		h.components.Logger.Warn("upload staging failed", "file_name", fileHeader.Filename, "error", err)
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	}
	defer staged.Release()

	tx, err := h.custodySvc.CreateAsset(c.Request().Context(), staged, ownerName, ownerPublicKey, ownerPrivateKey)
	if err != nil {
		h.components.Logger.Error("create asset failed", "file_name", staged.Name(), "error", err)
		return custodyHTTPError(err)
	}

	info, _ := tx.CurrentFileInfo()
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":    fmt.Sprintf("Asset created and committed with transaction ID: %s", tx.ID),
		"tx_id":      tx.ID,
		"content_id": info.CID,
		"file_info":  info,
	})
}

// GetAsset returns the metadata recorded for a handle
// GET /api/v1/assets/:tx_id
func (h *AssetHandler) GetAsset(c echo.Context) error {
	handle := c.Param("tx_id")

	info, tx, err := h.custodySvc.DescribeAsset(c.Request().Context(), handle)
	if err != nil {
		h.components.Logger.Warn("describe asset failed", "tx_id", handle, "error", err)
		return custodyHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tx_id":     tx.ID,
		"asset_id":  tx.AssetID(),
		"operation": tx.Operation,
		"file_info": info,
	})
}

// GetAssetContent streams the deposited bytes for a handle
// GET /api/v1/assets/:tx_id/content
func (h *AssetHandler) GetAssetContent(c echo.Context) error {
	handle := c.Param("tx_id")

	info, content, err := h.custodySvc.RetrieveAsset(c.Request().Context(), handle)
	if err != nil {
		h.components.Logger.Warn("retrieve asset failed", "tx_id", handle, "error", err)
		return custodyHTTPError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, info.FileName))
	return c.Blob(http.StatusOK, "application/octet-stream", content)
}

// TransferAsset moves custody to a new owner
// POST /api/v1/assets/:tx_id/transfer
func (h *AssetHandler) TransferAsset(c echo.Context) error {
	handle := c.Param("tx_id")

	req := new(transferRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid transfer request")
	}
	if req.NewOwnerPublicKey == "" || req.CurrentOwnerPrivateKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new_owner_public_key and current_owner_private_key are required")
	}

	tx, err := h.custodySvc.TransferAsset(
		c.Request().Context(),
		handle,
		req.NewOwnerPublicKey,
		req.NewOwnerName,
		req.CurrentOwnerPrivateKey,
	)
	if err != nil {
		h.components.Logger.Warn("transfer asset failed", "tx_id", handle, "error", err)
		return custodyHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tx_id":    tx.ID,
		"asset_id": tx.AssetID(),
		"message":  fmt.Sprintf("Ownership transferred to %s", req.NewOwnerName),
	})
}

// custodyHTTPError maps the custody error taxonomy onto HTTP statuses.
// Callers can still tell "never existed" (404) from "exists but
// unreachable" (502) from "exists but unauthorized" (403).
func custodyHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, models.ErrAssetNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrMalformedAsset):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrInvalidKey):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnauthorizedTransfer):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrAlreadyTransferred):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrStorage),
		errors.Is(err, models.ErrContentUnavailable),
		errors.Is(err, models.ErrLedgerSubmit):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
