package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/chainhaven/custodian/common/config"
)

// PinningStore stores content through a remote pinning service and reads
// it back through the service's public gateway. The cid is assigned by
// the pinning backend, which addresses pinned bytes by their digest.
type PinningStore struct {
	cfg    config.StoreConfig
	http   *HTTPClient
	logger Logger
}

// pinResponse is the subset of the pin API response we consume
type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// NewPinningStore creates a pinning service content store
func NewPinningStore(cfg config.StoreConfig, httpClient *HTTPClient, logger Logger) *PinningStore {
	return &PinningStore{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}

// Put pins the bytes and returns the cid assigned by the service
func (s *PinningStore) Put(ctx context.Context, data []byte, name string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build pin request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build pin request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build pin request: %w", err)
	}

	headers := map[string]string{
		"Content-Type":          writer.FormDataContentType(),
		"pinata_api_key":        s.cfg.PinAPIKey,
		"pinata_secret_api_key": s.cfg.PinSecret,
	}

	resp, err := s.http.DoRequestWithHeaders(ctx, http.MethodPost, s.cfg.PinEndpoint, &body, headers)
	if err != nil {
		return "", fmt.Errorf("pin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pinning service rejected content: status %d: %s", resp.StatusCode, string(msg))
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", fmt.Errorf("pinning service returned no cid")
	}

	s.logger.Info("pinned content", "cid", pinned.IpfsHash, "bytes", len(data))
	return pinned.IpfsHash, nil
}

// Get fetches the bytes for a cid from the gateway
func (s *PinningStore) Get(ctx context.Context, cid string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.PinGateway, "/"), cid)

	resp, err := s.http.DoRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cid)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d for cid %s", resp.StatusCode, cid)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	return data, nil
}
