package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chainhaven/custodian/common/models"
)

// HTTPLedger talks to a remote transaction ledger over its HTTP API.
// The remote node validates fulfillments and enforces single-spend of
// outputs on commit.
type HTTPLedger struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// commitResponse is the subset of the commit response we consume
type commitResponse struct {
	ID string `json:"id"`
}

// NewHTTPLedger creates a ledger client for a remote node
func NewHTTPLedger(baseURL string, httpClient *HTTPClient, logger Logger) *HTTPLedger {
	return &HTTPLedger{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Submit commits a fulfilled transaction to the remote ledger
func (l *HTTPLedger) Submit(ctx context.Context, tx *models.Transaction) (string, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	url := l.baseURL + "/v1/transactions/commit"
	headers := map[string]string{"Content-Type": "application/json"}

	resp, err := l.http.DoRequestWithHeaders(ctx, http.MethodPost, url, bytes.NewReader(body), headers)
	if err != nil {
		return "", fmt.Errorf("ledger commit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var committed commitResponse
		if err := json.NewDecoder(resp.Body).Decode(&committed); err != nil {
			return "", fmt.Errorf("failed to decode commit response: %w", err)
		}
		if committed.ID == "" {
			// Some nodes answer commits with an empty body
			return tx.ID, nil
		}
		return committed.ID, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	reason := string(msg)

	if resp.StatusCode == http.StatusConflict || strings.Contains(reason, "DoubleSpend") {
		return "", fmt.Errorf("%w: %s", ErrDuplicateSpend, tx.SpendEdge())
	}

	l.logger.Warn("ledger rejected transaction", "status", resp.StatusCode, "reason", reason)
	return "", fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, reason)
}

// Fetch retrieves a committed transaction by id
func (l *HTTPLedger) Fetch(ctx context.Context, txID string) (*models.Transaction, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s", l.baseURL, txID)

	resp, err := l.http.DoRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txID)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(msg))
	}

	var tx models.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", txID, err)
	}

	return &tx, nil
}
