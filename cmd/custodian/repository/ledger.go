package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chainhaven/custodian/common/clients"
	"github.com/chainhaven/custodian/common/db"
	"github.com/chainhaven/custodian/common/models"
)

// Verifier checks a transaction's fulfillment before it is accepted
type Verifier interface {
	Verify(tx *models.Transaction) (bool, error)
}

// LedgerRepository is the Postgres-backed append-only transaction log.
// It implements clients.Ledger. There are no update or delete paths;
// the unique constraint on the spend edge is what rejects double
// spends, so two racing transfers resolve in the database, not here.
type LedgerRepository struct {
	db       *db.DB
	verifier Verifier
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *db.DB, verifier Verifier) *LedgerRepository {
	return &LedgerRepository{db: db, verifier: verifier}
}

// EnsureSchema creates the ledger table if it does not exist
func EnsureSchema(ctx context.Context, db *db.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS ledger_tx (
			tx_id      TEXT PRIMARY KEY,
			operation  TEXT NOT NULL,
			asset_id   TEXT NOT NULL,
			spends     TEXT UNIQUE,
			body       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}

	return nil
}

// Submit appends a fulfilled transaction. Resubmitting an identical
// transaction id is accepted idempotently; spending an already-consumed
// output returns clients.ErrDuplicateSpend.
func (r *LedgerRepository) Submit(ctx context.Context, tx *models.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", clients.ErrRejected, err)
	}

	ok, err := r.verifier.Verify(tx)
	if err != nil {
		return "", fmt.Errorf("%w: fulfillment check failed: %v", clients.ErrRejected, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: invalid fulfillment", clients.ErrRejected)
	}

	body, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	var spends *string
	if edge := tx.SpendEdge(); edge != "" {
		spends = &edge
	}

	query := `
		INSERT INTO ledger_tx (tx_id, operation, asset_id, spends, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tx_id) DO NOTHING
	`

	_, err = r.db.Exec(ctx, query,
		tx.ID,
		tx.Operation,
		tx.AssetID(),
		spends,
		body,
		time.Now(),
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Unique violation on the spend edge: the referenced
			// output was already consumed by another transaction
			return "", fmt.Errorf("%w: %s", clients.ErrDuplicateSpend, tx.SpendEdge())
		}
		return "", fmt.Errorf("failed to append transaction: %w", err)
	}

	return tx.ID, nil
}

// Fetch retrieves a committed transaction by id
func (r *LedgerRepository) Fetch(ctx context.Context, txID string) (*models.Transaction, error) {
	query := `SELECT body FROM ledger_tx WHERE tx_id = $1`

	var body []byte
	err := r.db.QueryRow(ctx, query, txID).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", clients.ErrTxNotFound, txID)
		}
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}

	tx := &models.Transaction{}
	if err := json.Unmarshal(body, tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", txID, err)
	}

	return tx, nil
}

// ChainLength returns how many transactions reference an asset.
// Useful for provenance queries; not part of the custody hot path.
func (r *LedgerRepository) ChainLength(ctx context.Context, assetID string) (int, error) {
	query := `SELECT COUNT(*) FROM ledger_tx WHERE asset_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, assetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count asset chain: %w", err)
	}

	return count, nil
}
