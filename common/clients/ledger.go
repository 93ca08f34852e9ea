package clients

import (
	"context"
	"errors"

	"github.com/chainhaven/custodian/common/models"
)

// Ledger errors. Implementations translate backend-specific failures
// onto these so the custody core can map them into its own taxonomy.
var (
	// ErrTxNotFound is returned when no transaction exists for an id.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrDuplicateSpend is returned when the submitted transaction spends an already-consumed output.
	ErrDuplicateSpend = errors.New("output already spent")

	// ErrRejected is returned when the ledger refuses a transaction for any other reason.
	ErrRejected = errors.New("transaction rejected")
)

// Ledger is the append-only transaction log the custody core submits
// to. Once Submit returns an id the transaction is durable; there is no
// update or delete. The ledger is the sole arbiter of double spends:
// two racing transfers of the same output resolve to one acceptance and
// one ErrDuplicateSpend.
// All implementations must be context-aware and thread-safe.
type Ledger interface {
	// Submit appends a fulfilled transaction and returns its id.
	Submit(ctx context.Context, tx *models.Transaction) (string, error)

	// Fetch returns the transaction for an id, or ErrTxNotFound.
	Fetch(ctx context.Context, txID string) (*models.Transaction, error)
}
