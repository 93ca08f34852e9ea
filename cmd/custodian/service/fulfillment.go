package service

import (
	"crypto/ed25519"
	"fmt"

	"github.com/chainhaven/custodian/common/keys"
	"github.com/chainhaven/custodian/common/logger"
	"github.com/chainhaven/custodian/common/models"
)

// FulfillmentEngine signs prepared transactions and verifies
// fulfillments. Signing is refused outright when the supplied key does
// not match the declared signer, so an unauthorized transfer dies here,
// before anything reaches the ledger.
type FulfillmentEngine struct {
	log *logger.Logger
}

// NewFulfillmentEngine creates a new fulfillment engine
func NewFulfillmentEngine(log *logger.Logger) *FulfillmentEngine {
	return &FulfillmentEngine{log: log}
}

// Sign fulfills a prepared transaction with the given private key and
// assigns the content-addressed transaction id. The input transaction
// is not modified.
func (e *FulfillmentEngine) Sign(tx *models.Transaction, privateKeyB64 string) (*models.Transaction, error) {
	priv, err := keys.ParsePrivateKeyB64(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidKey, err)
	}
	signer := keys.PublicKeyFromPrivate(priv)

	// The signer must be the declared owner of every input. For a
	// TRANSFER the owners come from the output fetched off the ledger,
	// so a stale or foreign key cannot authorize the spend.
	for i, in := range tx.Inputs {
		if len(in.OwnersBefore) == 0 {
			return nil, fmt.Errorf("%w: input %d has no owners_before", models.ErrMalformedAsset, i)
		}
		if in.OwnersBefore[0] != signer {
			if tx.Operation == models.OperationTransfer {
				return nil, fmt.Errorf("%w: key belongs to %s, owner is %s",
					models.ErrUnauthorizedTransfer, signer, in.OwnersBefore[0])
			}
			return nil, fmt.Errorf("%w: key does not match the declared owner", models.ErrInvalidKey)
		}
	}

	canonical, err := tx.CanonicalBytes()
	if err != nil {
		return nil, err
	}

	signature := keys.EncodeToB64String(ed25519.Sign(priv, canonical))

	signed := *tx
	signed.Inputs = make([]models.Input, len(tx.Inputs))
	copy(signed.Inputs, tx.Inputs)
	for i := range signed.Inputs {
		signed.Inputs[i].Fulfillment = signature
	}

	id, err := signed.ComputeID()
	if err != nil {
		return nil, err
	}
	signed.ID = id

	e.log.Debug("fulfilled transaction", "tx_id", id, "operation", tx.Operation)
	return &signed, nil
}

// Verify checks a transaction's fulfillments against the declared
// owners. A well-formed signature that simply does not authorize the
// transaction yields (false, nil); structurally broken key or signature
// material yields an error.
func (e *FulfillmentEngine) Verify(tx *models.Transaction) (bool, error) {
	canonical, err := tx.CanonicalBytes()
	if err != nil {
		return false, err
	}

	// A tampered body no longer matches its content-addressed id
	id, err := tx.ComputeID()
	if err != nil {
		return false, err
	}
	if tx.ID != id {
		return false, nil
	}

	for i, in := range tx.Inputs {
		if len(in.OwnersBefore) == 0 {
			return false, fmt.Errorf("%w: input %d has no owners_before", models.ErrMalformedAsset, i)
		}
		if in.Fulfillment == "" {
			return false, fmt.Errorf("%w: input %d is unfulfilled", models.ErrMalformedAsset, i)
		}

		pub, err := keys.ParsePublicKeyB64(in.OwnersBefore[0])
		if err != nil {
			return false, fmt.Errorf("%w: %v", models.ErrInvalidKey, err)
		}

		signature, err := keys.DecodeStringB64(in.Fulfillment)
		if err != nil {
			return false, fmt.Errorf("%w: input %d fulfillment is not valid base64", models.ErrMalformedAsset, i)
		}

		if !ed25519.Verify(pub, canonical, signature) {
			return false, nil
		}
	}

	return true, nil
}
