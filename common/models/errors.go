package models

import "errors"

// Custody error taxonomy. Every failure a custody operation can surface
// wraps exactly one of these, so callers can tell "never existed" from
// "exists but unreachable" from "exists but unauthorized".
var (
	// ErrStorage is returned when the content store is unreachable or rejects a deposit.
	ErrStorage = errors.New("content store unavailable")

	// ErrContentUnavailable is returned when the ledger record is valid but the bytes are missing.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrLedgerSubmit is returned when ledger submission fails transiently.
	ErrLedgerSubmit = errors.New("ledger submission failed")

	// ErrAssetNotFound is returned when no transaction exists for a handle.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrMalformedAsset is returned when a ledger record lacks the expected structure.
	ErrMalformedAsset = errors.New("malformed asset record")

	// ErrInvalidKey is returned when key material fails basic validity checks.
	ErrInvalidKey = errors.New("invalid key material")

	// ErrUnauthorizedTransfer is returned when the signer is not the recorded owner.
	ErrUnauthorizedTransfer = errors.New("signer is not the current owner")

	// ErrAlreadyTransferred is returned when the referenced output was already spent.
	ErrAlreadyTransferred = errors.New("asset output already transferred")
)
