package service

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/chainhaven/custodian/common/keys"
	"github.com/chainhaven/custodian/common/logger"
	"github.com/chainhaven/custodian/common/models"
)

// TxBuilder constructs unsigned CREATE and TRANSFER transactions.
// Pure transformation: no network or storage calls.
type TxBuilder struct {
	log *logger.Logger
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder(log *logger.Logger) *TxBuilder {
	return &TxBuilder{log: log}
}

// PrepareCreate builds an unsigned CREATE transaction for a stored
// file. The description defaults to the upload summary when empty.
func (b *TxBuilder) PrepareCreate(info models.FileInfo, description string) (*models.Transaction, error) {
	if info.CID == "" {
		return nil, fmt.Errorf("%w: file info has no cid", models.ErrMalformedAsset)
	}
	if !keys.ValidatePublicKey(info.OwnerKey) {
		return nil, fmt.Errorf("%w: owner public key is malformed", models.ErrInvalidKey)
	}

	if description == "" {
		description = fmt.Sprintf("File '%s' uploaded by %s", info.FileName, info.OwnerName)
	}

	tx := &models.Transaction{
		Operation: models.OperationCreate,
		Version:   models.TransactionVersion,
		Asset: models.Asset{
			Data: &models.AssetData{
				FileInfo:    info,
				Description: description,
			},
		},
		Inputs: []models.Input{
			{OwnersBefore: []string{info.OwnerKey}},
		},
		Outputs: []models.Output{
			models.NewOutput(info.OwnerKey),
		},
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	return tx, nil
}

// PrepareTransfer builds an unsigned TRANSFER spending the prior
// transaction's output. The prior transaction must come from the
// ledger, never from client input; its output owners become
// owners_before and its id becomes the fulfills edge. File identity
// fields are carried over untouched; only the owner fields change.
func (b *TxBuilder) PrepareTransfer(prior *models.Transaction, newOwnerKey, newOwnerName string) (*models.Transaction, error) {
	if !keys.ValidatePublicKey(newOwnerKey) {
		return nil, fmt.Errorf("%w: new owner public key is malformed", models.ErrInvalidKey)
	}
	if prior.ID == "" {
		return nil, fmt.Errorf("%w: prior transaction has no id", models.ErrMalformedAsset)
	}

	priorOut, err := prior.OwnerOutput()
	if err != nil {
		return nil, err
	}

	// Created outside this protocol, or corrupted: refuse to extend the chain
	info, err := prior.CurrentFileInfo()
	if err != nil {
		return nil, err
	}

	updated, err := patchOwner(info, newOwnerKey, newOwnerName)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		Operation: models.OperationTransfer,
		Version:   models.TransactionVersion,
		Asset: models.Asset{
			ID: prior.AssetID(),
		},
		Inputs: []models.Input{
			{
				OwnersBefore: priorOut.PublicKeys,
				Fulfills: &models.OutputRef{
					TransactionID: prior.ID,
					OutputIndex:   0,
				},
			},
		},
		Outputs: []models.Output{
			models.NewOutput(newOwnerKey),
		},
		Metadata: &models.Metadata{FileInfo: *updated},
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	return tx, nil
}

// patchOwner merge-patches the owner fields over the prior file-info
// snapshot, leaving every file identity field exactly as recorded.
func patchOwner(info *models.FileInfo, ownerKey, ownerName string) (*models.FileInfo, error) {
	original, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize file info: %w", err)
	}

	patch, err := json.Marshal(map[string]string{
		"owner_key":  ownerKey,
		"owner_name": ownerName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build owner patch: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to apply owner patch: %w", err)
	}

	updated := &models.FileInfo{}
	if err := json.Unmarshal(merged, updated); err != nil {
		return nil, fmt.Errorf("failed to decode patched file info: %w", err)
	}

	return updated, nil
}
