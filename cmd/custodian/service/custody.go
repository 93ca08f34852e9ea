package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainhaven/custodian/common/clients"
	"github.com/chainhaven/custodian/common/logger"
	"github.com/chainhaven/custodian/common/models"
)

// CustodyService coordinates the content store, transaction builder,
// fulfillment engine, and ledger. It holds no mutable state between
// calls: every invocation is independent and safe to run concurrently,
// and all durable state lives in the store and the ledger.
type CustodyService struct {
	store   clients.ContentStore
	ledger  clients.Ledger
	builder *TxBuilder
	engine  *FulfillmentEngine

	storeTimeout  time.Duration
	ledgerTimeout time.Duration

	log *logger.Logger
}

// NewCustodyService creates a new custody service
func NewCustodyService(
	store clients.ContentStore,
	ledger clients.Ledger,
	builder *TxBuilder,
	engine *FulfillmentEngine,
	storeTimeout, ledgerTimeout time.Duration,
	log *logger.Logger,
) *CustodyService {
	return &CustodyService{
		store:         store,
		ledger:        ledger,
		builder:       builder,
		engine:        engine,
		storeTimeout:  storeTimeout,
		ledgerTimeout: ledgerTimeout,
		log:           log,
	}
}

// CreateAsset deposits staged content and commits a CREATE transaction.
// Nothing is retried here: content addressing makes a retried deposit
// converge on the same cid, and a failed ledger submit leaves only an
// orphaned-but-harmless blob behind.
func (s *CustodyService) CreateAsset(ctx context.Context, staged *StagedFile, ownerName, ownerPublicKey, ownerPrivateKey string) (*models.Transaction, error) {
	content, err := staged.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	cid, err := s.store.Put(storeCtx, content, staged.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	now := time.Now().UTC()
	info := models.FileInfo{
		CID:              cid,
		FileName:         staged.Name(),
		FileType:         fileTypeOf(staged.Name()),
		FileSize:         staged.Size(),
		CreationTime:     now,
		ModificationTime: now,
		OwnerKey:         ownerPublicKey,
		OwnerName:        ownerName,
	}

	unsigned, err := s.builder.PrepareCreate(info, "")
	if err != nil {
		return nil, err
	}

	signed, err := s.engine.Sign(unsigned, ownerPrivateKey)
	if err != nil {
		return nil, err
	}

	ledgerCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	txID, err := s.ledger.Submit(ledgerCtx, signed)
	if err != nil {
		// The stored content stays: it is addressed by hash and a
		// retried create will reuse it
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerSubmit, err)
	}

	s.log.Info("asset created",
		"tx_id", txID,
		"cid", cid,
		"owner_name", ownerName,
		"file_name", info.FileName,
		"file_size", info.FileSize,
	)

	return signed, nil
}

// TransferAsset moves custody of the asset behind the handle to a new
// owner. The current owner is read from the ledger immediately before
// signing, so a stale claim of ownership cannot authorize the spend.
func (s *CustodyService) TransferAsset(ctx context.Context, handle, newOwnerPublicKey, newOwnerName, currentOwnerPrivateKey string) (*models.Transaction, error) {
	prior, err := s.fetchTx(ctx, handle)
	if err != nil {
		return nil, err
	}

	unsigned, err := s.builder.PrepareTransfer(prior, newOwnerPublicKey, newOwnerName)
	if err != nil {
		return nil, err
	}

	signed, err := s.engine.Sign(unsigned, currentOwnerPrivateKey)
	if err != nil {
		return nil, err
	}

	ok, err := s.engine.Verify(signed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: fulfillment failed verification", models.ErrUnauthorizedTransfer)
	}

	ledgerCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	txID, err := s.ledger.Submit(ledgerCtx, signed)
	if err != nil {
		if errors.Is(err, clients.ErrDuplicateSpend) {
			return nil, fmt.Errorf("%w: %s", models.ErrAlreadyTransferred, handle)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerSubmit, err)
	}

	s.log.Info("asset transferred",
		"tx_id", txID,
		"prior_tx_id", prior.ID,
		"asset_id", signed.AssetID(),
		"new_owner_name", newOwnerName,
	)

	return signed, nil
}

// RetrieveAsset fetches the metadata and content behind a handle. A
// missing ledger record and missing content are distinct failures:
// "never existed" is not "exists but currently unreachable".
func (s *CustodyService) RetrieveAsset(ctx context.Context, handle string) (*models.FileInfo, []byte, error) {
	info, _, err := s.DescribeAsset(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	content, err := s.store.Get(storeCtx, info.CID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cid %s: %v", models.ErrContentUnavailable, info.CID, err)
	}

	return info, content, nil
}

// DescribeAsset fetches the transaction behind a handle and extracts
// its file-info snapshot without touching the content store.
func (s *CustodyService) DescribeAsset(ctx context.Context, handle string) (*models.FileInfo, *models.Transaction, error) {
	tx, err := s.fetchTx(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	info, err := tx.CurrentFileInfo()
	if err != nil {
		return nil, nil, err
	}

	return info, tx, nil
}

// fetchTx reads a transaction from the ledger, mapping backend failures
// into the custody taxonomy
func (s *CustodyService) fetchTx(ctx context.Context, handle string) (*models.Transaction, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: empty handle", models.ErrAssetNotFound)
	}

	ledgerCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	tx, err := s.ledger.Fetch(ledgerCtx, handle)
	if err != nil {
		if errors.Is(err, clients.ErrTxNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrAssetNotFound, handle)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerSubmit, err)
	}

	return tx, nil
}

// fileTypeOf derives the file type from the extension
func fileTypeOf(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(ext)
}
