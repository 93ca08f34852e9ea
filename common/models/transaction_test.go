package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainhaven/custodian/common/keys"
)

func testFileInfo(t *testing.T, ownerKey string) FileInfo {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return FileInfo{
		CID:              "sha256:abc123",
		FileName:         "report.pdf",
		FileType:         "pdf",
		FileSize:         2048,
		CreationTime:     now,
		ModificationTime: now,
		OwnerKey:         ownerKey,
		OwnerName:        "Alice",
	}
}

func testCreateTx(t *testing.T, ownerKey string) *Transaction {
	t.Helper()
	return &Transaction{
		Operation: OperationCreate,
		Version:   TransactionVersion,
		Asset: Asset{
			Data: &AssetData{
				FileInfo:    testFileInfo(t, ownerKey),
				Description: "quarterly report",
			},
		},
		Inputs:  []Input{{OwnersBefore: []string{ownerKey}}},
		Outputs: []Output{NewOutput(ownerKey)},
	}
}

func testTransferTx(t *testing.T, priorID, priorOwner, newOwner string) *Transaction {
	t.Helper()
	info := testFileInfo(t, newOwner)
	info.OwnerName = "Bob"
	return &Transaction{
		Operation: OperationTransfer,
		Version:   TransactionVersion,
		Asset:     Asset{ID: priorID},
		Inputs: []Input{{
			OwnersBefore: []string{priorOwner},
			Fulfills:     &OutputRef{TransactionID: priorID, OutputIndex: 0},
		}},
		Outputs:  []Output{NewOutput(newOwner)},
		Metadata: &Metadata{FileInfo: info},
	}
}

func mustKey(t *testing.T) string {
	t.Helper()
	pair, err := keys.Generate()
	require.NoError(t, err)
	return pair.PublicKey
}

func TestValidateCreate(t *testing.T) {
	owner := mustKey(t)

	require.NoError(t, testCreateTx(t, owner).Validate())

	t.Run("missing asset payload", func(t *testing.T) {
		tx := testCreateTx(t, owner)
		tx.Asset.Data = nil
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("missing cid", func(t *testing.T) {
		tx := testCreateTx(t, owner)
		tx.Asset.Data.FileInfo.CID = ""
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("fulfills on create", func(t *testing.T) {
		tx := testCreateTx(t, owner)
		tx.Inputs[0].Fulfills = &OutputRef{TransactionID: "x"}
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("wrong version", func(t *testing.T) {
		tx := testCreateTx(t, owner)
		tx.Version = "1.0"
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("no outputs", func(t *testing.T) {
		tx := testCreateTx(t, owner)
		tx.Outputs = nil
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("unknown operation", func(t *testing.T) {
		tx := testCreateTx(t, owner)
		tx.Operation = "BURN"
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})
}

func TestValidateTransfer(t *testing.T) {
	alice := mustKey(t)
	bob := mustKey(t)

	require.NoError(t, testTransferTx(t, "create-id", alice, bob).Validate())

	t.Run("missing asset id", func(t *testing.T) {
		tx := testTransferTx(t, "create-id", alice, bob)
		tx.Asset.ID = ""
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("missing fulfills", func(t *testing.T) {
		tx := testTransferTx(t, "create-id", alice, bob)
		tx.Inputs[0].Fulfills = nil
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		tx := testTransferTx(t, "create-id", alice, bob)
		tx.Metadata = nil
		assert.ErrorIs(t, tx.Validate(), ErrMalformedAsset)
	})
}

func TestCanonicalBytesDeterministic(t *testing.T) {
	owner := mustKey(t)
	tx := testCreateTx(t, owner)

	a, err := tx.CanonicalBytes()
	require.NoError(t, err)
	b, err := tx.CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Neither the id nor the fulfillment participates in the canonical form
	fulfilled := *tx
	fulfilled.ID = "some-id"
	fulfilled.Inputs = []Input{{OwnersBefore: tx.Inputs[0].OwnersBefore, Fulfillment: "sig"}}
	c, err := fulfilled.CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, a, c)

	// CanonicalBytes must not mutate the receiver
	assert.Equal(t, "some-id", fulfilled.ID)
	assert.Equal(t, "sig", fulfilled.Inputs[0].Fulfillment)
}

func TestComputeIDBindsContent(t *testing.T) {
	owner := mustKey(t)
	tx := testCreateTx(t, owner)

	id1, err := tx.ComputeID()
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	tx.Asset.Data.Description = "tampered"
	id2, err := tx.ComputeID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestAssetID(t *testing.T) {
	owner := mustKey(t)
	create := testCreateTx(t, owner)
	create.ID = "create-id"
	assert.Equal(t, "create-id", create.AssetID())

	transfer := testTransferTx(t, "create-id", owner, mustKey(t))
	transfer.ID = "transfer-id"
	assert.Equal(t, "create-id", transfer.AssetID())
}

func TestCurrentFileInfo(t *testing.T) {
	alice := mustKey(t)
	bob := mustKey(t)

	create := testCreateTx(t, alice)
	info, err := create.CurrentFileInfo()
	require.NoError(t, err)
	assert.Equal(t, alice, info.OwnerKey)

	transfer := testTransferTx(t, "create-id", alice, bob)
	info, err = transfer.CurrentFileInfo()
	require.NoError(t, err)
	assert.Equal(t, bob, info.OwnerKey)
	assert.Equal(t, "Bob", info.OwnerName)

	// Returned snapshot is a copy
	info.OwnerName = "Mallory"
	assert.Equal(t, "Bob", transfer.Metadata.FileInfo.OwnerName)

	broken := &Transaction{Operation: OperationCreate}
	_, err = broken.CurrentFileInfo()
	assert.ErrorIs(t, err, ErrMalformedAsset)
}

func TestSpendEdge(t *testing.T) {
	owner := mustKey(t)
	assert.Equal(t, "", testCreateTx(t, owner).SpendEdge())

	transfer := testTransferTx(t, "create-id", owner, mustKey(t))
	assert.Equal(t, "create-id:0", transfer.SpendEdge())
}

func TestNewOutput(t *testing.T) {
	owner := mustKey(t)
	out := NewOutput(owner)

	assert.Equal(t, []string{owner}, out.PublicKeys)
	assert.Equal(t, ConditionTypeEd25519, out.Condition.Details.Type)
	assert.Equal(t, owner, out.Condition.Details.PublicKey)
	assert.Contains(t, out.Condition.URI, "ni:///sha-256;")
	assert.Equal(t, "1", out.Amount)
}
