package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainhaven/custodian/common/logger"
	"github.com/chainhaven/custodian/common/models"
)

func testBuilder(t *testing.T) *TxBuilder {
	t.Helper()
	return NewTxBuilder(logger.New("error", "json"))
}

func TestPrepareCreate(t *testing.T) {
	builder := testBuilder(t)
	alice := mustGenerate(t)

	tx, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "my deed")
	require.NoError(t, err)

	assert.Equal(t, models.OperationCreate, tx.Operation)
	assert.Equal(t, models.TransactionVersion, tx.Version)
	assert.Empty(t, tx.ID)
	assert.Nil(t, tx.Inputs[0].Fulfills)
	assert.Equal(t, []string{alice.PublicKey}, tx.Inputs[0].OwnersBefore)
	assert.Equal(t, []string{alice.PublicKey}, tx.Outputs[0].PublicKeys)
	assert.Equal(t, "my deed", tx.Asset.Data.Description)
}

func TestPrepareCreateDefaultDescription(t *testing.T) {
	builder := testBuilder(t)
	alice := mustGenerate(t)

	tx, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	assert.Equal(t, "File 'report.pdf' uploaded by Alice", tx.Asset.Data.Description)
}

func TestPrepareCreateRejections(t *testing.T) {
	builder := testBuilder(t)
	alice := mustGenerate(t)

	t.Run("missing cid", func(t *testing.T) {
		info := testInfo(t, alice.PublicKey, "Alice")
		info.CID = ""
		_, err := builder.PrepareCreate(info, "")
		assert.ErrorIs(t, err, models.ErrMalformedAsset)
	})

	t.Run("malformed owner key", func(t *testing.T) {
		info := testInfo(t, "not-a-key", "Alice")
		_, err := builder.PrepareCreate(info, "")
		assert.ErrorIs(t, err, models.ErrInvalidKey)
	})
}

func TestPrepareTransfer(t *testing.T) {
	builder := testBuilder(t)
	engine := NewFulfillmentEngine(logger.New("error", "json"))
	alice := mustGenerate(t)
	bob := mustGenerate(t)

	create, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	prior, err := engine.Sign(create, alice.PrivateKey)
	require.NoError(t, err)

	tx, err := builder.PrepareTransfer(prior, bob.PublicKey, "Bob")
	require.NoError(t, err)

	assert.Equal(t, models.OperationTransfer, tx.Operation)
	assert.Equal(t, prior.ID, tx.Asset.ID)
	assert.Nil(t, tx.Asset.Data)
	assert.Equal(t, []string{alice.PublicKey}, tx.Inputs[0].OwnersBefore)
	require.NotNil(t, tx.Inputs[0].Fulfills)
	assert.Equal(t, prior.ID, tx.Inputs[0].Fulfills.TransactionID)
	assert.Equal(t, 0, tx.Inputs[0].Fulfills.OutputIndex)
	assert.Equal(t, []string{bob.PublicKey}, tx.Outputs[0].PublicKeys)

	// Owner fields updated, file identity untouched
	priorInfo, err := prior.CurrentFileInfo()
	require.NoError(t, err)
	snap := tx.Metadata.FileInfo
	assert.Equal(t, bob.PublicKey, snap.OwnerKey)
	assert.Equal(t, "Bob", snap.OwnerName)
	assert.Equal(t, priorInfo.CID, snap.CID)
	assert.Equal(t, priorInfo.FileName, snap.FileName)
	assert.Equal(t, priorInfo.FileType, snap.FileType)
	assert.Equal(t, priorInfo.FileSize, snap.FileSize)
	assert.Equal(t, priorInfo.CreationTime, snap.CreationTime)
	assert.Equal(t, priorInfo.ModificationTime, snap.ModificationTime)
}

func TestPrepareTransferChainsFromTransfer(t *testing.T) {
	builder := testBuilder(t)
	engine := NewFulfillmentEngine(logger.New("error", "json"))
	alice := mustGenerate(t)
	bob := mustGenerate(t)
	carol := mustGenerate(t)

	create, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	signedCreate, err := engine.Sign(create, alice.PrivateKey)
	require.NoError(t, err)

	toBob, err := builder.PrepareTransfer(signedCreate, bob.PublicKey, "Bob")
	require.NoError(t, err)
	signedToBob, err := engine.Sign(toBob, alice.PrivateKey)
	require.NoError(t, err)

	toCarol, err := builder.PrepareTransfer(signedToBob, carol.PublicKey, "Carol")
	require.NoError(t, err)

	// Asset id stays pinned to the CREATE; the spend edge advances
	assert.Equal(t, signedCreate.ID, toCarol.Asset.ID)
	assert.Equal(t, signedToBob.ID, toCarol.Inputs[0].Fulfills.TransactionID)
	assert.Equal(t, []string{bob.PublicKey}, toCarol.Inputs[0].OwnersBefore)
}

func TestPrepareTransferRejections(t *testing.T) {
	builder := testBuilder(t)
	engine := NewFulfillmentEngine(logger.New("error", "json"))
	alice := mustGenerate(t)
	bob := mustGenerate(t)

	create, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	prior, err := engine.Sign(create, alice.PrivateKey)
	require.NoError(t, err)

	t.Run("malformed new owner key", func(t *testing.T) {
		_, err := builder.PrepareTransfer(prior, "not-a-key", "Bob")
		assert.ErrorIs(t, err, models.ErrInvalidKey)
	})

	t.Run("prior without id", func(t *testing.T) {
		unsigned := *prior
		unsigned.ID = ""
		_, err := builder.PrepareTransfer(&unsigned, bob.PublicKey, "Bob")
		assert.ErrorIs(t, err, models.ErrMalformedAsset)
	})

	t.Run("prior without file info", func(t *testing.T) {
		broken := *prior
		broken.Asset.Data = nil
		_, err := builder.PrepareTransfer(&broken, bob.PublicKey, "Bob")
		assert.ErrorIs(t, err, models.ErrMalformedAsset)
	})
}
