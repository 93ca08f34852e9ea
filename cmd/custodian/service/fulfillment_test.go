package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainhaven/custodian/common/logger"
	"github.com/chainhaven/custodian/common/models"
)

func testInfo(t *testing.T, ownerKey, ownerName string) models.FileInfo {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return models.FileInfo{
		CID:              "sha256:abc123",
		FileName:         "report.pdf",
		FileType:         "pdf",
		FileSize:         2048,
		CreationTime:     now,
		ModificationTime: now,
		OwnerKey:         ownerKey,
		OwnerName:        ownerName,
	}
}

func testEngine(t *testing.T) (*FulfillmentEngine, *TxBuilder) {
	t.Helper()
	log := logger.New("error", "json")
	return NewFulfillmentEngine(log), NewTxBuilder(log)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)

	signed, err := engine.Sign(unsigned, alice.PrivateKey)
	require.NoError(t, err)
	require.NotEmpty(t, signed.ID)
	require.NotEmpty(t, signed.Inputs[0].Fulfillment)

	// Sign does not touch its input
	assert.Empty(t, unsigned.ID)
	assert.Empty(t, unsigned.Inputs[0].Fulfillment)

	ok, err := engine.Verify(signed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignAssignsCanonicalID(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)

	signed, err := engine.Sign(unsigned, alice.PrivateKey)
	require.NoError(t, err)

	id, err := signed.ComputeID()
	require.NoError(t, err)
	assert.Equal(t, id, signed.ID)
}

func TestSignRejectsMismatchedKey(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)
	mallory := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)

	_, err = engine.Sign(unsigned, mallory.PrivateKey)
	assert.ErrorIs(t, err, models.ErrInvalidKey)
}

func TestSignTransferWrongSignerIsUnauthorized(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)
	bob := mustGenerate(t)
	mallory := mustGenerate(t)

	create, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	signedCreate, err := engine.Sign(create, alice.PrivateKey)
	require.NoError(t, err)

	transfer, err := builder.PrepareTransfer(signedCreate, bob.PublicKey, "Bob")
	require.NoError(t, err)

	_, err = engine.Sign(transfer, mallory.PrivateKey)
	assert.ErrorIs(t, err, models.ErrUnauthorizedTransfer)
}

func TestSignMalformedKey(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)

	_, err = engine.Sign(unsigned, "garbage")
	assert.ErrorIs(t, err, models.ErrInvalidKey)
}

func TestVerifyTamperedBody(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	signed, err := engine.Sign(unsigned, alice.PrivateKey)
	require.NoError(t, err)

	// The id no longer matches the tampered body: not authorized, not an error
	signed.Asset.Data.Description = "tampered"
	ok, err := engine.Verify(signed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyForeignSignature(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)
	mallory := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	signed, err := engine.Sign(unsigned, alice.PrivateKey)
	require.NoError(t, err)

	// Swap in a signature from the wrong key over the same bytes
	forged, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	forged.Inputs[0].OwnersBefore = []string{mallory.PublicKey}
	forgedSigned, err := engine.Sign(forged, mallory.PrivateKey)
	require.NoError(t, err)

	signed.Inputs[0].Fulfillment = forgedSigned.Inputs[0].Fulfillment
	id, err := signed.ComputeID()
	require.NoError(t, err)
	signed.ID = id

	ok, err := engine.Verify(signed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMalformedMaterial(t *testing.T) {
	engine, builder := testEngine(t)
	alice := mustGenerate(t)

	unsigned, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	signed, err := engine.Sign(unsigned, alice.PrivateKey)
	require.NoError(t, err)

	t.Run("unfulfilled input", func(t *testing.T) {
		tx := *signed
		tx.Inputs = []models.Input{{OwnersBefore: signed.Inputs[0].OwnersBefore}}
		id, err := tx.ComputeID()
		require.NoError(t, err)
		tx.ID = id
		_, err = engine.Verify(&tx)
		assert.ErrorIs(t, err, models.ErrMalformedAsset)
	})

	t.Run("broken owner key", func(t *testing.T) {
		tx := *signed
		tx.Inputs = []models.Input{{
			OwnersBefore: []string{"not a key"},
			Fulfillment:  signed.Inputs[0].Fulfillment,
		}}
		id, err := tx.ComputeID()
		require.NoError(t, err)
		tx.ID = id
		_, err = engine.Verify(&tx)
		assert.ErrorIs(t, err, models.ErrInvalidKey)
	})

	t.Run("fulfillment not base64", func(t *testing.T) {
		tx := *signed
		tx.Inputs = []models.Input{{
			OwnersBefore: signed.Inputs[0].OwnersBefore,
			Fulfillment:  "%%%",
		}}
		id, err := tx.ComputeID()
		require.NoError(t, err)
		tx.ID = id
		_, err = engine.Verify(&tx)
		assert.ErrorIs(t, err, models.ErrMalformedAsset)
	})
}

func TestVerifyIndependentOfSigner(t *testing.T) {
	// Verification needs only the transaction itself; any holder of the
	// record can check it
	engine, builder := testEngine(t)
	alice := mustGenerate(t)
	bob := mustGenerate(t)

	create, err := builder.PrepareCreate(testInfo(t, alice.PublicKey, "Alice"), "")
	require.NoError(t, err)
	signedCreate, err := engine.Sign(create, alice.PrivateKey)
	require.NoError(t, err)

	transfer, err := builder.PrepareTransfer(signedCreate, bob.PublicKey, "Bob")
	require.NoError(t, err)
	signedTransfer, err := engine.Sign(transfer, alice.PrivateKey)
	require.NoError(t, err)

	otherEngine := NewFulfillmentEngine(logger.New("error", "json"))
	ok, err := otherEngine.Verify(signedTransfer)
	require.NoError(t, err)
	assert.True(t, ok)
}
