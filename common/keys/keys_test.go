package keys

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoundTrip(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	priv, err := ParsePrivateKeyB64(pair.PrivateKey)
	require.NoError(t, err)
	assert.Len(t, priv, ed25519.PrivateKeySize)

	pub, err := ParsePublicKeyB64(pair.PublicKey)
	require.NoError(t, err)
	assert.Len(t, pub, ed25519.PublicKeySize)

	// The encoded public key derives back from the private half
	assert.Equal(t, pair.PublicKey, PublicKeyFromPrivate(priv))
}

func TestGenerateDistinctPairs(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.PublicKey, b.PublicKey)
}

func TestParsePrivateKeyB64Invalid(t *testing.T) {
	_, err := ParsePrivateKeyB64("not base64!!!")
	assert.Error(t, err)

	// Valid base64, wrong length
	_, err = ParsePrivateKeyB64(EncodeToB64String([]byte("short")))
	assert.Error(t, err)
}

func TestValidatePublicKey(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	assert.True(t, ValidatePublicKey(pair.PublicKey))
	assert.False(t, ValidatePublicKey(""))
	assert.False(t, ValidatePublicKey("%%%"))
	assert.False(t, ValidatePublicKey(EncodeToB64String([]byte("too short"))))
	// A private key is not a public key
	assert.False(t, ValidatePublicKey(pair.PrivateKey))
}

func TestSignatureRoundTrip(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	priv, err := ParsePrivateKeyB64(pair.PrivateKey)
	require.NoError(t, err)
	pub, err := ParsePublicKeyB64(pair.PublicKey)
	require.NoError(t, err)

	msg := []byte("custody message")
	sig := ed25519.Sign(priv, msg)

	decoded, err := DecodeStringB64(EncodeToB64String(sig))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, msg, decoded))
}
