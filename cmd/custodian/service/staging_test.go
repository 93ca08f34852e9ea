package service

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageUpload(t *testing.T) {
	staged, err := StageUpload("notes.txt", strings.NewReader("hello world"), 1024)
	require.NoError(t, err)
	defer staged.Release()

	assert.Equal(t, "notes.txt", staged.Name())
	assert.Equal(t, int64(11), staged.Size())

	data, err := staged.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestStageUploadStripsPath(t *testing.T) {
	staged, err := StageUpload("../../etc/passwd", strings.NewReader("x"), 1024)
	require.NoError(t, err)
	defer staged.Release()

	assert.Equal(t, "passwd", staged.Name())
}

func TestStageUploadSizeCap(t *testing.T) {
	_, err := StageUpload("big.bin", strings.NewReader("0123456789"), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")

	// Exactly at the cap is fine
	staged, err := StageUpload("ok.bin", strings.NewReader("0123456789"), 10)
	require.NoError(t, err)
	defer staged.Release()
	assert.Equal(t, int64(10), staged.Size())
}

func TestStagedFileRelease(t *testing.T) {
	staged, err := StageUpload("notes.txt", strings.NewReader("hello"), 1024)
	require.NoError(t, err)

	path := staged.path
	_, err = os.Stat(path)
	require.NoError(t, err)

	staged.Release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Idempotent
	staged.Release()

	_, err = staged.Bytes()
	assert.Error(t, err)
}
