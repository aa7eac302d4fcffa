package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatapp-client/internal/chaterr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

func TestUploadDetectsType(t *testing.T) {
	dir := t.TempDir()
	storage := New(dir, 1<<20, zap.NewNop().Sugar())

	result, err := storage.Upload(context.Background(), pngBytes)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.URL, URLPrefix))
	assert.True(t, strings.HasSuffix(result.Name, ".png"))
	assert.Equal(t, "image/png", result.MimeType)

	stored, err := os.ReadFile(filepath.Join(dir, result.Name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	text, err := storage.Upload(context.Background(), []byte("hello gophers"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text.Name, ".txt"))
}

func TestUploadIsContentAddressed(t *testing.T) {
	dir := t.TempDir()
	storage := New(dir, 1<<20, zap.NewNop().Sugar())

	first, err := storage.Upload(context.Background(), pngBytes)
	require.NoError(t, err)
	second, err := storage.Upload(context.Background(), pngBytes)
	require.NoError(t, err)
	assert.Equal(t, first.URL, second.URL)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temporary files")
}

func TestUploadRejects(t *testing.T) {
	storage := New(t.TempDir(), 8, zap.NewNop().Sugar())

	_, err := storage.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, chaterr.ErrInvalid)

	_, err = storage.Upload(context.Background(), []byte("more than eight bytes"))
	assert.ErrorIs(t, err, chaterr.ErrInvalid)
}
