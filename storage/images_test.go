package storage

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveDataURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir)
	require.NoError(t, err)

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	path, err := store.SaveDataURL(dataURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/uploads/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(path, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, raw, written)
}

func TestSaveDataURLPassthrough(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	// Already-stored paths come back unchanged.
	path, err := store.SaveDataURL("/uploads/existing.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/existing.png", path)
}

func TestSaveDataURLRejectsUnsupported(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveDataURL("data:application/pdf;base64,AAAA")
	assert.Error(t, err)

	_, err = store.SaveDataURL("data:image/png;base64")
	assert.Error(t, err)
}
