package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveKeepsExtensionAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.Save(strings.NewReader("proof-bytes"), "receipt.PNG")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "proof-bytes", string(data))
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	first, err := store.Save(strings.NewReader("a"), "proof.jpg")
	require.NoError(t, err)
	second, err := store.Save(strings.NewReader("b"), "proof.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
