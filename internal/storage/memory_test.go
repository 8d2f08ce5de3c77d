package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordsDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("/files")

	url, err := store.Store(ctx, strings.NewReader("img"), 3, "image/png", "a.png")
	require.NoError(t, err)
	assert.True(t, store.Exists(url))

	store.FailDelete("/files/broken.png", errors.New("boom"))

	require.NoError(t, store.Delete(ctx, url))
	require.Error(t, store.Delete(ctx, "/files/broken.png"))

	assert.False(t, store.Exists(url))
	assert.ElementsMatch(t, []string{"/files/broken.png", url}, store.Deleted())
}

func TestNewFromConfig_RejectsUnknownType(t *testing.T) {
	_, err := NewFromConfig(context.Background(), testConfig("ftp"))
	require.Error(t, err)

	_, err = NewFromConfig(context.Background(), testConfig("s3"))
	require.Error(t, err, "s3 without a bucket must fail")

	fs, err := NewFromConfig(context.Background(), testConfig("memory"))
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, fs)
}
