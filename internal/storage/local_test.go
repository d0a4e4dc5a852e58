package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("client went away")
}

func TestLocalStore_PutAndDelete(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	store, err := NewLocalStore(root, "")
	require.NoError(t, err)

	key := "submissions/2024/01/a.png"
	require.NoError(t, store.Put(context.Background(), key, "image/png", strings.NewReader("png-bytes"), 9))

	data, err := os.ReadFile(filepath.Join(root, "submissions", "2024", "01", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "/media/submissions/2024/01/a.png", store.URL(key))

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(root, "submissions", "2024", "01", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, store.Delete(context.Background(), key))
}

func TestLocalStore_FailedWriteLeavesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8000/media")
	require.NoError(t, err)

	err = store.Put(context.Background(), "submissions/b.png", "image/png", failingReader{}, 10)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "submissions"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file should be removed")
	assert.Equal(t, "http://localhost:8000/media/submissions/b.png", store.URL("submissions/b.png"))
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.Put(ctx, "submissions/c.png", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	err = store.Put(context.Background(), "../../etc/evil", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
