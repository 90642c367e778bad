package store_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulwork/breakfast/internal/store"
)

func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() }) //nolint:errcheck

	return map[string]store.Store{
		"memory": store.NewMemory(),
		"file":   store.NewFile(filepath.Join(t.TempDir(), "nested", "session")),
		"redis":  store.NewRedis(rdb, "test"),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx)
			assert.ErrorIs(t, err, store.ErrNotFound, "empty store")

			require.NoError(t, s.Save(ctx, "record-1"))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "record-1", got)

			require.NoError(t, s.Save(ctx, "record-2"))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "record-2", got, "save overwrites")

			require.NoError(t, s.Clear(ctx))
			_, err = s.Load(ctx)
			assert.ErrorIs(t, err, store.ErrNotFound, "after clear")

			assert.NoError(t, s.Clear(ctx), "clearing an empty store")
		})
	}
}

func TestFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "dir", "session")
	s := store.NewFile(path)
	require.NoError(t, s.Save(context.Background(), "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFile_BlankFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	_, err := store.NewFile(path).Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := store.NewFile(filepath.Join(t.TempDir(), "session"))
	assert.ErrorIs(t, s.Save(ctx, "x"), context.Canceled)
}

func TestRedis_KeyPerProfile(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close() //nolint:errcheck
	ctx := context.Background()

	a := store.NewRedis(rdb, "alice")
	b := store.NewRedis(rdb, "")
	assert.Equal(t, "breakfast:session:default", b.Key())

	require.NoError(t, a.Save(ctx, "rec"))
	got, err := mr.Get("breakfast:session:alice")
	require.NoError(t, err)
	assert.Equal(t, "rec", got)

	_, err = b.Load(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := store.ConnectRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	rdb.Close() //nolint:errcheck

	_, err = store.ConnectRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
