package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Save(ctx, "b-map", []byte(`{"s":[]}`)))
	require.NoError(t, s.Save(ctx, "a-map", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "a-map", []byte(`{"v":2}`)))

	got, err := s.Load(ctx, "a-map")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a-map", entries[0].Name)
	assert.Equal(t, "b-map", entries[1].Name)
	assert.False(t, entries[0].UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, "a-map"))
	assert.True(t, errors.Is(s.Delete(ctx, "a-map"), ErrNotFound))
	assert.True(t, errors.Is(s.Save(ctx, "", nil), ErrInvalidName))
}

func TestSQLite(t *testing.T) {
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "maps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exercise(t, s)
}

func TestSQLitePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "maps.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "demo", []byte("data")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TRANSITMAP_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("TRANSITMAP_TEST_POSTGRES not set")
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	for _, name := range []string{"a-map", "b-map"} {
		_ = s.Delete(ctx, name)
	}
	exercise(t, s)
}
