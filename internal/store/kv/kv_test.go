package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	type profile struct {
		ID    string `json:"id"`
		Phone string `json:"phone"`
	}
	require.NoError(t, s.Put(ctx, "customer", profile{ID: "cust-1", Phone: "+2250708091011"}))

	var got profile
	ok, err := s.Get(ctx, "customer", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cust-1", got.ID)
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	var out map[string]string
	ok, err := s.Get(context.Background(), "absent", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, "k", "first"))
	require.NoError(t, s.Put(ctx, "k", "second"))

	var got string
	ok, err := s.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, "k", 1))
	require.NoError(t, s.Delete(ctx, "k"))

	var out int
	ok, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is a no-op
	require.NoError(t, s.Delete(ctx, "k"))
}
