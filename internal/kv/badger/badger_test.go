package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInMemoryGetSet verifies reads, writes and missing keys.
func TestInMemoryGetSet(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "@240301")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "@240301", `[]`))
	v, ok, err := s.Get(ctx, "@240301")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)
}

// TestPersistentReopen verifies data survives a close/reopen cycle.
func TestPersistentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "@240406", `["kept"]`))
	require.NoError(t, s.Close())

	s2, err := Open(cfg)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(context.Background(), "@240406")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["kept"]`, v)
}

// TestOpenRequiresPath verifies that persistent mode requires a path.
func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

// TestCancelledContext verifies operations honour cancellation.
func TestCancelledContext(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Set(ctx, "k", "v"))
	_, _, err = s.Get(ctx, "k")
	assert.Error(t, err)
}
