package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.Set(ctx, "key", payload{Name: "alpha", Count: 3}, time.Minute))

	var got payload
	found, err := store.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemory()

	var got map[string]string
	found, err := store.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "value", 10*time.Millisecond))

	var got string
	found, err := store.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)

	found, err = store.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found, "expired entry must read as absent")
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, store.Delete(ctx, "key"))

	var got string
	found, err := store.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "first", time.Minute))
	require.NoError(t, store.Set(ctx, "key", "second", time.Minute))

	var got string
	found, err := store.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got)
}
