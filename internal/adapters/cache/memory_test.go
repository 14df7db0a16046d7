package cache

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/athebyme/emag-console/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	_, err := c.Get(ctx, "sync:snapshot")
	assert.ErrorIs(t, err, pkgerrors.ErrCacheMiss)

	value := []byte(`{"total_products":3}`)
	require.NoError(t, c.Set(ctx, "sync:snapshot", value, 0))

	// Изменение исходного среза не влияет на сохраненное значение
	value[0] = 'X'

	got, err := c.Get(ctx, "sync:snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"total_products":3}`, string(got))

	require.NoError(t, c.Delete(ctx, "sync:snapshot"))
	_, err = c.Get(ctx, "sync:snapshot")
	assert.ErrorIs(t, err, pkgerrors.ErrCacheMiss)
}

func TestMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "k")
		return err == pkgerrors.ErrCacheMiss
	}, time.Second, 10*time.Millisecond)
}
