package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 50))
	require.NoError(t, c.AcquireMemory(ctx, 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(tctx, 20), context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())
	assert.True(t, c.TryAcquireMemory(20))
	c.ReleaseMemory(60)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_OversizedRequestIsClamped(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())
	assert.False(t, c.TryAcquireMemory(1))
	c.ReleaseMemory(1000)
	assert.True(t, c.TryAcquireMemory(1))
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(context.Background(), 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.Equal(t, 4, c.Concurrency())
}

func TestController_Concurrency(t *testing.T) {
	assert.Equal(t, 4, NewController(Config{}).Concurrency())
	assert.Equal(t, 2, NewController(Config{MaxConcurrentLoads: 2}).Concurrency())
}

func TestController_IOLimit(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// the first burst is free
	require.NoError(t, c.AcquireIO(context.Background(), 1000))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 1000))
}

func TestRateLimitedIO(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	assert.Same(t, io.Writer(&buf), NewRateLimitedWriter(ctx, &buf, nil))

	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	w := NewRateLimitedWriter(ctx, &buf, c)
	_, err := w.Write([]byte("matrix bytes"))
	require.NoError(t, err)

	r := NewRateLimitedReader(ctx, &buf, c)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "matrix bytes", string(out))
}
