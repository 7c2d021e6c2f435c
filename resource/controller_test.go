package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Disk(t *testing.T) {
	c := NewController(Config{DiskLimitBytes: 100})

	assert.True(t, c.TryAcquireDisk(50))
	assert.Equal(t, int64(50), c.DiskUsage())

	assert.True(t, c.TryAcquireDisk(40))
	assert.Equal(t, int64(90), c.DiskUsage())

	// Would exceed the limit.
	assert.False(t, c.TryAcquireDisk(20))
	assert.Equal(t, int64(90), c.DiskUsage())

	c.ReleaseDisk(50)
	assert.Equal(t, int64(40), c.DiskUsage())

	assert.True(t, c.TryAcquireDisk(20))
	assert.Equal(t, int64(60), c.DiskUsage())
}

func TestController_UnlimitedDisk(t *testing.T) {
	c := NewController(Config{})

	assert.True(t, c.TryAcquireDisk(1000))
	assert.Equal(t, int64(1000), c.DiskUsage())

	c.ReleaseDisk(500)
	assert.Equal(t, int64(500), c.DiskUsage())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	assert.True(t, c.TryAcquireDisk(1<<40))
	c.ReleaseDisk(10)
	assert.Zero(t, c.DiskUsage())
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.Equal(t, Config{}, c.Config())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// The initial burst is available immediately.
	start := time.Now()
	require.NoError(t, c.AcquireIO(context.Background(), 1000))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// The next request has to wait for tokens.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 1000))
}

func TestController_IOLargerThanBurst(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	// 1.5 bursts: split into two waits instead of failing outright.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+1<<19))
}

func TestQuotaWriter(t *testing.T) {
	c := NewController(Config{DiskLimitBytes: 8})
	var buf bytes.Buffer
	w := NewQuotaWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(5), w.Charged())

	_, err = w.Write([]byte("6789"))
	assert.ErrorIs(t, err, ErrDiskQuotaExceeded)
	assert.Equal(t, "12345", buf.String())

	w.Release()
	w.Release()
	assert.Zero(t, c.DiskUsage())
	assert.Zero(t, w.Charged())
}
