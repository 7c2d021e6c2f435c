package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrDiskQuotaExceeded is returned when a spill write would exceed DiskLimitBytes.
var ErrDiskQuotaExceeded = errors.New("resource: spill disk quota exceeded")

// Config holds resource limits.
type Config struct {
	// DiskLimitBytes caps the total size of live backing files.
	// If 0, no hard limit is enforced (only tracking).
	DiskLimitBytes int64

	// IOLimitBytesPerSec is the maximum spill write throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller tracks backing-file usage for one spill session.
// A nil *Controller is valid and imposes no limits.
type Controller struct {
	cfg Config

	diskSem  *semaphore.Weighted // nil if unlimited
	diskUsed atomic.Int64

	ioLimiter *rate.Limiter
	ioBurst   int
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.DiskLimitBytes > 0 {
		c.diskSem = semaphore.NewWeighted(cfg.DiskLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioBurst = int(cfg.IOLimitBytesPerSec)
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), c.ioBurst)
	}

	return c
}

// Config returns the limits the controller was created with.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// TryAcquireDisk reserves bytes of backing-file space without blocking.
// Returns false if the limit would be exceeded.
func (c *Controller) TryAcquireDisk(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.diskSem != nil {
		if !c.diskSem.TryAcquire(bytes) {
			return false
		}
	}

	c.diskUsed.Add(bytes)
	return true
}

// ReleaseDisk returns space reserved by TryAcquireDisk.
func (c *Controller) ReleaseDisk(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.diskSem != nil {
		c.diskSem.Release(bytes)
	}
	c.diskUsed.Add(-bytes)
}

// DiskUsage returns the bytes currently held by live backing files.
func (c *Controller) DiskUsage() int64 {
	if c == nil {
		return 0
	}
	return c.diskUsed.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than one second of budget are split into burst-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	for bytes > 0 {
		n := min(bytes, c.ioBurst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
