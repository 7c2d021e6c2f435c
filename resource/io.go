package resource

import (
	"context"
	"io"
)

// QuotaWriter charges every write against the controller's disk quota and
// IO rate before passing it through.
type QuotaWriter struct {
	w       io.Writer
	rc      *Controller
	ctx     context.Context //nolint:containedctx // writes have no other way to receive it
	charged int64
}

// NewQuotaWriter creates a new QuotaWriter.
func NewQuotaWriter(ctx context.Context, w io.Writer, rc *Controller) *QuotaWriter {
	return &QuotaWriter{
		w:   w,
		rc:  rc,
		ctx: ctx,
	}
}

func (w *QuotaWriter) Write(p []byte) (n int, err error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	if !w.rc.TryAcquireDisk(int64(len(p))) {
		return 0, ErrDiskQuotaExceeded
	}
	n, err = w.w.Write(p)
	w.charged += int64(n)
	if n < len(p) {
		w.rc.ReleaseDisk(int64(len(p) - n))
	}
	return n, err
}

// Charged returns the bytes successfully written, and therefore reserved.
func (w *QuotaWriter) Charged() int64 {
	return w.charged
}

// Release returns everything charged so far to the controller.
// It is safe to call more than once.
func (w *QuotaWriter) Release() {
	w.rc.ReleaseDisk(w.charged)
	w.charged = 0
}
