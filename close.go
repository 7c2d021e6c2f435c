package giscore

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Close releases every component handed out by this Engine, newest first,
// and deletes their backing files. Components already closed by the caller
// are skipped by their own idempotent Close. Errors are aggregated; Close
// always attempts every component and is safe to call more than once.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	closers := e.closers
	e.closers = nil
	e.mu.Unlock()

	var result *multierror.Error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", c.name, err))
		}
	}

	err := result.ErrorOrNil()
	e.logger.LogCleanup(context.Background(), len(closers), err)
	return err
}
