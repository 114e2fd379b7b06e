// Package safe holds best-effort I/O helpers whose failures can only be
// logged, such as closing a reader or writing a response body.
package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/risktree/pkg/utils/logging"
)

// Close closes c and logs a failure with what as the resource name. Nil
// closers are ignored.
func Close(ctx context.Context, what string, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "resource", what, "error", err)
	}
}

// Write writes data to w and logs a failed or short write. It reports
// whether every byte was written.
func Write(ctx context.Context, w io.Writer, data []byte) bool {
	if w == nil {
		return false
	}
	n, err := w.Write(data)
	if err != nil || n != len(data) {
		logging.From(ctx).Warn("failed to write",
			"written", n,
			"size", len(data),
			"error", err,
		)
		return false
	}
	return true
}
