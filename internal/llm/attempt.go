package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"time"
)

// attemptDeadline derives the deadline for a single call attempt. The
// request's own timeout wins; otherwise the provider default applies. The
// returned start time anchors elapsed-time reporting in timeout errors.
func attemptDeadline(ctx context.Context, reqTimeout, fallback time.Duration) (context.Context, context.CancelFunc, time.Time) {
	timeout := reqTimeout
	if timeout <= 0 {
		timeout = fallback
	}
	started := time.Now()
	if timeout <= 0 {
		return ctx, func() {}, started
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, started
}

// timedOut reports whether an error is a deadline or network timeout.
func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return os.IsTimeout(err)
}

// normalizeContent returns schema-constrained output verbatim and wraps
// free-form text as a JSON string, so Response.Content is always valid JSON.
func normalizeContent(schema *Schema, text string) json.RawMessage {
	if schema != nil {
		return json.RawMessage(text)
	}
	b, _ := json.Marshal(text)
	return json.RawMessage(b)
}
