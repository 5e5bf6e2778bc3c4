package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrRateLimit is a 429 from the provider.
type ErrRateLimit struct {
	// RetryAfter is the wait the provider asked for, when it named one.
	// Zero means no hint was given and the caller should back off on its
	// own schedule.
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrTimeout indicates a single call attempt exceeded its deadline.
type ErrTimeout struct {
	Elapsed time.Duration
	Err     error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("LLM call timed out after %s: %v", e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model's output failed schema validation or
// came back empty. Content keeps the offending payload for diagnosis.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("model returned invalid output: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable means the backend could not be reached or
// answered with a server error.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable: %v", e.Err)
	}
	return "provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means generation stopped at the MaxTokens cap.
// Content holds the truncated transcript.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "response truncated at the max token limit"
}

var retryAfterPattern = regexp.MustCompile(`[Tt]ry again in (\d+) seconds?`)

// parseRetryAfter extracts an explicit wait from a rate-limit error message.
// Providers phrase this as "Please try again in N seconds". Returns zero when
// the message carries no hint.
func parseRetryAfter(msg string) time.Duration {
	m := retryAfterPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
