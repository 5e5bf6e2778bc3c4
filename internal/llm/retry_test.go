package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		TimeoutWait: 1 * time.Millisecond,
	}
}

// expectSuccess runs one Generate through p and checks it lands on the
// canned {"ok":true} response after wantCalls attempts against mock.
func expectSuccess(t *testing.T, p Provider, mock *MockProvider, wantCalls int) {
	t.Helper()
	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != wantCalls {
		t.Fatalf("expected %d calls, got %d", wantCalls, mock.CallCount())
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"ok":true}`)})
	expectSuccess(t, WithRetry(mock, retryConfig()), mock, 1)
}

func TestRetry_RateLimitThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	expectSuccess(t, WithRetry(mock, retryConfig()), mock, 2)
}

func TestRetry_TimeoutThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrTimeout{Elapsed: time.Second, Err: context.DeadlineExceeded}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	expectSuccess(t, WithRetry(mock, retryConfig()), mock, 2)
}

func TestRetry_AllAttemptsExhausted(t *testing.T) {
	var responses []MockResponse
	for range 5 {
		responses = append(responses, MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}})
	}
	mock := NewMockProvider(responses...)
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
	if mock.CallCount() != 5 {
		t.Fatalf("expected 5 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ProviderUnavailableFailsFast(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)}, // Won't be reached.
	)
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.CallCount())
	}
}

func TestRetry_InvalidResponseFailsFast(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)}, // Won't be reached.
	)
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.CallCount())
	}
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{}`)}},
	)
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.CallCount())
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately.

	_, err := p.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetry_ClassifyWaits(t *testing.T) {
	r := &RetryProvider{cfg: RetryConfig{
		MaxAttempts: 5,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
		TimeoutWait: 2 * time.Second,
	}}

	tests := []struct {
		name      string
		err       error
		attempt   int
		wait      time.Duration
		retryable bool
	}{
		{"rate limit explicit wait", &ErrRateLimit{RetryAfter: 7 * time.Second}, 0, 7 * time.Second, true},
		{"rate limit attempt 0", &ErrRateLimit{}, 0, 500 * time.Millisecond, true},
		{"rate limit attempt 1", &ErrRateLimit{}, 1, 1 * time.Second, true},
		{"rate limit attempt 3", &ErrRateLimit{}, 3, 4 * time.Second, true},
		{"rate limit capped", &ErrRateLimit{}, 8, 10 * time.Second, true},
		{"timeout fixed wait", &ErrTimeout{}, 2, 2 * time.Second, true},
		{"unavailable not retried", &ErrProviderUnavailable{}, 0, 0, false},
		{"invalid not retried", &ErrInvalidResponse{Err: errors.New("bad")}, 0, 0, false},
		{"canceled not retried", context.Canceled, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wait, retryable := r.classify(tt.err, tt.attempt)
			if retryable != tt.retryable {
				t.Fatalf("retryable = %v, want %v", retryable, tt.retryable)
			}
			if retryable && wait != tt.wait {
				t.Fatalf("wait = %s, want %s", wait, tt.wait)
			}
		})
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	mock := NewMockProvider()
	p := WithRetry(mock, retryConfig())
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
