package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/store"
)

// LoggingProvider is a decorator that records every LLM call, both to the
// structured logger and to the call journal in the store.
type LoggingProvider struct {
	inner    Provider
	provider string
	callRepo store.CallRepo
	log      *zap.Logger
}

// WithLogging wraps a Provider with call logging. The provider name is
// recorded alongside each call. A nil repo disables the journal; a nil
// logger disables log output.
func WithLogging(p Provider, provider string, repo store.CallRepo, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: provider, callRepo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	fields := []zap.Field{
		zap.String("purpose", purpose),
		zap.String("model", l.inner.ModelID()),
		zap.Int64("latency_ms", latencyMs),
		zap.Bool("success", err == nil),
	}
	if resp != nil {
		fields = append(fields,
			zap.Int("input_tokens", resp.Usage.InputTokens),
			zap.Int("output_tokens", resp.Usage.OutputTokens),
		)
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		l.log.Warn("llm call failed", fields...)
	} else {
		l.log.Debug("llm call", fields...)
	}

	if l.callRepo != nil {
		data := store.LLMCallData{
			Provider:    l.provider,
			Model:       l.inner.ModelID(),
			Purpose:     purpose,
			LatencyMs:   latencyMs,
			Success:     err == nil,
			RequestBody: serializeRequest(req),
		}
		if resp != nil {
			data.InputTokens = resp.Usage.InputTokens
			data.OutputTokens = resp.Usage.OutputTokens
			data.Model = resp.Model
			data.ResponseBody = string(resp.Content)
		}
		if err != nil {
			data.ErrorMessage = err.Error()
		}

		// Record the call but don't fail the request if journaling fails.
		if logErr := l.callRepo.AppendCall(ctx, data); logErr != nil {
			l.log.Warn("failed to journal llm call", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest flattens a request into the readable form the call
// journal stores: one tagged block per prompt part.
func serializeRequest(req Request) string {
	var b strings.Builder
	block := func(tag, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", tag, body)
	}

	if req.System != "" {
		block("system", req.System)
	}
	for _, m := range req.Messages {
		block(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
