package llm

import "context"

type purposeKey struct{}

// WithPurpose labels the context with what the call is for ("generation",
// "llm_judge"). The logging decorator journals the label with each call so
// usage can be broken down per stage.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose label, or "unknown" for untagged calls.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}
