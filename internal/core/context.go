package core

import "context"

type contextKey string

const (
	ctxKeySource    contextKey = "event_source"
	ctxKeyUserAgent contextKey = "event_ua"
)

// ContextWithSource tags events recorded under ctx with where the selection
// came from ("web", "api", "cli").
func ContextWithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ctxKeySource, source)
}

// ContextWithUserAgent adds the client's User-Agent for recorded events.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// SourceFromContext returns the event source, or "".
func SourceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySource).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the User-Agent, or "".
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
