package web

import (
	"context"
	"net/http"

	"github.com/AwsThamer/ranger/internal/core"
)

// Event sources.
const (
	sourceAPI  = "api"
	sourcePage = "web"
)

// withRequestMetadata tags recorded events with their origin and the
// client's User-Agent.
func withRequestMetadata(ctx context.Context, r *http.Request, source string) context.Context {
	ctx = core.ContextWithSource(ctx, source)
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}
