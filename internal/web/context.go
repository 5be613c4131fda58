package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/reproject/internal/core"
	mw "github.com/JonMunkholm/reproject/internal/web/middleware"
)

// WithRequestMetadata adds client IP and User-Agent to ctx for conversion
// history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, mw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
