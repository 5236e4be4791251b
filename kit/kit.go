// Package kit adapts typed endpoints onto MCP tool handlers.
package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is a transport-agnostic request handler.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one listed is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs each call's duration and outcome at debug/error level.
func Logging(logger *slog.Logger, tool string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				logger.Error("tool call failed", "tool", tool, "elapsed", time.Since(start), "error", err)
			} else {
				logger.Debug("tool call", "tool", tool, "elapsed", time.Since(start))
			}
			return resp, err
		}
	}
}
