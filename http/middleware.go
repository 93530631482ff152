package http

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

type Middleware func(next Handler) Handler

// RecoverMiddleware turns a panicking handler into a 500 response so the
// server keeps serving other connections. The response carries a copy of header.
func RecoverMiddleware(logger *slog.Logger, header Header) Middleware {
	return func(next Handler) Handler {
		return func(ctx *RequestCtx) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("caught panic in handler, the process may be in an unstable state",
						"panic", fmt.Sprint(recovered),
						"method", ctx.Request.Method,
						"target", ctx.Request.Target,
						"stack", string(debug.Stack()),
					)

					ctx.dropped = false
					ctx.Response.Reset()
					ctx.Response.WithHeader(header.Clone()).WithStatus(StatusInternalServerError).WithText("something went wrong")
				}
			}()

			next(ctx)
		}
	}
}
