package http

import "time"

const (
	DefaultReadBufferSize  = 4096 // 4kB
	DefaultWriteBufferSize = 4096 // 4kB
	DefaultIdleTimeout     = 5 * time.Second

	MaxRequestHeaders = 255
	MaxLineSize       = 8 * 1024 // 8kB, request line and each header line
)

const (
	ContentTypeJSON      = "application/json; charset=utf-8"
	ContentTypeHTML      = "text/html; charset=utf-8"
	ContentTypePlainText = "text/plain"
)

// Handler serves one request. It fills ctx.Response, or marks the context
// dropped or aborted.
type Handler func(ctx *RequestCtx)
