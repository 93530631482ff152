package http

import (
	"context"
	"net"
)

type RequestCtx struct {
	Conn net.Conn

	Request  Request
	Response Response

	ctx     context.Context
	dropped bool
	aborted bool
}

// NewRequestCtx returns a context with an empty request and a 200 response.
func NewRequestCtx(ctx context.Context) *RequestCtx {
	var reqCtx RequestCtx
	reqCtx.Reset(ctx, nil)
	return &reqCtx
}

func (reqCtx *RequestCtx) Reset(ctx context.Context, conn net.Conn) {
	reqCtx.Conn = conn
	reqCtx.ctx = ctx
	reqCtx.dropped = false
	reqCtx.aborted = false
	reqCtx.Request.Reset()
	reqCtx.Response.Reset()
}

func (reqCtx *RequestCtx) Context() context.Context {
	if reqCtx.ctx == nil {
		return context.Background()
	}
	return reqCtx.ctx
}

// Drop tells the server to close the connection without writing a response.
func (reqCtx *RequestCtx) Drop() {
	reqCtx.dropped = true
}

// Abort tells the server to write the response and then close the connection
// without reading the rest of the request.
func (reqCtx *RequestCtx) Abort() {
	reqCtx.aborted = true
}

func (reqCtx *RequestCtx) Dropped() bool { return reqCtx.dropped }

func (reqCtx *RequestCtx) Aborted() bool { return reqCtx.aborted }
