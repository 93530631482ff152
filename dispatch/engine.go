package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/freekieb7/phantom/api"
	"github.com/freekieb7/phantom/config"
	"github.com/freekieb7/phantom/http"
	"github.com/freekieb7/phantom/static"
)

const name = "github.com/freekieb7/phantom/dispatch"

const (
	// MaxBodyBytes is the largest request body accepted for an API call.
	MaxBodyBytes = 1 << 20

	bodyChunkSize = 32 * 1024
	faviconPath   = "/favicon.ico"
)

var (
	ErrBodyTooLarge = errors.New("dispatch: request body too large")
	ErrNoFuture     = errors.New("dispatch: method returned no result")
)

// Route kinds recorded on spans and metrics.
const (
	routeFavicon = "favicon"
	routeAPI     = "api"
	routeStatic  = "static"
)

// Engine classifies each request as an API call or a static resource and
// produces its response.
type Engine struct {
	registry *api.Registry
	static   *static.Server
	headers  config.Headers
	compress bool
	logger   *slog.Logger

	tracer   trace.Tracer
	requests metric.Int64Counter
	bodySize metric.Int64Histogram
}

// NewEngine takes a snapshot of registry; methods registered afterwards are
// not callable.
func NewEngine(cfg config.Config, registry *api.Registry, staticServer *static.Server, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(name)

	requests, err := meter.Int64Counter("phantom.requests",
		metric.WithDescription("The number of handled requests by route kind and status"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	bodySize, err := meter.Int64Histogram("phantom.request.body_bytes",
		metric.WithDescription("The size of accumulated API request bodies"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return &Engine{
		registry: registry.Snapshot(),
		static:   staticServer,
		headers:  cfg.Headers,
		compress: cfg.Compress,
		logger:   logger,
		tracer:   otel.Tracer(name),
		requests: requests,
		bodySize: bodySize,
	}, nil
}

// Handler returns Handle guarded by RecoverMiddleware.
func (e *Engine) Handler() http.Handler {
	return http.RecoverMiddleware(e.logger, e.headers.Default)(e.Handle)
}

func (e *Engine) Handle(ctx *http.RequestCtx) {
	req := &ctx.Request

	if req.Path == faviconPath {
		ctx.Drop()
		e.record(ctx.Context(), routeFavicon, 0)
		return
	}

	spanCtx, span := e.tracer.Start(ctx.Context(), "phantom.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		))
	defer span.End()

	kind := routeStatic
	if route, ok := api.Resolve(req.EscapedPath); ok {
		kind = routeAPI
		e.handleAPI(spanCtx, ctx, route)
	} else {
		e.static.Serve(&ctx.Response, req.Path, req.Target)
	}

	if e.compress && !ctx.Aborted() && req.AcceptsGzip() {
		if err := ctx.Response.Gzip(gzip.DefaultCompression); err != nil {
			e.logger.Warn("compressing response failed", "error", err)
		}
	}

	status := ctx.Response.Status
	span.SetAttributes(
		attribute.String("phantom.route", kind),
		attribute.Int("http.response.status_code", status),
	)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	e.record(spanCtx, kind, status)
}

func (e *Engine) handleAPI(spanCtx context.Context, ctx *http.RequestCtx, route api.Route) {
	req := &ctx.Request

	src := api.Source{
		Method:   req.Method,
		RawQuery: req.RawQuery,
		Headers:  req.Headers,
		Route:    route,
	}

	if req.Method != "GET" {
		body, err := readBody(req.Body, req.ContentLength)
		if err != nil {
			if errors.Is(err, ErrBodyTooLarge) {
				e.logger.Warn("request body too large", "method", route.Method, "limit", MaxBodyBytes)
				ctx.Response.Header = e.headers.Default.Clone()
				ctx.Response.WithStatus(http.StatusRequestEntityTooLarge).WithText("413 request too large")
				ctx.Abort()
				return
			}

			e.logger.Debug("reading request body failed", "error", err)
			ctx.Response.Header = e.headers.Default.Clone()
			ctx.Response.WithStatus(http.StatusBadRequest).WithText("400 bad request")
			ctx.Abort()
			return
		}
		e.bodySize.Record(spanCtx, int64(len(body)))
		src.Body = body
	}

	method, found := e.registry.Lookup(route.Method)
	if !found {
		e.logger.Info("request for unknown method", "method", route.Method)
		api.WriteInvalidMethod(&ctx.Response, e.headers.Default, route.Method)
		return
	}

	requestID := uuid.NewString()
	call := api.NewCall(spanCtx, route.Method, api.ExtractParams(src), requestID)

	value, err := e.invoke(spanCtx, method, call)
	if err == nil {
		err = api.WriteResult(&ctx.Response, e.headers.Default, call, value)
	}
	if err != nil {
		e.logger.Error("method call failed", "method", route.Method, "request_id", requestID, "error", err)
		ctx.Response.Header = e.headers.Default.Clone()
		ctx.Response.WithStatus(http.StatusInternalServerError).WithText(err.Error() + "\n")
		return
	}

	e.logger.Debug("method call served", "method", route.Method, "request_id", requestID, "status", ctx.Response.Status)
}

func (e *Engine) invoke(ctx context.Context, method api.Method, call *api.Call) (any, error) {
	future := method(call)
	if future == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFuture, call.Method())
	}
	return future.Await(ctx)
}

func (e *Engine) record(ctx context.Context, kind string, status int) {
	e.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phantom.route", kind),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	))
}

// readBody accumulates body chunk by chunk. It stops with ErrBodyTooLarge as
// soon as the running total passes MaxBodyBytes.
func readBody(body io.Reader, contentLength int64) ([]byte, error) {
	if contentLength > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	size := bodyChunkSize
	if contentLength > 0 {
		size = int(contentLength)
	}
	buf := make([]byte, 0, size)

	chunk := make([]byte, bodyChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			if len(buf)+n > MaxBodyBytes {
				return nil, ErrBodyTooLarge
			}
			buf = append(buf, chunk[:n]...)
		}
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
