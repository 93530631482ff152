package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var ErrServerClosed = errors.New("http: server closed")

// aLongTimeAgo is a read deadline that interrupts a pending read at once.
var aLongTimeAgo = time.Unix(1, 0)

type Server struct {
	Name        string
	Handler     Handler
	Logger      *slog.Logger
	IdleTimeout time.Duration

	// Header is sent with the responses the server writes itself, such as
	// 400 for a malformed request.
	Header Header

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closing  atomic.Bool
}

func NewServer(name string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		Name:        name,
		Handler:     handler,
		Logger:      logger,
		IdleTimeout: DefaultIdleTimeout,
		baseCtx:     ctx,
		cancelBase:  cancel,
		conns:       make(map[net.Conn]struct{}),
	}
}

func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(listener)
}

func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	if s.closing.Load() {
		listener.Close()
		return ErrServerClosed
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return ErrServerClosed
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.Logger.Warn("accept connection failed", "error", err)
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}

		go s.ServeConn(conn)
	}
}

// ServeConn reads requests from conn until the client stops keeping it alive,
// a handler drops or aborts it, or the server shuts down. Handlers get a
// context that is cancelled when the connection ends.
func (s *Server) ServeConn(conn net.Conn) {
	if !s.track(conn, true) {
		conn.Close()
		return
	}
	defer s.track(conn, false)
	defer conn.Close()

	connCtx, cancelConn := context.WithCancel(s.baseCtx)
	defer cancelConn()

	br := bufio.NewReaderSize(conn, DefaultReadBufferSize)
	bw := bufio.NewWriterSize(conn, DefaultWriteBufferSize)

	var reqCtx RequestCtx
	for {
		if s.closing.Load() {
			return
		}
		if s.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		}

		reqCtx.Reset(connCtx, conn)
		if err := reqCtx.Request.Read(br); err != nil {
			var netErr net.Error
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || (errors.As(err, &netErr) && netErr.Timeout()) {
				return
			}

			s.Logger.Debug("request read error", "remote", remoteAddr(conn), "error", err)
			reqCtx.Response.Reset()
			reqCtx.Response.WithHeader(s.Header.Clone()).WithStatus(StatusBadRequest).WithText("400 bad request")
			reqCtx.Response.Header.Set("Connection", "close")
			reqCtx.Response.WriteTo(bw)
			return
		}
		conn.SetReadDeadline(time.Time{})

		var expect *continueReader
		if reqCtx.Request.ExpectsContinue() && reqCtx.Request.ContentLength != 0 {
			expect = &continueReader{body: reqCtx.Request.Body, bw: bw}
			reqCtx.Request.Body = expect
		}

		// Without a body the connection is idle while the handler runs, so
		// a client hanging up can be noticed.
		var stopWatch func()
		if reqCtx.Request.ContentLength == 0 {
			stopWatch = watchClose(conn, br, cancelConn)
		}

		s.Handler(&reqCtx)

		if stopWatch != nil {
			stopWatch()
		}

		if reqCtx.dropped {
			return
		}

		keepAlive := reqCtx.Request.KeepAlive && !reqCtx.aborted && !s.closing.Load()
		if expect != nil && !expect.sent {
			// The client still holds back the body.
			keepAlive = false
		}
		if keepAlive {
			reqCtx.Response.Header.Set("Connection", "keep-alive")
		} else {
			reqCtx.Response.Header.Set("Connection", "close")
		}

		var err error
		if reqCtx.Request.Method == "HEAD" {
			err = reqCtx.Response.WriteHeadTo(bw)
		} else {
			err = reqCtx.Response.WriteTo(bw)
		}
		if err != nil {
			return
		}

		if !keepAlive || connCtx.Err() != nil {
			return
		}

		// The next request starts where this body ends.
		if _, err := io.Copy(io.Discard, reqCtx.Request.Body); err != nil {
			return
		}
	}
}

// watchClose cancels the connection context when the peer closes conn. The
// returned stop func ends the watch; bytes the client sent meanwhile stay
// buffered in br for the next request.
func watchClose(conn net.Conn, br *bufio.Reader, cancel context.CancelFunc) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)

		if _, err := br.Peek(1); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return
			}
			cancel()
		}
	}()

	return func() {
		conn.SetReadDeadline(aLongTimeAgo)
		<-done
		conn.SetReadDeadline(time.Time{})
	}
}

// continueReader answers Expect: 100-continue on the first body read.
type continueReader struct {
	body io.Reader
	bw   *bufio.Writer
	sent bool
	err  error
}

func (cr *continueReader) Read(p []byte) (int, error) {
	if !cr.sent {
		cr.sent = true
		cr.bw.WriteString("HTTP/1.1 100 Continue\r\n\r\n")
		cr.err = cr.bw.Flush()
	}
	if cr.err != nil {
		return 0, cr.err
	}
	return cr.body.Read(p)
}

// Shutdown stops accepting connections, interrupts idle ones and waits for
// in-flight requests to finish. When ctx expires first, pending handlers see
// their context cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelBase()
		return nil
	case <-ctx.Done():
		s.cancelBase()
		return ctx.Err()
	}
}

func (s *Server) track(conn net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		if s.closing.Load() {
			return false
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		return true
	}

	delete(s.conns, conn)
	s.wg.Done()
	return true
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
