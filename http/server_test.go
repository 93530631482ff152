package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestServer(handler Handler) *Server {
	srv := NewServer("test", handler, nil)
	srv.IdleTimeout = time.Second
	return srv
}

func TestServeConnKeepAlive(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		ctx.Response.WithText("path=" + ctx.Request.Path)
	})
	go srv.ServeConn(serverConn)

	reader := bufio.NewReader(clientConn)
	for _, path := range []string{"/one", "/two"} {
		go clientConn.Write([]byte("GET " + path + " HTTP/1.1\r\nHost: localhost\r\n\r\n"))

		resp, err := http.ReadResponse(reader, nil)
		if err != nil {
			t.Fatalf("read error: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if string(body) != "path="+path {
			t.Errorf("expected body for %s, got %q", path, body)
		}
		if resp.Header.Get("Connection") != "keep-alive" {
			t.Errorf("expected keep-alive, got %q", resp.Header.Get("Connection"))
		}
	}
}

func TestServeConnDrop(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		ctx.Drop()
	})
	go srv.ServeConn(serverConn)

	go clientConn.Write([]byte("GET /favicon.ico HTTP/1.1\r\nHost: localhost\r\n\r\n"))

	clientConn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := clientConn.Read(make([]byte, 1))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("expected closed connection without data, got n=%d err=%v", n, err)
	}
}

func TestServeConnAbortClosesConnection(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		ctx.Response.WithStatus(StatusRequestEntityTooLarge).WithText("413 request too large")
		ctx.Abort()
	})
	go srv.ServeConn(serverConn)

	go clientConn.Write([]byte("POST /api/x HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc"))

	reader := bufio.NewReader(clientConn)
	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		t.Fatal(err)
	}
	io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Connection") != "close" {
		t.Errorf("expected connection close, got %q", resp.Header.Get("Connection"))
	}

	if _, err := reader.ReadByte(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after abort, got %v", err)
	}
}

func TestServeConnBadRequest(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		t.Error("handler should not run for a malformed request")
	})
	srv.Header = NewHeader("X-Powered-By", "Phantom API, Ltd.", "Server", "phantom-api")
	go srv.ServeConn(serverConn)

	go clientConn.Write([]byte("NONSENSE\r\n\r\n"))

	resp, err := http.ReadResponse(bufio.NewReader(clientConn), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Powered-By") != "Phantom API, Ltd." || resp.Header.Get("Server") != "phantom-api" {
		t.Errorf("expected branding headers, got %v", resp.Header)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	srv := newTestServer(nil)
	base := NewHeader("X-Powered-By", "Phantom API, Ltd.", "Server", "phantom-api")
	handler := RecoverMiddleware(srv.Logger, base)(func(ctx *RequestCtx) {
		ctx.Response.Header.Set("X-Partial", "yes")
		panic("boom")
	})

	ctx := NewRequestCtx(context.Background())
	handler(ctx)

	if ctx.Response.Status != StatusInternalServerError {
		t.Errorf("expected 500, got %d", ctx.Response.Status)
	}
	if !strings.Contains(string(ctx.Response.Body), "something went wrong") {
		t.Errorf("unexpected body %q", ctx.Response.Body)
	}
	if v, _ := ctx.Response.Header.Get("X-Powered-By"); v != "Phantom API, Ltd." {
		t.Errorf("expected X-Powered-By, got %v", ctx.Response.Header)
	}
	if v, _ := ctx.Response.Header.Get("Server"); v != "phantom-api" {
		t.Errorf("expected Server, got %v", ctx.Response.Header)
	}
	if _, found := ctx.Response.Header.Get("X-Partial"); found {
		t.Error("headers set before the panic must be discarded")
	}
	if len(base) != 2 {
		t.Errorf("base header set must not be modified, got %v", base)
	}
}

func TestServeConnHeadKeepAlive(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		ctx.Response.WithText("body{}")
	})
	go srv.ServeConn(serverConn)

	reader := bufio.NewReader(clientConn)

	go clientConn.Write([]byte("HEAD /css/site.css HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	resp, err := http.ReadResponse(reader, &http.Request{Method: "HEAD"})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	resp.Body.Close()
	if resp.ContentLength != int64(len("body{}")) {
		t.Errorf("expected Content-Length of the body, got %d", resp.ContentLength)
	}

	go clientConn.Write([]byte("GET /css/site.css HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	resp, err = http.ReadResponse(reader, nil)
	if err != nil {
		t.Fatalf("response after HEAD unreadable: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "body{}" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestServeConnCancelsContextOnClientClose(t *testing.T) {
	serverConn, clientConn := net.Pipe()

	cancelled := make(chan error, 1)
	srv := newTestServer(func(ctx *RequestCtx) {
		select {
		case <-ctx.Context().Done():
			cancelled <- ctx.Context().Err()
		case <-time.After(2 * time.Second):
			cancelled <- nil
		}
	})
	done := make(chan struct{})
	go func() {
		srv.ServeConn(serverConn)
		close(done)
	}()

	clientConn.Write([]byte("GET /api/getBrotherOfThor HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	clientConn.Close()

	if err := <-cancelled; !errors.Is(err, context.Canceled) {
		t.Errorf("expected the handler context to be cancelled, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("ServeConn did not return after the client closed")
	}
}

func TestServeConnContextLivesAcrossRequests(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		if err := ctx.Context().Err(); err != nil {
			ctx.Response.WithText(err.Error())
			return
		}
		ctx.Response.WithText("alive")
	})
	go srv.ServeConn(serverConn)

	reader := bufio.NewReader(clientConn)
	for range 2 {
		go clientConn.Write([]byte("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))

		resp, err := http.ReadResponse(reader, nil)
		if err != nil {
			t.Fatalf("read error: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != "alive" {
			t.Errorf("unexpected body %q", body)
		}
	}
}

func TestServeConnExpectContinue(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		body, _ := io.ReadAll(ctx.Request.Body)
		ctx.Response.WithText("got " + string(body))
	})
	go srv.ServeConn(serverConn)

	reader := bufio.NewReader(clientConn)

	go clientConn.Write([]byte("POST /api/postFatherOfThor HTTP/1.1\r\nHost: localhost\r\nExpect: 100-continue\r\nContent-Length: 5\r\n\r\n"))

	interim, err := http.ReadResponse(reader, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if interim.StatusCode != 100 {
		t.Fatalf("expected 100 Continue, got %d", interim.StatusCode)
	}

	go clientConn.Write([]byte("hello"))

	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "got hello" {
		t.Errorf("unexpected body %q", body)
	}
	if resp.Header.Get("Connection") != "keep-alive" {
		t.Errorf("expected keep-alive, got %q", resp.Header.Get("Connection"))
	}
}

func TestServeConnExpectContinueUnread(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := newTestServer(func(ctx *RequestCtx) {
		ctx.Response.WithStatus(StatusForbidden)
	})
	go srv.ServeConn(serverConn)

	reader := bufio.NewReader(clientConn)
	go clientConn.Write([]byte("POST /api/nope HTTP/1.1\r\nHost: localhost\r\nExpect: 100-continue\r\nContent-Length: 5\r\n\r\n"))

	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != StatusForbidden {
		t.Errorf("expected the final response without 100 Continue, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Connection") != "close" {
		t.Errorf("expected the connection to close, got %q", resp.Header.Get("Connection"))
	}
}

func TestShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(func(ctx *RequestCtx) {
		ctx.Response.WithText("ok")
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(listener) }()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := <-serveErr; !errors.Is(err, ErrServerClosed) {
		t.Errorf("expected ErrServerClosed, got %v", err)
	}
}

func BenchmarkServeConn(b *testing.B) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	srv := NewServer("bench", func(ctx *RequestCtx) {
		ctx.Response.WithText("OK")
	}, nil)
	srv.IdleTimeout = 0

	go srv.ServeConn(serverConn)

	reqStr := "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"
	reader := bufio.NewReader(clientConn)

	for b.Loop() {
		go clientConn.Write([]byte(reqStr))

		resp, err := http.ReadResponse(reader, nil)
		if err != nil {
			b.Fatalf("read error: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
