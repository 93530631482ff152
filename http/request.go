package http

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrLineTooLong     = errors.New("http: request line too long")
	ErrTooManyHeaders  = errors.New("http: too many request headers")
	ErrMalformedHeader = errors.New("http: malformed request header")
)

type Request struct {
	Method   string
	Target   string
	Protocol string

	// Path is the decoded URL path, EscapedPath the path as sent by the client.
	Path        string
	EscapedPath string
	RawQuery    string

	// Headers are keyed by lowercased name. Repeated headers are joined with ", ".
	Headers map[string]string

	KeepAlive     bool
	ContentLength int64 // -1 when unknown
	Body          io.Reader
}

func (req *Request) HeaderValue(name string) (string, bool) {
	v, found := req.Headers[strings.ToLower(name)]
	return v, found
}

// ExpectsContinue reports whether the client waits for 100 Continue before
// sending the body.
func (req *Request) ExpectsContinue() bool {
	expect, found := req.HeaderValue("Expect")
	return found && req.Protocol == "HTTP/1.1" && strings.EqualFold(strings.TrimSpace(expect), "100-continue")
}

// Query parses the raw query string. Malformed pairs are skipped.
func (req *Request) Query() url.Values {
	values, _ := url.ParseQuery(req.RawQuery)
	return values
}

// Read parses a request head from reader and prepares Body for the payload.
// A clean close before any byte of a new request is reported as io.EOF.
func (req *Request) Read(reader *bufio.Reader) error {
	req.Reset()

	requestLine, err := readLine(reader)
	if err != nil {
		return err
	}
	if requestLine == "" {
		return io.EOF
	}

	parts := strings.Split(requestLine, " ")
	if len(parts) != 3 {
		return fmt.Errorf("http: malformed request line: %q", requestLine)
	}
	req.Method, req.Target, req.Protocol = parts[0], parts[1], parts[2]

	if req.Protocol != "HTTP/1.1" && req.Protocol != "HTTP/1.0" {
		return fmt.Errorf("http: unsupported protocol: %q", req.Protocol)
	}

	u, err := url.ParseRequestURI(req.Target)
	if err != nil {
		return fmt.Errorf("http: malformed request target: %w", err)
	}
	req.Path = u.Path
	req.EscapedPath = u.EscapedPath()
	req.RawQuery = u.RawQuery

	for {
		line, err := readLine(reader)
		if err != nil {
			return fmt.Errorf("http: header read error: %w", err)
		}
		if line == "" {
			break // end of headers
		}
		if len(req.Headers) >= MaxRequestHeaders {
			return ErrTooManyHeaders
		}

		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return ErrMalformedHeader
		}
		key := strings.ToLower(strings.TrimSpace(line[:i]))
		value := strings.TrimSpace(line[i+1:])
		if prev, found := req.Headers[key]; found {
			value = prev + ", " + value
		}
		req.Headers[key] = value
	}

	connHeader := strings.ToLower(req.Headers["connection"])
	if req.Protocol == "HTTP/1.1" {
		req.KeepAlive = connHeader != "close"
	} else {
		req.KeepAlive = connHeader == "keep-alive"
	}

	return req.prepareBody(reader)
}

func (req *Request) prepareBody(reader *bufio.Reader) error {
	if te, found := req.Headers["transfer-encoding"]; found {
		if !strings.EqualFold(strings.TrimSpace(te), "chunked") {
			return fmt.Errorf("http: unsupported transfer encoding: %q", te)
		}
		req.Body = httputil.NewChunkedReader(reader)
		return nil
	}

	cl, found := req.Headers["content-length"]
	if !found {
		req.ContentLength = 0
		req.Body = eofReader{}
		return nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("http: invalid content length: %q", cl)
	}
	req.ContentLength = n
	req.Body = io.LimitReader(reader, n)
	return nil
}

func (req *Request) Reset() {
	*req = Request{
		Headers:       make(map[string]string),
		ContentLength: -1,
		Body:          eofReader{},
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	var line []byte
	for {
		l, more, err := reader.ReadLine()
		if err != nil {
			return "", err
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if len(line) > MaxLineSize {
			return "", ErrLineTooLong
		}
		if !more {
			return string(line), nil
		}
	}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
