package http

import (
	"net/http"
	"strconv"
	"strings"

	phttp "github.com/freekieb7/phantom/http"
)

// Handler exposes a native handler to the standard library server. A dropped
// request is answered by closing the connection; an aborted one is answered
// with Connection: close.
func Handler(handler phttp.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := phttp.NewRequestCtx(r.Context())
		fillRequest(&ctx.Request, r)

		handler(ctx)

		if ctx.Dropped() {
			closeConnection(w)
			return
		}

		res := &ctx.Response
		res.Header.SetContentLength(len(res.Body))

		header := w.Header()
		for _, field := range res.Header {
			name := field.Name
			if key := http.CanonicalHeaderKey(name); key == "Content-Type" || key == "Content-Length" {
				name = key
			}
			// Assigned directly so other fields keep their casing on the wire.
			header[name] = []string{field.Value}
		}
		if ctx.Aborted() {
			header.Set("Connection", "close")
		}

		status := res.Status
		if status == 0 {
			status = phttp.StatusOK
		}
		w.WriteHeader(status)
		w.Write(res.Body)
	})
}

func fillRequest(req *phttp.Request, r *http.Request) {
	req.Method = r.Method
	req.Target = r.RequestURI
	req.Protocol = r.Proto
	req.Path = r.URL.Path
	req.EscapedPath = r.URL.EscapedPath()
	req.RawQuery = r.URL.RawQuery

	for name, values := range r.Header {
		req.Headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		req.Headers["host"] = r.Host
	}
	if r.ContentLength >= 0 && r.Header.Get("Content-Length") == "" && len(r.TransferEncoding) == 0 {
		req.Headers["content-length"] = strconv.FormatInt(r.ContentLength, 10)
	}

	req.KeepAlive = !r.Close
	req.ContentLength = r.ContentLength
	if r.Body != nil {
		req.Body = r.Body
	}
}

func closeConnection(w http.ResponseWriter) {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		// Makes the server close the connection without writing a response.
		panic(http.ErrAbortHandler)
	}
	conn.Close()
}
