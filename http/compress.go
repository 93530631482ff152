package http

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// MinCompressSize is the smallest body Gzip bothers to compress.
const MinCompressSize = 512

// AcceptsGzip reports whether the client listed gzip in Accept-Encoding.
func (req *Request) AcceptsGzip() bool {
	accept, found := req.HeaderValue("Accept-Encoding")
	if !found {
		return false
	}

	for _, coding := range strings.Split(accept, ",") {
		coding = strings.TrimSpace(coding)
		if i := strings.IndexByte(coding, ';'); i >= 0 {
			if strings.TrimSpace(coding[i+1:]) == "q=0" {
				continue
			}
			coding = strings.TrimSpace(coding[:i])
		}
		if strings.EqualFold(coding, "gzip") {
			return true
		}
	}
	return false
}

// Gzip compresses the body in place and marks the encoding in the header.
// Small bodies and bodies that already carry an encoding are left alone.
func (res *Response) Gzip(level int) error {
	if len(res.Body) < MinCompressSize {
		return nil
	}
	if _, encoded := res.Header.Get("Content-Encoding"); encoded {
		return nil
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return err
	}
	if _, err := zw.Write(res.Body); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	res.Body = buf.Bytes()
	res.Header.Set("Content-Encoding", "gzip")
	res.Header.Set("Vary", "Accept-Encoding")
	return nil
}
