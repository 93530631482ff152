// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package http

const (
	StatusOK = 200 // RFC 7231, 6.3.1

	StatusBadRequest            = 400 // RFC 7231, 6.5.1
	StatusForbidden             = 403 // RFC 7231, 6.5.3
	StatusNotFound              = 404 // RFC 7231, 6.5.4
	StatusMethodNotAllowed      = 405 // RFC 7231, 6.5.5
	StatusRequestEntityTooLarge = 413 // RFC 7231, 6.5.11
	StatusRequestURITooLong     = 414 // RFC 7231, 6.5.12

	StatusRequestHeaderFieldsTooLarge = 431 // RFC 6585, 5

	StatusInternalServerError     = 500 // RFC 7231, 6.6.1
	StatusNotImplemented          = 501 // RFC 7231, 6.6.2
	StatusServiceUnavailable      = 503 // RFC 7231, 6.6.4
	StatusHTTPVersionNotSupported = 505 // RFC 7231, 6.6.6
)

var (
	unknownStatusCode = "Unknown Status Code"

	statusMessages = map[int]string{
		StatusOK: "OK",

		StatusBadRequest:            "Bad Request",
		StatusForbidden:             "Forbidden",
		StatusNotFound:              "Not Found",
		StatusMethodNotAllowed:      "Method Not Allowed",
		StatusRequestEntityTooLarge: "Request Entity Too Large",
		StatusRequestURITooLong:     "Request URI Too Long",

		StatusRequestHeaderFieldsTooLarge: "Request Header Fields Too Large",

		StatusInternalServerError:     "Internal Server Error",
		StatusNotImplemented:          "Not Implemented",
		StatusServiceUnavailable:      "Service Unavailable",
		StatusHTTPVersionNotSupported: "HTTP Version Not Supported",
	}
)

// StatusText returns the reason phrase for code, or "Unknown Status Code".
func StatusText(code int) string {
	if msg, found := statusMessages[code]; found {
		return msg
	}
	return unknownStatusCode
}
