package http

import (
	"bufio"
	"encoding/json"
	"strconv"
)

type Response struct {
	Status int
	Header Header
	Body   []byte
}

func (res *Response) Reset() {
	res.Status = StatusOK
	res.Header = nil
	res.Body = nil
}

func (res *Response) WithStatus(status int) *Response {
	res.Status = status
	return res
}

func (res *Response) WithHeader(header Header) *Response {
	res.Header = header
	return res
}

func (res *Response) WithBody(body []byte) *Response {
	res.Body = body
	return res
}

func (res *Response) WithText(payload string) *Response {
	res.Header.Set("Content-Type", ContentTypePlainText)
	res.Body = []byte(payload)
	return res
}

// WithJSON encodes payload as the body. A string payload is written as is.
func (res *Response) WithJSON(payload any) *Response {
	if vStr, ok := payload.(string); ok {
		res.Header.Set("Content-Type", ContentTypeJSON)
		res.Body = []byte(vStr)
		return res
	}

	body, err := json.Marshal(payload)
	if err != nil {
		res.Status = StatusInternalServerError
		return res.WithText("response: encoding data to json failed")
	}

	res.Header.Set("Content-Type", ContentTypeJSON)
	res.Body = body
	return res
}

// WriteTo writes the status line, the header fields with a trailing
// Content-Length computed from the body, and the body, then flushes.
func (res *Response) WriteTo(bw *bufio.Writer) error {
	return res.write(bw, true)
}

// WriteHeadTo writes what WriteTo writes except the body. Content-Length still
// reports the body length, as a response to HEAD requires.
func (res *Response) WriteHeadTo(bw *bufio.Writer) error {
	return res.write(bw, false)
}

func (res *Response) write(bw *bufio.Writer, withBody bool) error {
	if res.Status == 0 {
		res.Status = StatusOK
	}
	res.Header.SetContentLength(len(res.Body))

	bw.WriteString("HTTP/1.1 ")
	bw.WriteString(strconv.Itoa(res.Status))
	bw.WriteByte(' ')
	bw.WriteString(StatusText(res.Status))
	bw.WriteString("\r\n")

	for _, field := range res.Header {
		bw.WriteString(field.Name)
		bw.WriteString(": ")
		bw.WriteString(field.Value)
		bw.WriteString("\r\n")
	}
	bw.WriteString("\r\n")

	if withBody {
		if _, err := bw.Write(res.Body); err != nil {
			return err
		}
	}

	return bw.Flush()
}
