package http

import (
	"strconv"
	"strings"
)

const headerContentLength = "Content-Length"

// Field is a single response header line. Name keeps the casing it was set with.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered set of response header fields. Names are unique when
// compared case-insensitively.
type Header []Field

func NewHeader(pairs ...string) Header {
	h := make(Header, 0, len(pairs)/2+2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

func (h Header) index(name string) int {
	for i := range h {
		if strings.EqualFold(h[i].Name, name) {
			return i
		}
	}
	return -1
}

func (h Header) Get(name string) (string, bool) {
	if i := h.index(name); i >= 0 {
		return h[i].Value, true
	}
	return "", false
}

// Set replaces the value of an existing field in place, taking over the new
// casing of name, or appends a new field.
func (h *Header) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		(*h)[i] = Field{Name: name, Value: value}
		return
	}
	*h = append(*h, Field{Name: name, Value: value})
}

func (h *Header) Del(name string) {
	if i := h.index(name); i >= 0 {
		*h = append((*h)[:i], (*h)[i+1:]...)
	}
}

func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return append(make(Header, 0, len(h)+2), h...)
}

// SetContentLength drops any Content-Length field and appends a fresh one as
// the last field.
func (h *Header) SetContentLength(n int) {
	h.Del(headerContentLength)
	*h = append(*h, Field{Name: headerContentLength, Value: strconv.Itoa(n)})
}

// Merge returns base with overrides applied. An override whose name matches a
// base field case-insensitively removes that field, and the override is added
// with its own casing. Neither argument is modified.
func Merge(base, overrides Header) Header {
	merged := base.Clone()
	for _, field := range overrides {
		merged.Del(field.Name)
		merged = append(merged, field)
	}
	return merged
}
