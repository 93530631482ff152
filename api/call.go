package api

import (
	"context"
	"sync"

	"github.com/freekieb7/phantom/http"
)

// Call is handed to a method for one request. Status and header overrides set
// on it apply to that request's response only.
type Call struct {
	ctx       context.Context
	name      string
	params    Params
	requestID string

	mu     sync.Mutex
	status int
	header http.Header
}

func NewCall(ctx context.Context, name string, params Params, requestID string) *Call {
	if params == nil {
		params = Params{}
	}
	return &Call{
		ctx:       ctx,
		name:      name,
		params:    params,
		requestID: requestID,
	}
}

func (call *Call) Context() context.Context {
	if call.ctx == nil {
		return context.Background()
	}
	return call.ctx
}

func (call *Call) Method() string { return call.name }

func (call *Call) Params() Params { return call.params }

func (call *Call) RequestID() string { return call.requestID }

// SetStatus overrides the HTTP status code of this call's response.
func (call *Call) SetStatus(code int) {
	call.mu.Lock()
	call.status = code
	call.mu.Unlock()
}

// SetHeader adds or replaces a response header for this call's response.
func (call *Call) SetHeader(name, value string) {
	call.mu.Lock()
	call.header.Set(name, value)
	call.mu.Unlock()
}

// MergeHeader applies every field of header as SetHeader would.
func (call *Call) MergeHeader(header http.Header) {
	call.mu.Lock()
	for _, field := range header {
		call.header.Set(field.Name, field.Value)
	}
	call.mu.Unlock()
}

// overrides returns the requested status (0 when unset) and header fields.
func (call *Call) overrides() (int, http.Header) {
	call.mu.Lock()
	defer call.mu.Unlock()
	return call.status, call.header.Clone()
}
