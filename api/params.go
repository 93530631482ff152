package api

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Reserved parameter keys injected next to the query and body values.
const (
	KeyCustomHeaders = "_custom_headers"
	KeyAPIVersion    = "_api_version"
	KeyID            = "id"
	KeyJSON          = "_json"
	KeyError         = "_error"
)

// Params is the input of a method. Query and form values are a string, or a
// []string when the key was repeated.
type Params map[string]any

// String returns the value of key, the first one for repeated keys.
func (params Params) String(key string) string {
	switch v := params[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Values returns every value of key.
func (params Params) Values(key string) []string {
	switch v := params[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}

// CustomHeaders returns the request headers whose name starts with x-, keyed
// by lowercased name.
func (params Params) CustomHeaders() map[string]string {
	headers, _ := params[KeyCustomHeaders].(map[string]string)
	return headers
}

func (params Params) APIVersion() (string, bool) {
	v, found := params[KeyAPIVersion].(string)
	return v, found
}

func (params Params) ID() (string, bool) {
	v, found := params[KeyID].(string)
	return v, found
}

// JSON returns the decoded JSON body, nil when there was none.
func (params Params) JSON() any {
	return params[KeyJSON]
}

// Err returns the body decoding error recorded during extraction, if any.
func (params Params) Err() string {
	v, _ := params[KeyError].(string)
	return v
}

// Source is what the extractor reads from a request.
type Source struct {
	Method   string
	RawQuery string
	// Headers are keyed by lowercased name.
	Headers map[string]string
	Body    []byte
	Route   Route
}

// ExtractParams builds the parameter set of an API request. GET requests use
// the query string only. Other methods decode the body, as JSON when the
// content type says so and as a form otherwise, and lay the query values over
// it. Decoding problems are recorded under KeyError instead of failing.
func ExtractParams(src Source) Params {
	query, _ := url.ParseQuery(src.RawQuery)

	var params Params
	if src.Method == "GET" {
		params = make(Params, len(query)+3)
	} else {
		params = bodyParams(src)
	}

	for key, values := range query {
		params[key] = flatten(values)
	}

	params[KeyCustomHeaders] = customHeaders(src.Headers)
	if src.Route.Version != "" {
		params[KeyAPIVersion] = src.Route.Version
	}
	if src.Route.ID != "" {
		params[KeyID] = src.Route.ID
	}

	return params
}

func bodyParams(src Source) Params {
	params := make(Params)

	if isJSONContentType(src.Headers["content-type"]) {
		if len(bytes.TrimSpace(src.Body)) == 0 {
			return params
		}

		var payload any
		if err := json.Unmarshal(src.Body, &payload); err != nil {
			params[KeyError] = "JSON parse " + err.Error()
			return params
		}
		params[KeyJSON] = payload
		return params
	}

	values, err := url.ParseQuery(string(src.Body))
	for key, v := range values {
		params[key] = flatten(v)
	}
	if err != nil {
		params[KeyError] = "form parse " + err.Error()
	}
	return params
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func customHeaders(headers map[string]string) map[string]string {
	custom := make(map[string]string)
	for name, value := range headers {
		if strings.HasPrefix(strings.ToLower(name), "x-") {
			custom[strings.ToLower(name)] = value
		}
	}
	return custom
}

func flatten(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
