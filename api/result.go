package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freekieb7/phantom/http"
)

// LooksLikeJSON is the payload sniffing used for textual results: text that
// starts with '{' is labelled JSON without being validated or re-encoded.
// It is a heuristic, not content negotiation; arrays and invalid documents
// that happen to start with '{' are labelled wrongly.
func LooksLikeJSON(text string) bool {
	return strings.HasPrefix(text, "{")
}

// Encode turns a method result into a body and its content type. Structured
// values (maps, structs, slices, pointers) and nil are JSON encoded. Text and bytes
// are passed through, labelled by LooksLikeJSON. Scalars are printed as text.
func Encode(value any) ([]byte, string, error) {
	switch v := value.(type) {
	case nil:
		return []byte("null"), http.ContentTypeJSON, nil
	case json.RawMessage:
		return []byte(v), http.ContentTypeJSON, nil
	case string:
		return []byte(v), textContentType(v), nil
	case []byte:
		return v, textContentType(string(v)), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return []byte(fmt.Sprint(v)), http.ContentTypePlainText, nil
	}

	body, err := json.Marshal(value)
	if err != nil {
		return nil, "", fmt.Errorf("api: encode result: %w", err)
	}
	return body, http.ContentTypeJSON, nil
}

func textContentType(text string) string {
	if LooksLikeJSON(text) {
		return http.ContentTypeJSON
	}
	return http.ContentTypePlainText
}

// WriteResult fills res with a method's resolved value. base is the server's
// default header set; the call's status and header overrides are applied on
// top of it.
func WriteResult(res *http.Response, base http.Header, call *Call, value any) error {
	body, contentType, err := Encode(value)
	if err != nil {
		return err
	}

	header := base.Clone()
	header.Set("Content-Type", contentType)

	status, overrides := call.overrides()
	if status == 0 {
		status = http.StatusOK
	}

	res.Status = status
	res.Header = http.Merge(header, overrides)
	res.Body = body
	return nil
}

// WriteInvalidMethod answers a request for an unknown or private method.
func WriteInvalidMethod(res *http.Response, base http.Header, name string) {
	res.Header = base.Clone()
	res.WithStatus(http.StatusForbidden).WithJSON(struct {
		Method      string `json:"method"`
		ValidMethod bool   `json:"valid_method"`
	}{Method: name, ValidMethod: false})
}
