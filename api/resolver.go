package api

import (
	"regexp"
	"strings"
)

// apiPattern accepts /api/method, /api/method/, /api/method/id, with an
// optional version such as 1, 1.1 or v2 before the method name.
var apiPattern = regexp.MustCompile(`^/api/(?:(v?[0-9.]+)/)?(\w+)(/\w+)?`)

// Route is the result of matching a path against the API pattern. Version
// and ID are empty when absent from the path.
type Route struct {
	Version string
	Method  string
	ID      string
}

// Resolve matches path against the API pattern. A false result means the
// request is not an API request.
func Resolve(path string) (Route, bool) {
	match := apiPattern.FindStringSubmatch(path)
	if match == nil {
		return Route{}, false
	}

	return Route{
		Version: match[1],
		Method:  match[2],
		ID:      strings.TrimPrefix(match[3], "/"),
	}, true
}
