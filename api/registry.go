package api

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidMethodName = errors.New("api: method name must match \\w+")
	ErrPrivateMethod     = errors.New("api: method names starting with _ are private")
	ErrDuplicateMethod   = errors.New("api: method already registered")
	ErrNilMethod         = errors.New("api: method is nil")
)

var methodNamePattern = regexp.MustCompile(`^\w+$`)

// Method is an application function callable as /api/<name>. It returns a
// Future, resolved immediately or later.
type Method func(call *Call) *Future

// Registry maps method names to methods. It is filled before the server
// starts and only read afterwards.
type Registry struct {
	methods map[string]Method
}

func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]Method),
	}
}

// NewRegistryFromMap registers every entry of methods.
func NewRegistryFromMap(methods map[string]Method) (*Registry, error) {
	registry := NewRegistry()

	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := registry.Register(name, methods[name]); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (registry *Registry) Register(name string, method Method) error {
	switch {
	case !methodNamePattern.MatchString(name):
		return fmt.Errorf("%w: %q", ErrInvalidMethodName, name)
	case strings.HasPrefix(name, "_"):
		return fmt.Errorf("%w: %q", ErrPrivateMethod, name)
	case method == nil:
		return fmt.Errorf("%w: %q", ErrNilMethod, name)
	}

	if _, found := registry.methods[name]; found {
		return fmt.Errorf("%w: %q", ErrDuplicateMethod, name)
	}

	registry.methods[name] = method
	return nil
}

// Lookup is exact and case-sensitive. Private names never resolve.
func (registry *Registry) Lookup(name string) (Method, bool) {
	if strings.HasPrefix(name, "_") {
		return nil, false
	}

	method, found := registry.methods[name]
	return method, found
}

func (registry *Registry) Names() []string {
	names := make([]string, 0, len(registry.methods))
	for name := range registry.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the registry. Later registrations on the original are not
// visible in the copy.
func (registry *Registry) Snapshot() *Registry {
	snapshot := &Registry{
		methods: make(map[string]Method, len(registry.methods)),
	}
	for name, method := range registry.methods {
		snapshot.methods[name] = method
	}
	return snapshot
}
