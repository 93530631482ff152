package api

import "fmt"

// PanicError carries a value recovered from a panicking method.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("api: method panicked: %v", e.Value)
}
