package finder

import "fmt"

// RangeError is returned when a search parameter is out of range.
type RangeError struct {
	Param   string
	Value   interface{}
	Message string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Param, e.Value, e.Message)
}
