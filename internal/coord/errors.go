package coord

import "fmt"

// FormatError is returned when a coordinate string is malformed.
type FormatError struct {
	Input   string
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid coordinate %q: %s", e.Input, e.Message)
}

func formatErr(input, format string, args ...interface{}) *FormatError {
	return &FormatError{Input: input, Message: fmt.Sprintf(format, args...)}
}
