package extraction

import "fmt"

// ModelCallError represents a failed model invocation for one document.
type ModelCallError struct {
	Filename string
	Cause    error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed for %s: %v", e.Filename, e.Cause)
}

func (e *ModelCallError) Unwrap() error {
	return e.Cause
}

// ParseError represents an unusable model response for one document.
type ParseError struct {
	Filename string
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unparsable extraction for %s: %s: %v", e.Filename, e.Message, e.Cause)
	}
	return fmt.Sprintf("unparsable extraction for %s: %s", e.Filename, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
