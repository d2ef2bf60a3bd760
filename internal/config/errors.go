package config

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes for gap-table problems. Codes are stable and appear in CLI
// output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeRead        = "E002" // File could not be read
	ErrCodeFormat      = "E003" // Unsupported file extension
	ErrCodeParse       = "E004" // CUE/YAML syntax error
	ErrCodeSchema      = "E005" // Value does not satisfy the gap-table schema
	ErrCodeNoGaps      = "E101" // Gap list empty
	ErrCodeEmptyName   = "E102" // Gap name empty
	ErrCodeDuplicate   = "E103" // Gap name used twice
	ErrCodeTickWidth   = "E104" // Tick width not 32 or 64
	ErrCodeReference   = "E105" // Reference names an unknown gap
	ErrCodeAverageMode = "E106" // Average mode not simple or trimmed
)

// Error describes a gap-table problem with an optional CUE source position.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Code returns the code of the first *Error in err's chain, or
// ErrCodeGeneric.
func Code(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeGeneric
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
