package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// schemaSource constrains gap tables written in CUE. The definition is
// closed, so misspelled fields are rejected.
const schemaSource = `
#GapTable: {
	name?:           string
	gaps:            [...string]
	tick_width:      *64 | 32
	reference:       *"all" | string
	average:         *"simple" | "trimmed"
	track_recursion: *true | bool
}
`

// ParseCUE evaluates a CUE gap table. filename is used for positions.
func ParseCUE(data []byte, filename string) (*GapTable, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("gaptable.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fromCUE(ErrCodeGeneric, err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeParse, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#GapTable")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}

	var table GapTable
	if err := unified.Decode(&table); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	table.ApplyDefaults()

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// fromCUE converts the first CUE error into an *Error carrying its position.
func fromCUE(code string, err error) *Error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &Error{
		Code:    code,
		Message: formatMsg(format, args),
		Pos:     first.Position(),
	}
}

func formatMsg(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
