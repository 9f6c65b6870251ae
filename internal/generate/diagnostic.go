package generate

import (
	"errors"
	"fmt"
	"go/token"

	"go.uber.org/multierr"
)

// ErrStale is returned in check mode when the generated file on disk does
// not match what would be generated.
var ErrStale = errors.New("generated file is out of date")

// ErrNoGoFiles is returned for a directory without any eligible Go source.
var ErrNoGoFiles = errors.New("no Go files")

// Diagnostic reports a directive that cannot be folded into a constant.
// Arg is the 1-based argument index, or 0 when the problem is not tied to a
// single argument.
type Diagnostic struct {
	Pos  token.Position
	Name string
	Arg  int
	Expr string
	Msg  string
}

func (d *Diagnostic) Error() string {
	where := d.Pos.String()
	if where == "" || where == "-" {
		where = "<unknown>"
	}
	if d.Arg > 0 {
		return fmt.Sprintf("%s: %s: argument %d (%s) %s", where, d.label(), d.Arg, d.Expr, d.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", where, d.label(), d.Msg)
}

func (d *Diagnostic) label() string {
	if d.Name == "" {
		return "directive"
	}
	return d.Name
}

// Diagnostics unpacks err into the individual diagnostics it carries.
// Errors that are not diagnostics are skipped.
func Diagnostics(err error) []*Diagnostic {
	var out []*Diagnostic
	for _, e := range multierr.Errors(err) {
		var d *Diagnostic
		if errors.As(e, &d) {
			out = append(out, d)
		}
	}
	return out
}
