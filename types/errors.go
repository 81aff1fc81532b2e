package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// TypeError is the fatal static error of this package. Operands holds
// the rendered descriptions of the offending types, including aliases.
type TypeError struct {
	Msg      string
	Operands []string
}

func (e *TypeError) Error() string {
	return e.Msg
}

func newTypeError(format string, operands ...Type) *TypeError {
	rendered := lo.Map(operands, func(t Type, _ int) string {
		return t.String()
	})
	return &TypeError{
		Msg:      fmt.Sprintf(format, lo.ToAnySlice(rendered)...),
		Operands: rendered,
	}
}

// NotInSet reports an option value outside its allowed set.
func NotInSet(what, value string, allowed []string) *TypeError {
	quoted := lo.Map(allowed, func(s string, _ int) string {
		return fmt.Sprintf("%q", s)
	})
	return &TypeError{
		Msg:      fmt.Sprintf("unexpected %s %q, expected one of %s", what, value, strings.Join(quoted, ", ")),
		Operands: []string{value},
	}
}
