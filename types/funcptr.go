package types

import (
	"strings"

	"github.com/samber/lo"
)

// FunctionPointerType is the type of a builtin pointer: positional
// parameter types and one return type.
type FunctionPointerType struct{ Type }

func (f FunctionPointerType) Parameters() TypeVector {
	return lo.Map(f.rec().params, func(id int32, _ int) Type {
		return f.at(id)
	})
}

func (f FunctionPointerType) Return() Type {
	return f.at(f.rec().ret)
}

func (f FunctionPointerType) ExplicitString() string {
	return "builtin (" + f.Parameters().String() + ") => " + f.Return().String()
}

func (f FunctionPointerType) MangledName() string {
	return f.rec().mangled
}

func (f FunctionPointerType) GeneratedTNodeTypeName() string {
	parent, ok := f.Parent()
	if !ok {
		panic("unreachable")
	}
	return parent.GeneratedTNodeTypeName()
}

// the return type is always encoded last.
func mangleFunctionPointer(params []Type, ret Type) string {
	var sb strings.Builder
	sb.WriteString("FT")
	for _, t := range params {
		writeLengthPrefixed(&sb, t.MangledName())
	}
	writeLengthPrefixed(&sb, ret.MangledName())
	return sb.String()
}
