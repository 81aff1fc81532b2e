package types

import (
	"strings"

	"golang.org/x/exp/slices"
)

type TypeVector []Type

func (v TypeVector) String() string {
	var sb strings.Builder
	for i, t := range v {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

type ParameterTypes struct {
	Types   TypeVector
	VarArgs bool
}

func (p ParameterTypes) String() string {
	s := p.Types.String()
	if p.VarArgs {
		if len(p.Types) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s
}

// Label is a named alternate exit of a callable with its own parameter
// types.
type Label struct {
	Name  string
	Types TypeVector
}

type Signature struct {
	// ParameterNames is either empty or parallel to ParameterTypes.Types.
	// It is only used for display.
	ParameterNames []string
	ParameterTypes ParameterTypes
	ReturnType     Type
	Labels         []Label
}

// String renders sig as "(a: A, b: B, ...): R labels L(T), M".
func (sig *Signature) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, t := range sig.ParameterTypes.Types {
		if i > 0 {
			sb.WriteString(", ")
		}
		if len(sig.ParameterNames) > 0 {
			sb.WriteString(sig.ParameterNames[i])
			sb.WriteString(": ")
		}
		sb.WriteString(t.String())
	}
	if sig.ParameterTypes.VarArgs {
		if len(sig.ParameterTypes.Types) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString("): ")
	sb.WriteString(sig.ReturnType.String())
	if len(sig.Labels) == 0 {
		return sb.String()
	}
	sb.WriteString(" labels ")
	for i, l := range sig.Labels {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(l.Name)
		if len(l.Types) > 0 {
			sb.WriteString("(")
			sb.WriteString(l.Types.String())
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// HasSameTypesAs compares parameter types, variadicity, return type and
// positional label types. Parameter and label names are ignored.
func (sig *Signature) HasSameTypesAs(other *Signature) bool {
	if !slices.Equal(sig.ParameterTypes.Types, other.ParameterTypes.Types) ||
		sig.ParameterTypes.VarArgs != other.ParameterTypes.VarArgs ||
		sig.ReturnType != other.ReturnType {
		return false
	}
	return slices.EqualFunc(sig.Labels, other.Labels, func(a, b Label) bool {
		return slices.Equal(a.Types, b.Types)
	})
}
