package types

import (
	"cmp"
	"strings"

	"golang.org/x/exp/slices"
)

// IsAssignableFrom reports whether a value of type from may flow into a
// slot of type to. Constexpr types only reach non-identical slots
// through an implicit conversion.
func (r *Registry) IsAssignableFrom(to, from Type) bool {
	if to == from {
		return true
	}
	if from.IsSubtypeOf(to) && !from.IsConstexpr() {
		return true
	}
	return r.IsImplicitlyConvertibleFrom(to, from)
}

// IsCompatibleSignature reports whether sig can be called with arguments
// of the given types and the given labels. Arguments beyond the fixed
// parameters are accepted only by a variadic sig, and each must be
// assignable to the top type.
//
// Under LabelCount only the number of labels is compared.
func (r *Registry) IsCompatibleSignature(sig *Signature, args []Type, labels []Label) bool {
	params := sig.ParameterTypes.Types
	if len(params) > len(args) {
		return false
	}
	if len(sig.Labels) != len(labels) {
		return false
	}
	if r.LabelCheck == LabelStrict && !r.labelsCompatible(sig.Labels, labels) {
		return false
	}
	for i, arg := range args {
		if i < len(params) {
			if !r.IsAssignableFrom(params[i], arg) {
				return false
			}
			continue
		}
		if !sig.ParameterTypes.VarArgs {
			return false
		}
		top, ok := r.Top()
		if !ok || !r.IsAssignableFrom(top, arg) {
			return false
		}
	}
	return true
}

// values flow from the callee into the caller's label.
func (r *Registry) labelsCompatible(declared, supplied []Label) bool {
	return slices.EqualFunc(declared, supplied, func(d, s Label) bool {
		return slices.EqualFunc(d.Types, s.Types, func(dt, st Type) bool {
			return r.IsAssignableFrom(st, dt)
		})
	})
}

// Compare orders types by mangled name, then by registration order for
// the rare names that mangle alike. It is the canonical order used
// wherever a collection of types is serialized or displayed.
func Compare(a, b Type) int {
	if c := strings.Compare(a.MangledName(), b.MangledName()); c != 0 {
		return c
	}
	return cmp.Compare(a.id, b.id)
}

func (t Type) Less(o Type) bool {
	return Compare(t, o) < 0
}

func SortTypes(ts []Type) {
	slices.SortFunc(ts, Compare)
}
