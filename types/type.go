// Package types implements the static type graph of tq declarations:
// a single-rooted tree of abstract types plus union and function-pointer
// types, subtyping, common supertypes and the mangled names the code
// generator builds symbols from.
package types

import (
	"strings"

	set "github.com/hashicorp/go-set/v3"
)

type Kind uint8

const (
	invalidKind Kind = iota
	Abstract
	Union
	FunctionPointer
)

func (k Kind) String() string {
	switch k {
	case Abstract:
		return "abstract"
	case Union:
		return "union"
	case FunctionPointer:
		return "function pointer"
	default:
		return "invalid"
	}
}

const noParent = -1

const constexprPrefix = "constexpr "

// record is the arena entry behind a Type. It is never mutated after
// registration, except for its alias set.
type record struct {
	kind    Kind
	parent  int32
	aliases *set.TreeSet[string]
	mangled string

	// Abstract
	name      string
	generates string

	// Union
	members []int32

	// FunctionPointer
	params []int32
	ret    int32
}

// Type is a handle into a Registry. Two Types are the same type iff the
// handles are equal. The zero Type is not a type.
type Type struct {
	r  *Registry
	id int32
}

func (t Type) rec() *record {
	if t.r == nil {
		panic("types: use of zero Type")
	}
	return &t.r.records[t.id]
}

func (t Type) at(id int32) Type {
	return Type{r: t.r, id: id}
}

func (t Type) IsValid() bool { return t.r != nil }

func (t Type) Kind() Kind {
	if t.r == nil {
		return invalidKind
	}
	return t.rec().kind
}

// Parent returns the direct supertype of t in the tree. ok is false for
// roots.
func (t Type) Parent() (parent Type, ok bool) {
	p := t.rec().parent
	if p == noParent {
		return Type{}, false
	}
	return t.at(p), true
}

// Depth is the number of parent hops from t to its root.
func (t Type) Depth() int {
	d := 0
	for p := t.rec().parent; p != noParent; p = t.r.records[p].parent {
		d++
	}
	return d
}

func (t Type) Aliases() []string {
	return t.rec().aliases.Slice()
}

func (t Type) String() string {
	if t.r == nil {
		return "<nil>"
	}
	aliases := t.Aliases()
	switch len(aliases) {
	case 0:
		return t.ExplicitString()
	case 1:
		return aliases[0]
	}
	var sb strings.Builder
	sb.WriteString(aliases[0])
	sb.WriteString(" (aka. ")
	sb.WriteString(strings.Join(aliases[1:], ", "))
	sb.WriteString(")")
	return sb.String()
}

// ExplicitString renders the structure of t, ignoring aliases.
func (t Type) ExplicitString() string {
	switch t.Kind() {
	case Abstract:
		return t.rec().name
	case Union:
		return UnionType{t}.ExplicitString()
	case FunctionPointer:
		return FunctionPointerType{t}.ExplicitString()
	default:
		panic("unreachable")
	}
}

// MangledName is the deterministic, length-prefixed encoding of t used
// to build low-level symbol names.
func (t Type) MangledName() string {
	return t.rec().mangled
}

// GeneratedTypeName is the backend wrapper type, e.g. "TNode<Smi>".
func (t Type) GeneratedTypeName() string {
	switch t.Kind() {
	case Abstract:
		return t.rec().generates
	case Union, FunctionPointer:
		return "TNode<" + t.GeneratedTNodeTypeName() + ">"
	default:
		panic("unreachable")
	}
}

// GeneratedTNodeTypeName is the raw backend type wrapped by
// GeneratedTypeName, e.g. "Smi".
func (t Type) GeneratedTNodeTypeName() string {
	switch t.Kind() {
	case Abstract:
		return AbstractType{t}.GeneratedTNodeTypeName()
	case Union:
		return UnionType{t}.GeneratedTNodeTypeName()
	case FunctionPointer:
		return FunctionPointerType{t}.GeneratedTNodeTypeName()
	default:
		panic("unreachable")
	}
}

func (t Type) IsConstexpr() bool {
	switch t.Kind() {
	case Abstract:
		return strings.HasPrefix(t.rec().name, constexprPrefix)
	case Union, FunctionPointer:
		return false
	default:
		panic("unreachable")
	}
}

func (t Type) IsAbstractName(name string) bool {
	a, ok := t.Abstract()
	return ok && a.Name() == name
}

func (t Type) Abstract() (AbstractType, bool) {
	if t.Kind() != Abstract {
		return AbstractType{}, false
	}
	return AbstractType{t}, true
}

func (t Type) Union() (UnionType, bool) {
	if t.Kind() != Union {
		return UnionType{}, false
	}
	return UnionType{t}, true
}

func (t Type) FunctionPointer() (FunctionPointerType, bool) {
	if t.Kind() != FunctionPointer {
		return FunctionPointerType{}, false
	}
	return FunctionPointerType{t}, true
}

// IsSubtypeOf reports whether t is s, lies below s in the tree, or is
// covered by s when s is a union.
func (t Type) IsSubtypeOf(s Type) bool {
	if t == s {
		return true
	}
	if u, ok := s.Union(); ok {
		return u.IsSupertypeOf(t)
	}
	for cur, ok := t, true; ok; cur, ok = cur.Parent() {
		if cur == s {
			return true
		}
	}
	return false
}

// CommonSupertype returns the least upper bound of a and b in the tree.
// Both chains are first aligned to the same depth, then walked in
// lockstep until they meet.
func CommonSupertype(a, b Type) (Type, error) {
	diff := a.Depth() - b.Depth()
	as, bs := a, b
	for ; diff > 0; diff-- {
		as, _ = as.Parent()
	}
	for ; diff < 0; diff++ {
		bs, _ = bs.Parent()
	}
	for as.IsValid() && bs.IsValid() {
		if as == bs {
			return as, nil
		}
		as, _ = as.Parent()
		bs, _ = bs.Parent()
	}
	return Type{}, newTypeError("types %s and %s have no common supertype", a, b)
}

type AbstractType struct{ Type }

func (a AbstractType) Name() string { return a.rec().name }

func (a AbstractType) GeneratedTNodeTypeName() string {
	g := a.rec().generates
	if strings.HasPrefix(g, "TNode<") && strings.HasSuffix(g, ">") {
		return g[len("TNode<") : len(g)-1]
	}
	return g
}

func mangleAbstract(name string) string {
	return "AT" + strings.ReplaceAll(name, " ", "_")
}
