package types

import (
	"strconv"
	"strings"

	set "github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"
)

// UnionType is a flattened, deduplicated "one of" type. Members are kept
// in canonical order (by mangled name) and are never unions themselves.
type UnionType struct{ Type }

func (u UnionType) Members() []Type {
	return lo.Map(u.rec().members, func(id int32, _ int) Type {
		return u.at(id)
	})
}

func (u UnionType) ExplicitString() string {
	members := lo.Map(u.Members(), func(t Type, _ int) string {
		return t.String()
	})
	return "(" + strings.Join(members, " | ") + ")"
}

func (u UnionType) MangledName() string {
	return u.rec().mangled
}

func mangleUnion(members []Type) string {
	var sb strings.Builder
	sb.WriteString("UT")
	for _, t := range members {
		writeLengthPrefixed(&sb, t.MangledName())
	}
	return sb.String()
}

func writeLengthPrefixed(sb *strings.Builder, s string) {
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteString(s)
}

// specialized TNode names for small unions. The table is closed: adding
// a mapping changes generated output for existing declarations.
var unionTNodeNames = []struct {
	members []string
	name    string
}{
	{[]string{"Smi", "HeapNumber"}, "Number"},
	{[]string{"Smi", "HeapNumber", "BigInt"}, "Numeric"},
}

func (u UnionType) GeneratedTNodeTypeName() string {
	if members := u.rec().members; len(members) <= 3 {
		names := set.New[string](len(members))
		for _, t := range u.Members() {
			names.Insert(t.GeneratedTNodeTypeName())
		}
		for _, entry := range unionTNodeNames {
			if names.Equal(set.From(entry.members)) {
				return entry.name
			}
		}
	}
	parent, ok := u.Parent()
	if !ok {
		panic("unreachable")
	}
	return parent.GeneratedTNodeTypeName()
}

// IsSupertypeOf reports whether t is a member of u or a subtype of one
// of its members. A union t is covered when each of its members is.
func (u UnionType) IsSupertypeOf(t Type) bool {
	if tu, ok := t.Union(); ok {
		return lo.EveryBy(tu.Members(), u.IsSupertypeOf)
	}
	return lo.ContainsBy(u.Members(), func(m Type) bool {
		return t.IsSubtypeOf(m)
	})
}
