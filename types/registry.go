package types

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	set "github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// LabelCheck selects how IsCompatibleSignature compares labels.
type LabelCheck int

const (
	// LabelCount only compares the number of labels. Label parameter
	// types are not verified.
	LabelCount LabelCheck = iota
	// LabelStrict additionally requires every declared label parameter
	// to be assignable to the call site's label parameter.
	LabelStrict
)

var labelCheckNames = map[string]LabelCheck{
	"count":  LabelCount,
	"strict": LabelStrict,
}

func ParseLabelCheck(s string) (LabelCheck, error) {
	if lc, ok := labelCheckNames[s]; ok {
		return lc, nil
	}
	allowed := lo.Keys(labelCheckNames)
	slices.Sort(allowed)
	return 0, NotInSet("label check", s, allowed)
}

func (lc LabelCheck) String() string {
	switch lc {
	case LabelCount:
		return "count"
	case LabelStrict:
		return "strict"
	}
	return fmt.Sprintf("LabelCheck(%d)", int(lc))
}

type conversion struct {
	from, to int32
}

// Registry owns type identity. Every Type is created by a Registry and
// compound types are interned, so structurally identical unions and
// function pointers are the same Type.
type Registry struct {
	records []record
	names   map[string]int32

	// compound types keyed by the ids of their components
	interned map[string]int32

	top          int32
	callableRoot int32
	implicit     *set.Set[conversion]

	LabelCheck LabelCheck
}

func NewRegistry() *Registry {
	return &Registry{
		names:        make(map[string]int32),
		interned:     make(map[string]int32),
		top:          noParent,
		callableRoot: noParent,
		implicit:     set.New[conversion](0),
	}
}

func (r *Registry) typ(id int32) Type {
	return Type{r: r, id: id}
}

func (r *Registry) own(t Type) {
	if t.r != r {
		panic("types: Type belongs to another Registry")
	}
}

func (r *Registry) add(rec record) Type {
	rec.aliases = set.NewTreeSet[string](cmp.Compare[string])
	r.records = append(r.records, rec)
	return r.typ(int32(len(r.records) - 1))
}

// DeclareAbstract registers a nominal type. A zero parent makes it a
// root. An empty generates inherits the parent's generated type, and
// defaults to "TNode<name>" for roots.
func (r *Registry) DeclareAbstract(name string, parent Type, generates string) (Type, error) {
	if _, ok := r.names[name]; ok {
		return Type{}, fmt.Errorf("type %q is already declared", name)
	}
	rec := record{
		kind:    Abstract,
		parent:  noParent,
		name:    name,
		mangled: mangleAbstract(name),
	}
	if parent.IsValid() {
		r.own(parent)
		rec.parent = parent.id
	}
	switch {
	case generates != "":
		rec.generates = generates
	case parent.IsValid():
		rec.generates = parent.GeneratedTypeName()
	default:
		rec.generates = "TNode<" + name + ">"
	}
	t := r.add(rec)
	r.names[name] = t.id
	return t, nil
}

// Alias adds a display name to t and makes t resolvable under it.
func (r *Registry) Alias(t Type, name string) error {
	r.own(t)
	if _, ok := r.names[name]; ok {
		return fmt.Errorf("type %q is already declared", name)
	}
	r.names[name] = t.id
	t.rec().aliases.Insert(name)
	return nil
}

func (r *Registry) Lookup(name string) (Type, bool) {
	id, ok := r.names[name]
	if !ok {
		return Type{}, false
	}
	return r.typ(id), true
}

// Union returns the union of ts. Nested unions are flattened, duplicates
// removed and members put in canonical order, so the result does not
// depend on how the operands were grouped. A single member is returned
// as itself.
func (r *Registry) Union(ts ...Type) (Type, error) {
	if len(ts) == 0 {
		return Type{}, fmt.Errorf("union of no types")
	}
	flat := lo.FlatMap(ts, func(t Type, _ int) []Type {
		r.own(t)
		if u, ok := t.Union(); ok {
			return u.Members()
		}
		return []Type{t}
	})
	members := lo.Uniq(flat)
	SortTypes(members)
	if len(members) == 1 {
		return members[0], nil
	}
	key := structuralKey('U', members)
	if id, ok := r.interned[key]; ok {
		return r.typ(id), nil
	}
	parent := members[0]
	for _, m := range members[1:] {
		var err error
		if parent, err = CommonSupertype(parent, m); err != nil {
			return Type{}, err
		}
	}
	t := r.add(record{
		kind:    Union,
		parent:  parent.id,
		mangled: mangleUnion(members),
		members: lo.Map(members, func(t Type, _ int) int32 { return t.id }),
	})
	r.interned[key] = t.id
	return t, nil
}

// FunctionPointer returns the builtin pointer type with the given
// signature. Its parent is the callable root, or the top type when no
// callable root is set.
func (r *Registry) FunctionPointer(params []Type, ret Type) (Type, error) {
	for _, p := range params {
		r.own(p)
	}
	r.own(ret)
	key := structuralKey('F', append(slices.Clip(params), ret))
	if id, ok := r.interned[key]; ok {
		return r.typ(id), nil
	}
	mangled := mangleFunctionPointer(params, ret)
	parent := r.callableRoot
	if parent == noParent {
		parent = r.top
	}
	if parent == noParent {
		return Type{}, fmt.Errorf("cannot declare %s without a top type", mangled)
	}
	t := r.add(record{
		kind:    FunctionPointer,
		parent:  parent,
		mangled: mangled,
		params:  lo.Map(params, func(t Type, _ int) int32 { return t.id }),
		ret:     ret.id,
	})
	r.interned[key] = t.id
	return t, nil
}

// structuralKey identifies a compound type by the ids of its components.
// Mangled names cannot serve: "constexpr A" and "constexpr_A" mangle
// alike.
func structuralKey(kind byte, ts []Type) string {
	var sb strings.Builder
	sb.WriteByte(kind)
	for _, t := range ts {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(int(t.id)))
	}
	return sb.String()
}

func (r *Registry) SetTop(t Type) {
	r.own(t)
	r.top = t.id
}

// Top returns the universal supertype. ok is false until SetTop is
// called.
func (r *Registry) Top() (top Type, ok bool) {
	if r.top == noParent {
		return Type{}, false
	}
	return r.typ(r.top), true
}

func (r *Registry) SetCallableRoot(t Type) {
	r.own(t)
	r.callableRoot = t.id
}

// AddImplicitConversion allows values of type from to flow into slots of
// type to without a subtyping relation.
func (r *Registry) AddImplicitConversion(from, to Type) {
	r.own(from)
	r.own(to)
	r.implicit.Insert(conversion{from: from.id, to: to.id})
}

func (r *Registry) IsImplicitlyConvertibleFrom(to, from Type) bool {
	if to.r != r || from.r != r {
		return false
	}
	return r.implicit.Contains(conversion{from: from.id, to: to.id})
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []Type {
	ts := make([]Type, len(r.records))
	for i := range r.records {
		ts[i] = r.typ(int32(i))
	}
	return ts
}
