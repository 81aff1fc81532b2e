package types_test

import (
	"errors"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/tq/types"
	"golang.org/x/exp/slices"
)

type universe struct {
	r                                                      *types.Registry
	object, smi, heapObject, heapNumber, bigInt, str, oddb types.Type
	int31, int32                                           types.Type
}

func fatal(t *testing.T) func(err error) {
	return func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
}

func newUniverse(t *testing.T) *universe {
	f := fatal(t)
	u := &universe{r: types.NewRegistry()}
	declare := func(name string, parent types.Type, generates string) types.Type {
		typ, err := u.r.DeclareAbstract(name, parent, generates)
		f(err)
		return typ
	}
	u.object = declare("Object", types.Type{}, "TNode<Object>")
	u.r.SetTop(u.object)
	u.smi = declare("Smi", u.object, "TNode<Smi>")
	u.heapObject = declare("HeapObject", u.object, "TNode<HeapObject>")
	u.heapNumber = declare("HeapNumber", u.heapObject, "TNode<HeapNumber>")
	u.bigInt = declare("BigInt", u.heapObject, "TNode<BigInt>")
	u.str = declare("String", u.heapObject, "TNode<String>")
	u.oddb = declare("Oddball", u.heapObject, "")
	u.int32 = declare("constexpr int32", types.Type{}, "int32_t")
	u.int31 = declare("constexpr int31", u.int32, "int31_t")
	return u
}

func (u *universe) union(t *testing.T, ts ...types.Type) types.Type {
	typ, err := u.r.Union(ts...)
	fatal(t)(err)
	return typ
}

func (u *universe) abstracts() []types.Type {
	return []types.Type{u.object, u.smi, u.heapObject, u.heapNumber, u.bigInt, u.str, u.oddb}
}

func TestDepthAndParent(t *testing.T) {
	u := newUniverse(t)
	for _, tc := range []struct {
		typ   types.Type
		depth int
	}{
		{u.object, 0},
		{u.smi, 1},
		{u.heapObject, 1},
		{u.heapNumber, 2},
		{u.int32, 0},
		{u.int31, 1},
	} {
		if got := tc.typ.Depth(); got != tc.depth {
			t.Errorf("Depth(%s) = %d, want %d", tc.typ, got, tc.depth)
		}
	}
	if _, ok := u.object.Parent(); ok {
		t.Error("Object should be a root")
	}
	if p, ok := u.heapNumber.Parent(); !ok || p != u.heapObject {
		t.Errorf("Parent(HeapNumber) = %s, want HeapObject", p)
	}
}

func TestSubtypeReflexive(t *testing.T) {
	u := newUniverse(t)
	all := append(u.abstracts(),
		u.union(t, u.smi, u.heapNumber),
		u.union(t, u.str, u.bigInt),
		u.int31,
	)
	fp, err := u.r.FunctionPointer([]types.Type{u.smi}, u.object)
	fatal(t)(err)
	all = append(all, fp)
	for _, typ := range all {
		if !typ.IsSubtypeOf(typ) {
			t.Errorf("%s is not a subtype of itself", typ)
		}
	}
}

func TestSubtypeAntisymmetric(t *testing.T) {
	u := newUniverse(t)
	all := u.abstracts()
	for _, a := range all {
		for _, b := range all {
			if a == b {
				continue
			}
			if a.IsSubtypeOf(b) && b.IsSubtypeOf(a) {
				t.Errorf("%s and %s are subtypes of each other", a, b)
			}
		}
	}
}

func TestSubtypeTree(t *testing.T) {
	u := newUniverse(t)
	for _, tc := range []struct {
		sub, super types.Type
		want       bool
	}{
		{u.heapNumber, u.heapObject, true},
		{u.heapNumber, u.object, true},
		{u.smi, u.heapObject, false},
		{u.object, u.smi, false},
		{u.int31, u.int32, true},
		{u.int31, u.object, false},
	} {
		if got := tc.sub.IsSubtypeOf(tc.super); got != tc.want {
			t.Errorf("IsSubtypeOf(%s, %s) = %v, want %v", tc.sub, tc.super, got, tc.want)
		}
	}
}

func TestCommonSupertype(t *testing.T) {
	u := newUniverse(t)
	for _, tc := range []struct {
		a, b, want types.Type
	}{
		{u.heapNumber, u.bigInt, u.heapObject},
		{u.heapNumber, u.smi, u.object},
		{u.smi, u.heapNumber, u.object},
		{u.heapNumber, u.heapObject, u.heapObject},
		{u.str, u.str, u.str},
		{u.object, u.oddb, u.object},
	} {
		got, err := types.CommonSupertype(tc.a, tc.b)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("CommonSupertype(%s, %s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCommonSupertypeIsLeast(t *testing.T) {
	u := newUniverse(t)
	all := u.abstracts()
	for _, a := range all {
		for _, b := range all {
			lub, err := types.CommonSupertype(a, b)
			if err != nil {
				t.Fatal(err)
			}
			if !a.IsSubtypeOf(lub) || !b.IsSubtypeOf(lub) {
				t.Errorf("%s is not an upper bound of %s and %s", lub, a, b)
			}
			for _, s := range all {
				if a.IsSubtypeOf(s) && b.IsSubtypeOf(s) && !lub.IsSubtypeOf(s) {
					t.Errorf("%s is a common supertype of %s and %s below %s", s, a, b, lub)
				}
			}
		}
	}
}

func TestCommonSupertypeDisjointRoots(t *testing.T) {
	u := newUniverse(t)
	_, err := types.CommonSupertype(u.smi, u.int31)
	var te *types.TypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected a TypeError, got %v", err)
	}
	if want := "types Smi and constexpr int31 have no common supertype"; te.Msg != want {
		t.Errorf("got %q, want %q", te.Msg, want)
	}
	if diff := pretty.Diff(te.Operands, []string{"Smi", "constexpr int31"}); len(diff) > 0 {
		t.Error(diff)
	}
}

func TestAliases(t *testing.T) {
	u := newUniverse(t)
	f := fatal(t)
	if got := u.smi.String(); got != "Smi" {
		t.Errorf("got %q", got)
	}
	f(u.r.Alias(u.smi, "TaggedInt"))
	if got := u.smi.String(); got != "TaggedInt" {
		t.Errorf("got %q", got)
	}
	f(u.r.Alias(u.smi, "Small"))
	if got := u.smi.String(); got != "Small (aka. TaggedInt)" {
		t.Errorf("got %q", got)
	}
	f(u.r.Alias(u.smi, "Int31Tagged"))
	if got := u.smi.String(); got != "Int31Tagged (aka. Small, TaggedInt)" {
		t.Errorf("got %q", got)
	}
	if got := u.smi.ExplicitString(); got != "Smi" {
		t.Errorf("ExplicitString ignores aliases, got %q", got)
	}
	if got, ok := u.r.Lookup("Small"); !ok || got != u.smi {
		t.Errorf("Lookup(Small) = %s, %v", got, ok)
	}
	if err := u.r.Alias(u.bigInt, "Small"); err == nil {
		t.Error("expected duplicate alias to fail")
	}
	if got := u.smi.MangledName(); got != "ATSmi" {
		t.Errorf("aliases must not change mangled names, got %q", got)
	}
}

func TestAbstractNames(t *testing.T) {
	u := newUniverse(t)
	for _, tc := range []struct {
		typ                        types.Type
		mangled, generated, tnode string
		constexpr                 bool
	}{
		{u.smi, "ATSmi", "TNode<Smi>", "Smi", false},
		{u.oddb, "ATOddball", "TNode<HeapObject>", "HeapObject", false},
		{u.int31, "ATconstexpr_int31", "int31_t", "int31_t", true},
	} {
		if got := tc.typ.MangledName(); got != tc.mangled {
			t.Errorf("MangledName(%s) = %q, want %q", tc.typ, got, tc.mangled)
		}
		if got := tc.typ.GeneratedTypeName(); got != tc.generated {
			t.Errorf("GeneratedTypeName(%s) = %q, want %q", tc.typ, got, tc.generated)
		}
		if got := tc.typ.GeneratedTNodeTypeName(); got != tc.tnode {
			t.Errorf("GeneratedTNodeTypeName(%s) = %q, want %q", tc.typ, got, tc.tnode)
		}
		if got := tc.typ.IsConstexpr(); got != tc.constexpr {
			t.Errorf("IsConstexpr(%s) = %v", tc.typ, got)
		}
	}
	if !u.smi.IsAbstractName("Smi") || u.smi.IsAbstractName("Object") {
		t.Error("IsAbstractName")
	}
	if _, err := u.r.DeclareAbstract("Smi", u.object, ""); err == nil {
		t.Error("expected redeclaration to fail")
	}
}

func TestVariantAccess(t *testing.T) {
	u := newUniverse(t)
	num := u.union(t, u.smi, u.heapNumber)
	if _, ok := num.Abstract(); ok {
		t.Error("union is not abstract")
	}
	if _, ok := num.FunctionPointer(); ok {
		t.Error("union is not a function pointer")
	}
	un, ok := num.Union()
	if !ok {
		t.Fatal("expected a union")
	}
	if got, want := un.Members(), []types.Type{u.heapNumber, u.smi}; !slices.Equal(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	a, ok := u.smi.Abstract()
	if !ok || a.Name() != "Smi" {
		t.Errorf("Abstract(Smi) = %v, %v", a, ok)
	}
	if num.Kind() != types.Union || u.smi.Kind() != types.Abstract {
		t.Error("Kind")
	}
}

func TestCanonicalOrder(t *testing.T) {
	u := newUniverse(t)
	ts := []types.Type{u.str, u.smi, u.bigInt, u.object}
	types.SortTypes(ts)
	if want := []types.Type{u.bigInt, u.object, u.smi, u.str}; !slices.Equal(ts, want) {
		t.Errorf("got %v, want %v", ts, want)
	}
	if !u.bigInt.Less(u.smi) || u.smi.Less(u.bigInt) {
		t.Error("Less")
	}
	if types.Compare(u.smi, u.smi) != 0 {
		t.Error("Compare")
	}
}
