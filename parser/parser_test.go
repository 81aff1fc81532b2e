package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/tq/ast"
	"github.com/smasher164/tq/fsx"
	"github.com/smasher164/tq/parser"
)

func parse(t *testing.T, src string) (*ast.File, error) {
	t.Helper()
	f, err := parser.ParseFile(fsx.TestFS(map[string]string{"test.tq": src}), "test.tq")
	if f == nil {
		t.Fatalf("ParseFile returned no file: %v", err)
	}
	return f, err
}

func TestParseFile(t *testing.T) {
	f, err := parse(t, `
		import 'base.tq';
		// Tagged values.
		type Smi extends Object generates 'TNode<Smi>' constexpr 'int31_t';
		type Number = Smi | HeapNumber;
		extern macro Add(a: Number, b: Number): Number labels Overflow(Smi), Done;
		builtin Print(Object, ...): void;
		implicit constexpr int31 => Smi;
	`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(f.ImportPaths(), []string{"base.tq"}); len(diff) > 0 {
		t.Error(diff)
	}
	if len(f.Decls) != 5 {
		t.Fatalf("got %d declarations:\n%s", len(f.Decls), f.ASTString(0))
	}

	td, ok := f.Decls[0].(*ast.TypeDecl)
	if !ok {
		t.Fatalf("Decls[0] = %T", f.Decls[0])
	}
	if td.Name.Data != "Smi" || td.Parent.Data != "Object" || td.Generates.Data != "TNode<Smi>" || td.Constexpr.Data != "int31_t" {
		t.Errorf("TypeDecl = %s", td.ASTString(0))
	}
	if got := td.Span().String(); got != "4:3-69" {
		t.Errorf("TypeDecl span = %s", got)
	}

	alias, ok := f.Decls[1].(*ast.TypeAliasDecl)
	if !ok {
		t.Fatalf("Decls[1] = %T", f.Decls[1])
	}
	if u, ok := alias.Value.(*ast.UnionTypeExpr); !ok || len(u.Members) != 2 {
		t.Errorf("alias value = %s", alias.Value.ASTString(0))
	}

	add, ok := f.Decls[2].(*ast.CallableDecl)
	if !ok {
		t.Fatalf("Decls[2] = %T", f.Decls[2])
	}
	if add.Extern == nil || add.Kind.Type.String() != "macro" || add.Name.Data != "Add" {
		t.Errorf("callable header = %s", add.ASTString(0))
	}
	if len(add.Params) != 2 || add.Params[0].Name.Data != "a" || add.VarArgs != nil {
		t.Errorf("params = %s", add.ASTString(0))
	}
	if len(add.Labels) != 2 || len(add.Labels[0].Types) != 1 || len(add.Labels[1].Types) != 0 {
		t.Errorf("labels = %s", add.ASTString(0))
	}

	printDecl, ok := f.Decls[3].(*ast.CallableDecl)
	if !ok {
		t.Fatalf("Decls[3] = %T", f.Decls[3])
	}
	if printDecl.Extern != nil || len(printDecl.Params) != 1 || printDecl.Params[0].Name != nil || printDecl.VarArgs == nil {
		t.Errorf("Print = %s", printDecl.ASTString(0))
	}

	imp, ok := f.Decls[4].(*ast.ImplicitDecl)
	if !ok {
		t.Fatalf("Decls[4] = %T", f.Decls[4])
	}
	if from, ok := imp.From.(*ast.NamedType); !ok || from.TypeName() != "constexpr int31" {
		t.Errorf("implicit from = %s", imp.From.ASTString(0))
	}
}

func TestParseErrorsRecover(t *testing.T) {
	f, err := parse(t, `
		type A extends;
		type B;
		macro F(: A;
		macro G(): B;
		import 'late.tq';
		;
	`)
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v", err)
	}
	msgs := make([]string, len(perr.Errs))
	for i, ill := range perr.Errs {
		msgs[i] = ill.Msg
	}
	want := []string{
		"expected Ident, found ';'",
		"expected type, found ':'",
		"imports must precede declarations",
		"expected declaration, found ';'",
	}
	if diff := pretty.Diff(msgs, want); len(diff) > 0 {
		t.Error(diff)
	}
	var names []string
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			names = append(names, d.Name.Data)
		case *ast.CallableDecl:
			names = append(names, d.Name.Data)
		}
	}
	if diff := pretty.Diff(names, []string{"B", "G"}); len(diff) > 0 {
		t.Error(diff)
	}
	if !strings.HasPrefix(err.Error(), "test.tq:2:17: expected Ident") {
		t.Errorf("error = %q", err)
	}
}

func TestParseTypeExpr(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{"Smi", "NamedType(1:1-3:Ident \"Smi\")"},
		{"constexpr int31", "NamedType(constexpr 1:11-15:Ident \"int31\")"},
		{"(Smi)", "NamedType(1:2-4:Ident \"Smi\")"},
	} {
		n, err := parser.ParseTypeExpr(tc.src)
		if err != nil {
			t.Fatal(err)
		}
		if got := n.ASTString(0); got != tc.want {
			t.Errorf("ParseTypeExpr(%q) = %s, want %s", tc.src, got, tc.want)
		}
	}

	n, err := parser.ParseTypeExpr("builtin(Smi, Object) => Smi | HeapNumber")
	if err != nil {
		t.Fatal(err)
	}
	u, ok := n.(*ast.UnionTypeExpr)
	if !ok || len(u.Members) != 2 {
		t.Fatalf("got %s", n.ASTString(0))
	}
	fn, ok := u.Members[0].(*ast.FunctionTypeExpr)
	if !ok || len(fn.Params) != 2 {
		t.Fatalf("got %s", n.ASTString(0))
	}

	for _, bad := range []string{"", "Smi |", "Smi Object", "builtin(Smi)", "(Smi"} {
		if _, err := parser.ParseTypeExpr(bad); err == nil {
			t.Errorf("ParseTypeExpr(%q) succeeded", bad)
		}
	}
}

func TestParseTypeList(t *testing.T) {
	list, err := parser.ParseTypeList("Smi, builtin(Smi, Object) => Smi, HeapNumber | Smi")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d types, want 3", len(list))
	}
	if _, ok := list[1].(*ast.FunctionTypeExpr); !ok {
		t.Errorf("list[1] = %T", list[1])
	}
	if _, ok := list[2].(*ast.UnionTypeExpr); !ok {
		t.Errorf("list[2] = %T", list[2])
	}
	if list, err := parser.ParseTypeList(""); err != nil || len(list) != 0 {
		t.Errorf("empty list = %v, %v", list, err)
	}
	if _, err := parser.ParseTypeList("Smi,"); err == nil {
		t.Error("trailing comma accepted")
	}
}

func TestParseCallSite(t *testing.T) {
	cs, err := parser.ParseCallSite("Add(Smi, Smi | HeapNumber) labels Overflow")
	if err != nil {
		t.Fatal(err)
	}
	if cs.Name.Data != "Add" || len(cs.Args) != 2 || len(cs.Labels) != 1 {
		t.Errorf("got %s", cs.ASTString(0))
	}
	cs, err = parser.ParseCallSite("Now()")
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Args) != 0 || len(cs.Labels) != 0 {
		t.Errorf("got %s", cs.ASTString(0))
	}
	if _, err := parser.ParseCallSite("Add(Smi,)"); err == nil {
		t.Error("expected trailing comma to fail")
	}
}
