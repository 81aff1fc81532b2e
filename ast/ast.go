package ast

import (
	"fmt"
	"strings"

	"github.com/smasher164/tq/lexer"
)

type Node interface {
	LeadingTrivia() []lexer.Token
	Span() lexer.Span
	ASTString(depth int) string
}

var (
	_ Node = (*File)(nil)
	_ Node = (*ImportDecl)(nil)
	_ Node = (*TypeDecl)(nil)
	_ Node = (*TypeAliasDecl)(nil)
	_ Node = (*CallableDecl)(nil)
	_ Node = (*Param)(nil)
	_ Node = (*LabelDecl)(nil)
	_ Node = (*ImplicitDecl)(nil)
	_ Node = (*NamedType)(nil)
	_ Node = (*UnionTypeExpr)(nil)
	_ Node = (*FunctionTypeExpr)(nil)
	_ Node = (*CallSite)(nil)
	_ Node = (*Illegal)(nil)
)

func spanOf(n Node) lexer.Span {
	if n == nil {
		return lexer.Span{}
	}
	return n.Span()
}

func leadingTriviaOf(n Node) []lexer.Token {
	if n == nil {
		return nil
	}
	return n.LeadingTrivia()
}

func indent(depth int) string {
	return fmt.Sprintf("%*s", depth*2, "")
}

type field struct {
	name  string
	value string
}

// nodeString renders a node header followed by one indented field per
// line, the layout every ASTString shares.
func nodeString(depth int, name string, fields ...field) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, f := range fields {
		fmt.Fprintf(&sb, "\n%s%s: %s", indent(depth+1), f.name, f.value)
	}
	return sb.String()
}

func listString[T Node](depth int, nodes []T) string {
	if len(nodes) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteString("[")
	for _, n := range nodes {
		fmt.Fprintf(&sb, "\n%s%s", indent(depth+1), n.ASTString(depth+1))
	}
	fmt.Fprintf(&sb, "\n%s]", indent(depth))
	return sb.String()
}

func optString(tok *lexer.Token) string {
	if tok == nil {
		return "<none>"
	}
	return tok.String()
}

type File struct {
	Filename       string
	Imports        []*ImportDecl
	Decls          []Node
	trailingTrivia []lexer.Token
}

func (f *File) SetTrailingTrivia(tt []lexer.Token) {
	f.trailingTrivia = tt
}

func (f *File) TrailingTrivia() []lexer.Token {
	return f.trailingTrivia
}

func (f *File) ASTString(depth int) string {
	return nodeString(depth, "File",
		field{"Filename", f.Filename},
		field{"Imports", listString(depth+1, f.Imports)},
		field{"Decls", listString(depth+1, f.Decls)},
		field{"TrailingTrivia", fmt.Sprint(f.trailingTrivia)},
	)
}

func (f *File) LeadingTrivia() []lexer.Token {
	if len(f.Imports) > 0 {
		return f.Imports[0].LeadingTrivia()
	}
	if len(f.Decls) > 0 {
		return f.Decls[0].LeadingTrivia()
	}
	return f.trailingTrivia
}

func (f *File) Span() lexer.Span {
	var span lexer.Span
	for _, imp := range f.Imports {
		span = span.Add(imp.Span())
	}
	for _, d := range f.Decls {
		span = span.Add(spanOf(d))
	}
	return span
}

// ImportPaths returns the paths named by the file's import declarations.
func (f *File) ImportPaths() []string {
	paths := make([]string, 0, len(f.Imports))
	for _, imp := range f.Imports {
		paths = append(paths, imp.Path.Data)
	}
	return paths
}

type ImportDecl struct {
	Import    lexer.Token
	Path      lexer.Token
	Semicolon lexer.Token
}

func (id *ImportDecl) ASTString(depth int) string {
	return nodeString(depth, "ImportDecl", field{"Path", id.Path.String()})
}

func (id *ImportDecl) LeadingTrivia() []lexer.Token {
	return id.Import.LeadingTrivia
}

func (id *ImportDecl) Span() lexer.Span {
	return id.Import.Span.Add(id.Semicolon.Span)
}

// TypeDecl declares an abstract type. Parent, Generates and Constexpr
// are nil when the clause is absent.
type TypeDecl struct {
	Type      lexer.Token
	Name      lexer.Token
	Parent    *lexer.Token
	Generates *lexer.Token
	Constexpr *lexer.Token
	Semicolon lexer.Token
}

func (td *TypeDecl) ASTString(depth int) string {
	return nodeString(depth, "TypeDecl",
		field{"Name", td.Name.String()},
		field{"Parent", optString(td.Parent)},
		field{"Generates", optString(td.Generates)},
		field{"Constexpr", optString(td.Constexpr)},
	)
}

func (td *TypeDecl) LeadingTrivia() []lexer.Token {
	return td.Type.LeadingTrivia
}

func (td *TypeDecl) Span() lexer.Span {
	return td.Type.Span.Add(td.Semicolon.Span)
}

type TypeAliasDecl struct {
	Type      lexer.Token
	Name      lexer.Token
	Equals    lexer.Token
	Value     Node
	Semicolon lexer.Token
}

func (ta *TypeAliasDecl) ASTString(depth int) string {
	return nodeString(depth, "TypeAliasDecl",
		field{"Name", ta.Name.String()},
		field{"Value", ta.Value.ASTString(depth + 1)},
	)
}

func (ta *TypeAliasDecl) LeadingTrivia() []lexer.Token {
	return ta.Type.LeadingTrivia
}

func (ta *TypeAliasDecl) Span() lexer.Span {
	return ta.Type.Span.Add(ta.Semicolon.Span)
}

// CallableDecl declares a macro or builtin. Extern is nil unless the
// declaration starts with "extern"; VarArgs is nil unless the parameter
// list ends in "...".
type CallableDecl struct {
	Extern    *lexer.Token
	Kind      lexer.Token
	Name      lexer.Token
	Params    []*Param
	VarArgs   *lexer.Token
	Return    Node
	Labels    []*LabelDecl
	Semicolon lexer.Token
}

func (cd *CallableDecl) ASTString(depth int) string {
	return nodeString(depth, "CallableDecl",
		field{"Extern", optString(cd.Extern)},
		field{"Kind", cd.Kind.String()},
		field{"Name", cd.Name.String()},
		field{"Params", listString(depth+1, cd.Params)},
		field{"VarArgs", optString(cd.VarArgs)},
		field{"Return", cd.Return.ASTString(depth + 1)},
		field{"Labels", listString(depth+1, cd.Labels)},
	)
}

func (cd *CallableDecl) LeadingTrivia() []lexer.Token {
	if cd.Extern != nil {
		return cd.Extern.LeadingTrivia
	}
	return cd.Kind.LeadingTrivia
}

func (cd *CallableDecl) Span() lexer.Span {
	span := cd.Kind.Span.Add(cd.Semicolon.Span)
	if cd.Extern != nil {
		span = span.Add(cd.Extern.Span)
	}
	return span
}

// Param is a callable parameter. Name is nil for unnamed parameters.
type Param struct {
	Name *lexer.Token
	Type Node
}

func (p *Param) ASTString(depth int) string {
	return nodeString(depth, "Param",
		field{"Name", optString(p.Name)},
		field{"Type", p.Type.ASTString(depth + 1)},
	)
}

func (p *Param) LeadingTrivia() []lexer.Token {
	if p.Name != nil {
		return p.Name.LeadingTrivia
	}
	return leadingTriviaOf(p.Type)
}

func (p *Param) Span() lexer.Span {
	span := spanOf(p.Type)
	if p.Name != nil {
		span = span.Add(p.Name.Span)
	}
	return span
}

type LabelDecl struct {
	Name       lexer.Token
	Types      []Node
	RightParen *lexer.Token
}

func (ld *LabelDecl) ASTString(depth int) string {
	return nodeString(depth, "LabelDecl",
		field{"Name", ld.Name.String()},
		field{"Types", listString(depth+1, ld.Types)},
	)
}

func (ld *LabelDecl) LeadingTrivia() []lexer.Token {
	return ld.Name.LeadingTrivia
}

func (ld *LabelDecl) Span() lexer.Span {
	if ld.RightParen != nil {
		return ld.Name.Span.Add(ld.RightParen.Span)
	}
	return ld.Name.Span
}

type ImplicitDecl struct {
	Implicit  lexer.Token
	From      Node
	To        Node
	Semicolon lexer.Token
}

func (id *ImplicitDecl) ASTString(depth int) string {
	return nodeString(depth, "ImplicitDecl",
		field{"From", id.From.ASTString(depth + 1)},
		field{"To", id.To.ASTString(depth + 1)},
	)
}

func (id *ImplicitDecl) LeadingTrivia() []lexer.Token {
	return id.Implicit.LeadingTrivia
}

func (id *ImplicitDecl) Span() lexer.Span {
	return id.Implicit.Span.Add(id.Semicolon.Span)
}

// NamedType refers to a declared type or alias by name. Constexpr is
// non-nil for "constexpr Name".
type NamedType struct {
	Constexpr *lexer.Token
	Name      lexer.Token
}

// TypeName is the name the registry knows the referenced type by.
func (nt *NamedType) TypeName() string {
	if nt.Constexpr != nil {
		return "constexpr " + nt.Name.Data
	}
	return nt.Name.Data
}

func (nt *NamedType) ASTString(depth int) string {
	if nt.Constexpr != nil {
		return fmt.Sprintf("NamedType(constexpr %s)", nt.Name)
	}
	return fmt.Sprintf("NamedType(%s)", nt.Name)
}

func (nt *NamedType) LeadingTrivia() []lexer.Token {
	if nt.Constexpr != nil {
		return nt.Constexpr.LeadingTrivia
	}
	return nt.Name.LeadingTrivia
}

func (nt *NamedType) Span() lexer.Span {
	if nt.Constexpr != nil {
		return nt.Constexpr.Span.Add(nt.Name.Span)
	}
	return nt.Name.Span
}

type UnionTypeExpr struct {
	Members []Node
}

func (ut *UnionTypeExpr) ASTString(depth int) string {
	return nodeString(depth, "UnionTypeExpr", field{"Members", listString(depth+1, ut.Members)})
}

func (ut *UnionTypeExpr) LeadingTrivia() []lexer.Token {
	if len(ut.Members) == 0 {
		return nil
	}
	return leadingTriviaOf(ut.Members[0])
}

func (ut *UnionTypeExpr) Span() lexer.Span {
	var span lexer.Span
	for _, m := range ut.Members {
		span = span.Add(spanOf(m))
	}
	return span
}

type FunctionTypeExpr struct {
	Builtin lexer.Token
	Params  []Node
	Return  Node
}

func (ft *FunctionTypeExpr) ASTString(depth int) string {
	return nodeString(depth, "FunctionTypeExpr",
		field{"Params", listString(depth+1, ft.Params)},
		field{"Return", ft.Return.ASTString(depth + 1)},
	)
}

func (ft *FunctionTypeExpr) LeadingTrivia() []lexer.Token {
	return ft.Builtin.LeadingTrivia
}

func (ft *FunctionTypeExpr) Span() lexer.Span {
	return ft.Builtin.Span.Add(spanOf(ft.Return))
}

// CallSite is a callable name applied to argument types, as typed into
// the repl's :call command.
type CallSite struct {
	Name       lexer.Token
	Args       []Node
	RightParen lexer.Token
	Labels     []*LabelDecl
}

func (cs *CallSite) ASTString(depth int) string {
	return nodeString(depth, "CallSite",
		field{"Name", cs.Name.String()},
		field{"Args", listString(depth+1, cs.Args)},
		field{"Labels", listString(depth+1, cs.Labels)},
	)
}

func (cs *CallSite) LeadingTrivia() []lexer.Token {
	return cs.Name.LeadingTrivia
}

func (cs *CallSite) Span() lexer.Span {
	span := cs.Name.Span.Add(cs.RightParen.Span)
	if n := len(cs.Labels); n > 0 {
		span = span.Add(cs.Labels[n-1].Span())
	}
	return span
}

type Illegal struct {
	leadingTrivia []lexer.Token
	span          lexer.Span
	Node          Node
	Msg           string
}

func NewIllegal(tok lexer.Token, msg string) *Illegal {
	return &Illegal{leadingTrivia: tok.LeadingTrivia, span: tok.Span, Msg: msg}
}

func (ill *Illegal) SetLeadingTrivia(tt []lexer.Token) {
	ill.leadingTrivia = tt
}

func (ill *Illegal) SetSpan(span lexer.Span) {
	ill.span = span
}

func (i *Illegal) ASTString(depth int) string {
	if i.Node != nil {
		return nodeString(depth, "Illegal",
			field{"span", i.span.String()},
			field{"Node", i.Node.ASTString(depth + 1)},
			field{"Msg", fmt.Sprintf("%q", i.Msg)},
		)
	}
	return nodeString(depth, "Illegal",
		field{"span", i.span.String()},
		field{"Msg", fmt.Sprintf("%q", i.Msg)},
	)
}

func (i *Illegal) LeadingTrivia() []lexer.Token {
	if len(i.leadingTrivia) > 0 {
		return i.leadingTrivia
	}
	return leadingTriviaOf(i.Node)
}

func (i *Illegal) Span() lexer.Span {
	return i.span.Add(spanOf(i.Node))
}

// Error renders the illegal node as a positioned message.
func (i *Illegal) Error() string {
	return fmt.Sprintf("%s: %s", i.Span(), i.Msg)
}
