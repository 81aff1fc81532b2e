package parser

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/smasher164/tq/ast"
	"github.com/smasher164/tq/lexer"
)

type parser struct {
	l      Lexer
	tok    lexer.Token
	buf    []lexer.Token
	indent int
	log    *slog.Logger
	errs   []*ast.Illegal
}

type Lexer interface {
	Next() lexer.Token
}

// bailout unwinds to the enclosing declaration, which records ill and
// resynchronizes.
type bailout struct {
	ill *ast.Illegal
}

// ParseError lists every malformed declaration of a file.
type ParseError struct {
	Filename string
	Errs     []*ast.Illegal
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	for i, ill := range e.Errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if e.Filename != "" {
			sb.WriteString(e.Filename)
			sb.WriteByte(':')
		}
		sb.WriteString(ill.Error())
	}
	return sb.String()
}

func newParser(l Lexer) *parser {
	return &parser{l: l, log: slog.Default()}
}

func (p *parser) trace(msg string) func() {
	if !p.log.Enabled(context.Background(), slog.LevelDebug) {
		return func() {}
	}
	p.log.Debug(fmt.Sprintf("%*s%s", p.indent*2, "", msg), "tok", p.tok.String())
	p.indent++
	return func() {
		p.indent--
	}
}

func (p *parser) next() {
	if len(p.buf) > 0 {
		p.tok = p.buf[0]
		p.buf = p.buf[1:]
		return
	}
	p.tok = p.l.Next()
}

func (p *parser) peek() lexer.Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.l.Next())
	}
	return p.buf[0]
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.Ident:
		return fmt.Sprintf("identifier %s", tok.Data)
	case lexer.String:
		return fmt.Sprintf("string %q", tok.Data)
	case lexer.Illegal:
		return tok.Data
	}
	return tok.Type.String()
}

func (p *parser) fail(format string, args ...any) {
	panic(bailout{ill: ast.NewIllegal(p.tok, fmt.Sprintf(format, args...))})
}

func (p *parser) expect(ttyp lexer.TokenType) lexer.Token {
	tok := p.tok
	if tok.Type != ttyp {
		p.fail("expected %s, found %s", ttyp, describe(tok))
	}
	p.next()
	return tok
}

// sync skips to the end of the current declaration or the start of the
// next one.
func (p *parser) sync() {
	for !p.tok.BeginsDecl() {
		if p.tok.Type == lexer.Semicolon {
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) recoverDecl(n *ast.Node) {
	r := recover()
	if r == nil {
		return
	}
	b, ok := r.(bailout)
	if !ok {
		panic(r)
	}
	p.errs = append(p.errs, b.ill)
	p.sync()
	*n = b.ill
}

// ParseFile parses a declaration file. The returned file is non-nil
// whenever the file could be read, even if it contains syntax errors,
// which are reported as a *ParseError.
func ParseFile(fsys fs.FS, filename string) (*ast.File, error) {
	l, err := lexer.NewLexer(fsys, filename)
	if err != nil {
		return nil, err
	}
	p := newParser(l)
	f := p.parseFile()
	f.Filename = filename
	if err := l.Err(); err != nil {
		return f, err
	}
	if len(p.errs) > 0 {
		return f, &ParseError{Filename: filename, Errs: p.errs}
	}
	return f, nil
}

// parseOne runs parse over src and requires it to consume all input.
func parseOne[T any](src string, parse func(p *parser) T) (n T, err error) {
	p := newParser(lexer.NewStringLexer(src))
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = &ParseError{Errs: []*ast.Illegal{b.ill}}
		}
	}()
	p.next()
	n = parse(p)
	p.expect(lexer.EOF)
	return n, nil
}

// ParseTypeExpr parses a standalone type expression such as
// "Smi | HeapNumber".
func ParseTypeExpr(src string) (ast.Node, error) {
	return parseOne(src, (*parser).parseTypeExpr)
}

// ParseTypeList parses comma-separated type expressions.
func ParseTypeList(src string) ([]ast.Node, error) {
	return parseOne(src, func(p *parser) []ast.Node {
		if p.tok.Type == lexer.EOF {
			return nil
		}
		list := []ast.Node{p.parseTypeExpr()}
		for p.tok.Type == lexer.Comma {
			p.next()
			list = append(list, p.parseTypeExpr())
		}
		return list
	})
}

// ParseCallSite parses "Name(T, ...) [labels L, ...]".
func ParseCallSite(src string) (*ast.CallSite, error) {
	return parseOne(src, (*parser).parseCallSite)
}

func (p *parser) parseFile() *ast.File {
	defer p.trace("parseFile")()
	f := new(ast.File)
	p.next()
	for p.tok.Type == lexer.Import {
		if imp, ok := p.parseImportDecl().(*ast.ImportDecl); ok {
			f.Imports = append(f.Imports, imp)
		}
	}
	for p.tok.Type != lexer.EOF {
		f.Decls = append(f.Decls, p.parseDecl())
	}
	f.SetTrailingTrivia(p.tok.LeadingTrivia)
	return f
}

func (p *parser) parseImportDecl() (n ast.Node) {
	defer p.trace("parseImportDecl")()
	defer p.recoverDecl(&n)
	var imp ast.ImportDecl
	imp.Import = p.expect(lexer.Import)
	imp.Path = p.expect(lexer.String)
	imp.Semicolon = p.expect(lexer.Semicolon)
	return &imp
}

func (p *parser) parseDecl() (n ast.Node) {
	defer p.trace("parseDecl")()
	defer p.recoverDecl(&n)
	switch p.tok.Type {
	case lexer.Type:
		return p.parseTypeDecl()
	case lexer.Extern, lexer.Macro, lexer.Builtin:
		return p.parseCallableDecl()
	case lexer.Implicit:
		return p.parseImplicitDecl()
	case lexer.Import:
		tok := p.tok
		p.next()
		panic(bailout{ill: ast.NewIllegal(tok, "imports must precede declarations")})
	}
	p.fail("expected declaration, found %s", describe(p.tok))
	panic("unreachable")
}

func (p *parser) parseTypeDecl() ast.Node {
	defer p.trace("parseTypeDecl")()
	typeTok := p.expect(lexer.Type)
	name := p.expect(lexer.Ident)
	if p.tok.Type == lexer.Equals {
		alias := ast.TypeAliasDecl{Type: typeTok, Name: name, Equals: p.tok}
		p.next()
		alias.Value = p.parseTypeExpr()
		alias.Semicolon = p.expect(lexer.Semicolon)
		return &alias
	}
	decl := ast.TypeDecl{Type: typeTok, Name: name}
	if p.tok.Type == lexer.Extends {
		p.next()
		parent := p.expect(lexer.Ident)
		decl.Parent = &parent
	}
	if p.tok.Type == lexer.Generates {
		p.next()
		gen := p.expect(lexer.String)
		decl.Generates = &gen
	}
	if p.tok.Type == lexer.Constexpr {
		p.next()
		c := p.expect(lexer.String)
		decl.Constexpr = &c
	}
	decl.Semicolon = p.expect(lexer.Semicolon)
	return &decl
}

func (p *parser) parseCallableDecl() ast.Node {
	defer p.trace("parseCallableDecl")()
	var decl ast.CallableDecl
	if p.tok.Type == lexer.Extern {
		ext := p.tok
		decl.Extern = &ext
		p.next()
	}
	if p.tok.Type != lexer.Macro && p.tok.Type != lexer.Builtin {
		p.fail("expected macro or builtin, found %s", describe(p.tok))
	}
	decl.Kind = p.tok
	p.next()
	decl.Name = p.expect(lexer.Ident)
	p.expect(lexer.LeftParen)
	if p.tok.Type != lexer.RightParen {
		for {
			if p.tok.Type == lexer.Ellipsis {
				ellipsis := p.tok
				decl.VarArgs = &ellipsis
				p.next()
				break
			}
			decl.Params = append(decl.Params, p.parseParam())
			if p.tok.Type != lexer.Comma {
				break
			}
			p.next()
		}
	}
	p.expect(lexer.RightParen)
	p.expect(lexer.Colon)
	decl.Return = p.parseTypeExpr()
	if p.tok.Type == lexer.Labels {
		decl.Labels = p.parseLabels()
	}
	decl.Semicolon = p.expect(lexer.Semicolon)
	return &decl
}

func (p *parser) parseParam() *ast.Param {
	defer p.trace("parseParam")()
	var param ast.Param
	if p.tok.Type == lexer.Ident && p.peek().Type == lexer.Colon {
		name := p.tok
		param.Name = &name
		p.next()
		p.next()
	}
	param.Type = p.parseTypeExpr()
	return &param
}

func (p *parser) parseLabels() []*ast.LabelDecl {
	defer p.trace("parseLabels")()
	p.expect(lexer.Labels)
	labels := []*ast.LabelDecl{p.parseLabelDecl()}
	for p.tok.Type == lexer.Comma {
		p.next()
		labels = append(labels, p.parseLabelDecl())
	}
	return labels
}

func (p *parser) parseLabelDecl() *ast.LabelDecl {
	defer p.trace("parseLabelDecl")()
	label := ast.LabelDecl{Name: p.expect(lexer.Ident)}
	if p.tok.Type == lexer.LeftParen {
		p.next()
		label.Types = p.parseTypeList()
		rparen := p.expect(lexer.RightParen)
		label.RightParen = &rparen
	}
	return &label
}

func (p *parser) parseImplicitDecl() ast.Node {
	defer p.trace("parseImplicitDecl")()
	var decl ast.ImplicitDecl
	decl.Implicit = p.expect(lexer.Implicit)
	decl.From = p.parseTypeExpr()
	p.expect(lexer.FatArrow)
	decl.To = p.parseTypeExpr()
	decl.Semicolon = p.expect(lexer.Semicolon)
	return &decl
}

// parseTypeList parses a possibly empty comma-separated list of type
// expressions terminated by ')'.
func (p *parser) parseTypeList() []ast.Node {
	var list []ast.Node
	if p.tok.Type == lexer.RightParen {
		return list
	}
	list = append(list, p.parseTypeExpr())
	for p.tok.Type == lexer.Comma {
		p.next()
		list = append(list, p.parseTypeExpr())
	}
	return list
}

func (p *parser) parseTypeExpr() ast.Node {
	defer p.trace("parseTypeExpr")()
	first := p.parsePrimaryType()
	if p.tok.Type != lexer.Or {
		return first
	}
	union := &ast.UnionTypeExpr{Members: []ast.Node{first}}
	for p.tok.Type == lexer.Or {
		p.next()
		union.Members = append(union.Members, p.parsePrimaryType())
	}
	return union
}

func (p *parser) parsePrimaryType() ast.Node {
	defer p.trace("parsePrimaryType")()
	switch p.tok.Type {
	case lexer.Ident:
		named := &ast.NamedType{Name: p.tok}
		p.next()
		return named
	case lexer.Constexpr:
		c := p.tok
		p.next()
		return &ast.NamedType{Constexpr: &c, Name: p.expect(lexer.Ident)}
	case lexer.Builtin:
		fn := &ast.FunctionTypeExpr{Builtin: p.tok}
		p.next()
		p.expect(lexer.LeftParen)
		fn.Params = p.parseTypeList()
		p.expect(lexer.RightParen)
		p.expect(lexer.FatArrow)
		fn.Return = p.parsePrimaryType()
		return fn
	case lexer.LeftParen:
		p.next()
		inner := p.parseTypeExpr()
		p.expect(lexer.RightParen)
		return inner
	}
	p.fail("expected type, found %s", describe(p.tok))
	panic("unreachable")
}

func (p *parser) parseCallSite() *ast.CallSite {
	defer p.trace("parseCallSite")()
	cs := &ast.CallSite{Name: p.expect(lexer.Ident)}
	p.expect(lexer.LeftParen)
	cs.Args = p.parseTypeList()
	cs.RightParen = p.expect(lexer.RightParen)
	if p.tok.Type == lexer.Labels {
		cs.Labels = p.parseLabels()
	}
	return cs
}
