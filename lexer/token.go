package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type TokenType int

const (
	EOF TokenType = iota
	Illegal
	Whitespace
	Comment

	Ident
	String

	Semicolon
	Comma
	LeftParen
	RightParen
	Colon
	Equals
	Or
	FatArrow
	Ellipsis

	Type
	Extends
	Generates
	Constexpr
	Import
	Macro
	Builtin
	Extern
	Labels
	Implicit
)

var tokenNames = [...]string{
	EOF:        "EOF",
	Illegal:    "Illegal",
	Whitespace: "Whitespace",
	Comment:    "Comment",
	Ident:      "Ident",
	String:     "String",
	Semicolon:  "';'",
	Comma:      "','",
	LeftParen:  "'('",
	RightParen: "')'",
	Colon:      "':'",
	Equals:     "'='",
	Or:         "'|'",
	FatArrow:   "'=>'",
	Ellipsis:   "'...'",
	Type:       "type",
	Extends:    "extends",
	Generates:  "generates",
	Constexpr:  "constexpr",
	Import:     "import",
	Macro:      "macro",
	Builtin:    "builtin",
	Extern:     "extern",
	Labels:     "labels",
	Implicit:   "implicit",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var SingleCharTokens = map[rune]TokenType{
	';': Semicolon,
	',': Comma,
	'(': LeftParen,
	')': RightParen,
	':': Colon,
	'=': Equals,
	'|': Or,
	eof: EOF,
}

var Keywords = map[string]TokenType{
	"type":      Type,
	"extends":   Extends,
	"generates": Generates,
	"constexpr": Constexpr,
	"import":    Import,
	"macro":     Macro,
	"builtin":   Builtin,
	"extern":    Extern,
	"labels":    Labels,
	"implicit":  Implicit,
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	Start Pos
	End   Pos
}

func (span Span) Add(other Span) Span {
	return Span{span.Start.Min(other.Start), span.End.Max(other.End)}
}

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

func (b Token) Eq(a Token) bool {
	return a.Type == b.Type && a.Data == b.Data
}

func (a Token) ExactEq(b Token) bool {
	return a.Type == b.Type && a.Span == b.Span && a.Data == b.Data && slices.EqualFunc(a.LeadingTrivia, b.LeadingTrivia, Token.ExactEq)
}

func (t Token) IsKeyword() bool {
	return t.Type >= Type && t.Type <= Implicit
}

// BeginsTypeExpr reports whether t can start a type expression.
func (t Token) BeginsTypeExpr() bool {
	switch t.Type {
	case Ident, Constexpr, Builtin, LeftParen:
		return true
	}
	return false
}

// BeginsDecl reports whether t can start a top-level declaration. The
// parser resynchronizes on these after an error.
func (t Token) BeginsDecl() bool {
	switch t.Type {
	case Type, Macro, Builtin, Extern, Implicit, Import, EOF:
		return true
	}
	return false
}
