package lexer_test

import (
	"testing"
	"testing/fstest"

	"github.com/kr/pretty"
	. "github.com/smasher164/tq/lexer"
	"golang.org/x/exp/slices"
)

func lexAll(l *Lexer) []Token {
	var got []Token
	var tok Token
	for tok = l.Next(); tok.Type != EOF; tok = l.Next() {
		got = append(got, tok)
	}
	return append(got, tok)
}

// strip drops spans and trivia so tests can compare types and data.
func strip(toks []Token) []Token {
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{Type: t.Type, Data: t.Data}
	}
	return out
}

func tok(ttyp TokenType, data ...string) Token {
	t := Token{Type: ttyp}
	if len(data) > 0 {
		t.Data = data[0]
	}
	return t
}

func TestLexer(t *testing.T) {
	run := func(name, data string, expected []Token) {
		t.Run(name, func(t *testing.T) {
			got := strip(lexAll(NewStringLexer(data)))
			if !slices.EqualFunc(got, expected, Token.Eq) {
				pretty.Ldiff(t, expected, got)
				t.Fail()
			}
		})
	}

	run("empty", "", []Token{tok(EOF)})

	run("punctuation", "; , ( ) : = | => ...", []Token{
		tok(Semicolon), tok(Comma), tok(LeftParen), tok(RightParen), tok(Colon),
		tok(Equals), tok(Or), tok(FatArrow), tok(Ellipsis), tok(EOF),
	})

	run("keywords", "type extends generates constexpr import macro builtin extern labels implicit", []Token{
		tok(Type), tok(Extends), tok(Generates), tok(Constexpr), tok(Import),
		tok(Macro), tok(Builtin), tok(Extern), tok(Labels), tok(Implicit), tok(EOF),
	})

	run("type decl", "type Smi extends Object generates 'TNode<Smi>';", []Token{
		tok(Type), tok(Ident, "Smi"), tok(Extends), tok(Ident, "Object"),
		tok(Generates), tok(String, "TNode<Smi>"), tok(Semicolon), tok(EOF),
	})

	run("identifiers", "int31 _x Größe typed", []Token{
		tok(Ident, "int31"), tok(Ident, "_x"), tok(Ident, "Größe"), tok(Ident, "typed"), tok(EOF),
	})

	run("strings", `"a\tb" 'it\'s' "\x41é"`, []Token{
		tok(String, "a\tb"), tok(String, "it's"), tok(String, "Aé"), tok(EOF),
	})

	run("comments", "// leading\ntype // trailing\n", []Token{
		tok(Type), tok(EOF),
	})

	run("unterminated string", "'abc", []Token{
		tok(Illegal, "unterminated string"), tok(EOF),
	})

	run("bad escape", `'\q'`, []Token{
		tok(Illegal, "unknown escape sequence"), tok(EOF),
	})

	run("bad dots", "..", []Token{
		tok(Illegal, "expected '...'"), tok(EOF),
	})

	run("unexpected", "@", []Token{
		tok(Illegal, "unexpected character '@'"), tok(EOF),
	})
}

func TestSpans(t *testing.T) {
	got := lexAll(NewStringLexer("type A;\n  // c\nmacro"))
	expected := []Token{
		{Type: Type, Span: Span{Start: Pos{0, 1, 1}, End: Pos{3, 1, 4}}},
		{
			LeadingTrivia: []Token{{Type: Whitespace, Span: Span{Start: Pos{4, 1, 5}, End: Pos{4, 1, 5}}, Data: " "}},
			Type:          Ident,
			Span:          Span{Start: Pos{5, 1, 6}, End: Pos{5, 1, 6}},
			Data:          "A",
		},
		{Type: Semicolon, Span: Span{Start: Pos{6, 1, 7}, End: Pos{6, 1, 7}}},
		{
			LeadingTrivia: []Token{
				{Type: Whitespace, Span: Span{Start: Pos{7, 1, 8}, End: Pos{9, 2, 2}}, Data: "\n  "},
				{Type: Comment, Span: Span{Start: Pos{10, 2, 3}, End: Pos{13, 2, 6}}, Data: "// c"},
				{Type: Whitespace, Span: Span{Start: Pos{14, 2, 7}, End: Pos{14, 2, 7}}, Data: "\n"},
			},
			Type: Macro,
			Span: Span{Start: Pos{15, 3, 1}, End: Pos{19, 3, 5}},
		},
		{Type: EOF, Span: Span{Start: Pos{20, 3, 6}, End: Pos{20, 3, 6}}},
	}
	if !slices.EqualFunc(got, expected, Token.ExactEq) {
		pretty.Ldiff(t, expected, got)
		t.Fail()
	}
}

func TestNewLexer(t *testing.T) {
	fsys := fstest.MapFS{
		"base.tq":  &fstest.MapFile{Data: []byte("type Object;")},
		"base.txt": &fstest.MapFile{Data: []byte("type Object;")},
	}
	l, err := NewLexer(fsys, "base.tq")
	if err != nil {
		t.Fatal(err)
	}
	if got := strip(lexAll(l)); len(got) != 4 || got[1].Data != "Object" {
		t.Errorf("got %v", got)
	}
	if _, err := NewLexer(fsys, "base.txt"); err == nil {
		t.Error("expected an extension error")
	}
	if _, err := NewLexer(fsys, "missing.tq"); err == nil {
		t.Error("expected a missing file error")
	}
}
