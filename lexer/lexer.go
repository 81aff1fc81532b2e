package lexer

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/smasher164/xid"
)

const Ext = ".tq"

type Lexer struct {
	ch    rune
	pos   int
	i     int // position in buffer
	err   error
	buf   []rune
	rdr   io.RuneReader
	lines []int // offsets of line starts
}

const eof = -1

func (l *Lexer) lexWS() Token {
	startPos := l.pos
	for unicode.IsSpace(l.ch) {
		l.next()
	}
	return Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func isLetter(ch rune) bool {
	return ch == '_' || xid.Start(ch)
}

func (l *Lexer) lexIdentOrKeyword() Token {
	startPos := l.pos
	l.next()
	for l.ch == '_' || xid.Continue(l.ch) {
		l.next()
	}
	ident := l.bufString()
	if ttyp, ok := Keywords[ident]; ok {
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	return Token{Type: Ident, Span: l.spanOf(startPos, l.pos-1), Data: ident}
}

func (l *Lexer) lexLineComment() Token {
	startPos := l.pos
	l.until('\n')
	return Token{Type: Comment, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

// lexEscape decodes the escape sequence after a backslash into sb. It
// returns a non-empty message on failure.
func (l *Lexer) lexEscape(sb *strings.Builder) string {
	var n int
	var base, max uint32
	switch l.ch {
	case 'n':
		l.next()
		sb.WriteByte('\n')
		return ""
	case 't':
		l.next()
		sb.WriteByte('\t')
		return ""
	case '\\', '"', '\'':
		sb.WriteRune(l.ch)
		l.next()
		return ""
	case 'x':
		l.next()
		n, base, max = 2, 16, 255
	case 'u':
		l.next()
		n, base, max = 4, 16, unicode.MaxRune
	default:
		if l.ch == eof {
			return "escape sequence not terminated"
		}
		l.next()
		return "unknown escape sequence"
	}

	var x uint32
	for n > 0 {
		d, err := strconv.ParseUint(string(l.ch), int(base), 8)
		if err != nil {
			if l.ch == eof {
				return "escape sequence not terminated"
			}
			msg := fmt.Sprintf("illegal character %#U in escape sequence", l.ch)
			l.next()
			return msg
		}
		x = x*base + uint32(d)
		l.next()
		n--
	}

	if x > max || 0xD800 <= x && x < 0xE000 {
		return "escape sequence is invalid Unicode code point"
	}
	sb.WriteRune(rune(x))
	return ""
}

// lexString lexes a single- or double-quoted string. Data holds the
// decoded contents without quotes.
func (l *Lexer) lexString() Token {
	startPos := l.pos
	quote := l.ch
	l.next()
	var sb strings.Builder
	var msg string
	for l.ch != quote {
		switch l.ch {
		case eof, '\n':
			return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "unterminated string"}
		case '\\':
			l.next()
			if m := l.lexEscape(&sb); m != "" && msg == "" {
				msg = m
			}
		default:
			sb.WriteRune(l.ch)
			l.next()
		}
	}
	l.next()
	if msg != "" {
		return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: msg}
	}
	return Token{Type: String, Span: l.spanOf(startPos, l.pos-1), Data: sb.String()}
}

func (l *Lexer) next() {
	if l.ch == eof {
		return
	}
	l.i++
	l.pos++
	if l.i < len(l.buf) {
		l.ch = l.buf[l.i]
	} else {
		r, _, err := l.rdr.ReadRune()
		if err != nil {
			l.ch = eof
			if err != io.EOF {
				l.err = err
			}
		} else {
			l.ch = r
		}
		l.buf = append(l.buf, l.ch)
	}
	if l.ch == '\n' && l.lines[len(l.lines)-1] <= l.pos {
		l.lines = append(l.lines, l.pos+1)
	}
}

func (l *Lexer) backup() {
	if l.i > 0 {
		l.i--
		l.pos--
		l.ch = l.buf[l.i]
	}
}

func (l *Lexer) peek() rune {
	if l.ch == eof {
		return eof
	}
	l.next()
	ch := l.ch
	l.backup()
	return ch
}

func (l *Lexer) until(r rune) {
	for l.ch != r && l.ch != eof {
		l.next()
	}
}

func (l *Lexer) bufString() string {
	return string(l.buf[:l.i])
}

func (l *Lexer) lineIndex(offset int) int {
	return sort.Search(len(l.lines), func(i int) bool {
		return l.lines[i] > offset
	}) - 1
}

func (l *Lexer) posOf(offset int) Pos {
	line := l.lineIndex(offset)
	return Pos{Offset: offset, Line: line + 1, Column: offset - l.lines[line] + 1}
}

func (l *Lexer) spanOf(off1, off2 int) Span {
	start := l.posOf(off1)
	var end Pos
	if off1 >= off2 {
		end = start
	} else {
		end = l.posOf(off2)
	}
	return Span{Start: start, End: end}
}

func (l *Lexer) resetPos() {
	l.buf = l.buf[l.i:]
	l.i = 0
	l.ch = l.buf[l.i]
}

func (l *Lexer) NextToken() Token {
	defer l.resetPos()
	startPos := l.pos
	switch {
	case unicode.IsSpace(l.ch):
		return l.lexWS()
	case isLetter(l.ch):
		return l.lexIdentOrKeyword()
	case l.ch == '/' && l.peek() == '/':
		return l.lexLineComment()
	case l.ch == '"' || l.ch == '\'':
		return l.lexString()
	case l.ch == '=' && l.peek() == '>':
		l.next()
		l.next()
		return Token{Type: FatArrow, Span: l.spanOf(startPos, l.pos-1)}
	case l.ch == '.':
		for n := 0; n < 3; n++ {
			if l.ch != '.' {
				return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "expected '...'"}
			}
			l.next()
		}
		return Token{Type: Ellipsis, Span: l.spanOf(startPos, l.pos-1)}
	}
	if ttyp, ok := SingleCharTokens[l.ch]; ok {
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, startPos)}
	}
	ch := l.ch
	l.next()
	return Token{Type: Illegal, Span: l.spanOf(startPos, startPos), Data: fmt.Sprintf("unexpected character %q", ch)}
}

// Next returns the next significant token. Whitespace and comments are
// attached to it as leading trivia.
func (l *Lexer) Next() Token {
	var t Token
	var trivia []Token
	for t = l.NextToken(); t.Type == Whitespace || t.Type == Comment; t = l.NextToken() {
		trivia = append(trivia, t)
	}
	t.LeadingTrivia = trivia
	return t
}

// Err returns the first read error encountered, if any.
func (l *Lexer) Err() error {
	return l.err
}

func newLexer(rdr io.RuneReader) *Lexer {
	l := &Lexer{
		rdr:   rdr,
		i:     -1,
		pos:   -1,
		lines: []int{0},
	}
	l.next()
	return l
}

func NewLexer(fsys fs.FS, filename string) (*Lexer, error) {
	if filepath.Ext(filename) != Ext {
		return nil, fmt.Errorf("invalid file extension %q, expected %q", filepath.Ext(filename), Ext)
	}
	b, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, err
	}
	return newLexer(bufio.NewReader(strings.NewReader(string(b)))), nil
}

// NewStringLexer lexes src directly, e.g. a line typed into the repl.
func NewStringLexer(src string) *Lexer {
	return newLexer(strings.NewReader(src))
}
