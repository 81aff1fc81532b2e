package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/smasher164/tq/check"
	"github.com/smasher164/tq/fsx"
	"github.com/smasher164/tq/parser"
	"github.com/smasher164/tq/types"
)

const (
	historyFile = ".tq_history"
	prompt      = "tq> "
)

const helpText = `commands:
  T                         show the type T
  :sub A, B                 is A a subtype of B
  :lub A, B                 common supertype of A and B
  :assign To, From          is To assignable from From
  :mangle T                 mangled name of T
  :tnode T                  TNode and generated type names of T
  :show T                   everything known about T
  :call Name(T, ...) [labels L(T, ...), ...]
                            resolve a call against the declared overloads
  :help                     this text
  :quit                     exit
`

var errQuit = errors.New("quit")

type session struct {
	checker *check.Checker
}

func (s *session) reify(src string) (types.Type, error) {
	n, err := parser.ParseTypeExpr(src)
	if err != nil {
		return types.Type{}, err
	}
	return s.checker.ReifyType(n)
}

func (s *session) reifyPair(src string) (types.Type, types.Type, error) {
	ns, err := parser.ParseTypeList(src)
	if err != nil {
		return types.Type{}, types.Type{}, err
	}
	if len(ns) != 2 {
		return types.Type{}, types.Type{}, fmt.Errorf("expected two types, got %d", len(ns))
	}
	a, err := s.checker.ReifyType(ns[0])
	if err != nil {
		return types.Type{}, types.Type{}, err
	}
	b, err := s.checker.ReifyType(ns[1])
	if err != nil {
		return types.Type{}, types.Type{}, err
	}
	return a, b, nil
}

// eval runs one line of input. It returns errQuit on :quit.
func (s *session) eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if !strings.HasPrefix(line, ":") {
		t, err := s.reify(line)
		if err != nil {
			return "", err
		}
		return t.String(), nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case ":quit", ":q":
		return "", errQuit
	case ":help":
		return strings.TrimSuffix(helpText, "\n"), nil
	case ":sub":
		a, b, err := s.reifyPair(rest)
		if err != nil {
			return "", err
		}
		return fmt.Sprint(a.IsSubtypeOf(b)), nil
	case ":lub":
		a, b, err := s.reifyPair(rest)
		if err != nil {
			return "", err
		}
		t, err := types.CommonSupertype(a, b)
		if err != nil {
			return "", err
		}
		return t.String(), nil
	case ":assign":
		to, from, err := s.reifyPair(rest)
		if err != nil {
			return "", err
		}
		return fmt.Sprint(s.checker.Registry().IsAssignableFrom(to, from)), nil
	case ":mangle":
		t, err := s.reify(rest)
		if err != nil {
			return "", err
		}
		return t.MangledName(), nil
	case ":tnode":
		t, err := s.reify(rest)
		if err != nil {
			return "", err
		}
		return t.GeneratedTNodeTypeName() + " " + t.GeneratedTypeName(), nil
	case ":show":
		t, err := s.reify(rest)
		if err != nil {
			return "", err
		}
		return s.show(t), nil
	case ":call":
		cs, err := parser.ParseCallSite(rest)
		if err != nil {
			return "", err
		}
		callable, err := s.checker.ResolveCallSite(cs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s:%s)", callable, callable.Filename, callable.Span), nil
	}
	return "", fmt.Errorf("unknown command %s, type :help for a list", cmd)
}

func (s *session) show(t types.Type) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s type %s\n", t.Kind(), t.ExplicitString())
	if aliases := t.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(&sb, "aliases:   %s\n", strings.Join(aliases, ", "))
	}
	if p, ok := t.Parent(); ok {
		fmt.Fprintf(&sb, "parent:    %s\n", p)
	}
	fmt.Fprintf(&sb, "depth:     %d\n", t.Depth())
	fmt.Fprintf(&sb, "mangled:   %s\n", t.MangledName())
	fmt.Fprintf(&sb, "generates: %s\n", t.GeneratedTypeName())
	if t.IsConstexpr() {
		sb.WriteString("constexpr: true\n")
	}
	if file, ok := s.checker.DeclaredIn(t); ok {
		fmt.Fprintf(&sb, "declared:  %s\n", file)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func cmdRepl(args []string) int {
	c, conf, paths, code := setup("repl", args)
	if c == nil {
		return code
	}
	_, checker, err := loadBuild(fsx.DirFS(c.root), conf, paths)
	if checker == nil {
		report(err)
		return 1
	}
	if err != nil {
		// Keep going with whatever was declared.
		report(err)
	}
	s := &session{checker: checker}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("type :help for commands, Ctrl+D exits")
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				report(err)
				return 1
			}
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		out, err := s.eval(line)
		if errors.Is(err, errQuit) {
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}
