// Package check declares the contents of parsed declaration files into a
// type registry and resolves calls against the declared callables.
package check

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/tq/ast"
	"github.com/smasher164/tq/config"
	"github.com/smasher164/tq/lexer"
	"github.com/smasher164/tq/parser"
	"github.com/smasher164/tq/types"
	"golang.org/x/exp/slices"
)

// Error is a declaration error positioned in its source file.
type Error struct {
	Filename string
	Span     lexer.Span
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%s: %v", e.Filename, e.Span, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type CallableKind int

const (
	Macro CallableKind = iota
	Builtin
)

func (k CallableKind) String() string {
	if k == Builtin {
		return "builtin"
	}
	return "macro"
}

type Callable struct {
	Name      string
	Kind      CallableKind
	Extern    bool
	Signature *types.Signature
	Filename  string
	Span      lexer.Span
}

func (c *Callable) String() string {
	var sb strings.Builder
	if c.Extern {
		sb.WriteString("extern ")
	}
	sb.WriteString(c.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(c.Name)
	sb.WriteString(c.Signature.String())
	return sb.String()
}

type Checker struct {
	importer   *parser.Importer
	conf       config.Config
	reg        *types.Registry
	callables  map[string][]*Callable
	declaredIn map[types.Type]string
	file       string
	log        *slog.Logger
}

func NewChecker(importer *parser.Importer, conf config.Config) *Checker {
	reg := types.NewRegistry()
	reg.LabelCheck = conf.Labels()
	return &Checker{
		importer:   importer,
		conf:       conf,
		reg:        reg,
		callables:  make(map[string][]*Callable),
		declaredIn: make(map[types.Type]string),
		log:        slog.Default(),
	}
}

func (c *Checker) Registry() *types.Registry {
	return c.reg
}

// DeclaredIn reports the file that first introduced t.
func (c *Checker) DeclaredIn(t types.Type) (string, bool) {
	filename, ok := c.declaredIn[t]
	return filename, ok
}

// ProcessBuild declares every imported file in dependency order. A bad
// declaration is reported and skipped; all errors are joined.
func (c *Checker) ProcessBuild() error {
	var errs []error
	for _, f := range c.importer.Files() {
		errs = append(errs, c.declareFile(f)...)
	}
	c.file = ""
	if _, ok := c.reg.Top(); !ok {
		c.log.Warn("top type is not declared", "top", c.conf.Top)
	}
	for i, conv := range c.conf.Implicit {
		if err := c.declareConversion(conv); err != nil {
			errs = append(errs, fmt.Errorf("config: implicit[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Checker) declareConversion(conv config.Conversion) error {
	from, err := c.reifySource(conv.From)
	if err != nil {
		return err
	}
	to, err := c.reifySource(conv.To)
	if err != nil {
		return err
	}
	c.reg.AddImplicitConversion(from, to)
	return nil
}

func (c *Checker) reifySource(src string) (types.Type, error) {
	n, err := parser.ParseTypeExpr(src)
	if err != nil {
		return types.Type{}, err
	}
	return c.ReifyType(n)
}

func (c *Checker) declareFile(f *ast.File) []error {
	c.file = f.Filename
	var errs []error
	for _, decl := range f.Decls {
		if err := c.declare(decl); err != nil {
			errs = append(errs, &Error{Filename: f.Filename, Span: decl.Span(), Err: err})
		}
	}
	c.log.Debug("declared file", "file", f.Filename, "decls", len(f.Decls), "errors", len(errs))
	return errs
}

func (c *Checker) declare(decl ast.Node) error {
	switch decl := decl.(type) {
	case *ast.TypeDecl:
		return c.declareType(decl)
	case *ast.TypeAliasDecl:
		t, err := c.ReifyType(decl.Value)
		if err != nil {
			return err
		}
		return c.reg.Alias(t, decl.Name.Data)
	case *ast.CallableDecl:
		return c.declareCallable(decl)
	case *ast.ImplicitDecl:
		from, err := c.ReifyType(decl.From)
		if err != nil {
			return err
		}
		to, err := c.ReifyType(decl.To)
		if err != nil {
			return err
		}
		c.reg.AddImplicitConversion(from, to)
		return nil
	case *ast.Illegal:
		return decl
	}
	return fmt.Errorf("unexpected declaration %T", decl)
}

func (c *Checker) abstractParent(name string) (types.Type, error) {
	parent, ok := c.reg.Lookup(name)
	if !ok {
		return types.Type{}, fmt.Errorf("unknown type %q", name)
	}
	if _, ok := parent.Abstract(); !ok {
		return types.Type{}, fmt.Errorf("cannot extend %s type %s", parent.Kind(), parent)
	}
	return parent, nil
}

func (c *Checker) declareType(decl *ast.TypeDecl) error {
	var parent types.Type
	if decl.Parent != nil {
		var err error
		if parent, err = c.abstractParent(decl.Parent.Data); err != nil {
			return err
		}
	}
	var generates string
	if decl.Generates != nil {
		generates = decl.Generates.Data
	}
	name := decl.Name.Data
	t, err := c.reg.DeclareAbstract(name, parent, generates)
	if err != nil {
		return err
	}
	c.declaredIn[t] = c.file
	if name == c.conf.Top {
		c.reg.SetTop(t)
	}
	if name == c.conf.CallableRoot {
		c.reg.SetCallableRoot(t)
	}
	c.log.Debug("declared type", "name", name, "parent", parent, "generates", t.GeneratedTypeName())
	if decl.Constexpr == nil {
		return nil
	}
	var constexprParent types.Type
	if a, ok := parent.Abstract(); ok {
		constexprParent, _ = c.reg.Lookup("constexpr " + a.Name())
	}
	ct, err := c.reg.DeclareAbstract("constexpr "+name, constexprParent, decl.Constexpr.Data)
	if err != nil {
		return err
	}
	c.declaredIn[ct] = c.file
	return nil
}

func (c *Checker) declareCallable(decl *ast.CallableDecl) error {
	sig := &types.Signature{
		ParameterTypes: types.ParameterTypes{VarArgs: decl.VarArgs != nil},
	}
	named := lo.CountBy(decl.Params, func(p *ast.Param) bool { return p.Name != nil })
	if named != 0 && named != len(decl.Params) {
		return fmt.Errorf("%s mixes named and unnamed parameters", decl.Name.Data)
	}
	for _, p := range decl.Params {
		t, err := c.ReifyType(p.Type)
		if err != nil {
			return err
		}
		sig.ParameterTypes.Types = append(sig.ParameterTypes.Types, t)
		if p.Name != nil {
			sig.ParameterNames = append(sig.ParameterNames, p.Name.Data)
		}
	}
	ret, err := c.ReifyType(decl.Return)
	if err != nil {
		return err
	}
	sig.ReturnType = ret
	if sig.Labels, err = c.reifyLabels(decl.Labels); err != nil {
		return err
	}
	callable := &Callable{
		Name:      decl.Name.Data,
		Kind:      Macro,
		Extern:    decl.Extern != nil,
		Signature: sig,
		Filename:  c.file,
		Span:      decl.Span(),
	}
	if decl.Kind.Type == lexer.Builtin {
		callable.Kind = Builtin
	}
	for _, other := range c.callables[callable.Name] {
		if other.Signature.HasSameTypesAs(sig) {
			return fmt.Errorf("%s conflicts with %s declared at %s:%s", callable, other, other.Filename, other.Span)
		}
	}
	c.callables[callable.Name] = append(c.callables[callable.Name], callable)
	c.log.Debug("declared callable", "callable", callable.String())
	return nil
}

func (c *Checker) reifyLabels(decls []*ast.LabelDecl) ([]types.Label, error) {
	labels := make([]types.Label, 0, len(decls))
	for _, ld := range decls {
		label := types.Label{Name: ld.Name.Data}
		for _, n := range ld.Types {
			t, err := c.ReifyType(n)
			if err != nil {
				return nil, err
			}
			label.Types = append(label.Types, t)
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// ReifyType resolves a type expression against the declared types.
// Compound types are created on first use.
func (c *Checker) ReifyType(n ast.Node) (types.Type, error) {
	var t types.Type
	switch n := n.(type) {
	case *ast.NamedType:
		named, ok := c.reg.Lookup(n.TypeName())
		if !ok {
			return types.Type{}, fmt.Errorf("unknown type %q", n.TypeName())
		}
		return named, nil
	case *ast.UnionTypeExpr:
		members := make([]types.Type, 0, len(n.Members))
		for _, m := range n.Members {
			mt, err := c.ReifyType(m)
			if err != nil {
				return types.Type{}, err
			}
			members = append(members, mt)
		}
		u, err := c.reg.Union(members...)
		if err != nil {
			return types.Type{}, err
		}
		t = u
	case *ast.FunctionTypeExpr:
		params := make([]types.Type, 0, len(n.Params))
		for _, p := range n.Params {
			pt, err := c.ReifyType(p)
			if err != nil {
				return types.Type{}, err
			}
			params = append(params, pt)
		}
		ret, err := c.ReifyType(n.Return)
		if err != nil {
			return types.Type{}, err
		}
		fp, err := c.reg.FunctionPointer(params, ret)
		if err != nil {
			return types.Type{}, err
		}
		t = fp
	case *ast.Illegal:
		return types.Type{}, n
	default:
		return types.Type{}, fmt.Errorf("%T is not a type expression", n)
	}
	if _, ok := c.declaredIn[t]; !ok && c.file != "" {
		c.declaredIn[t] = c.file
	}
	return t, nil
}

// Callables returns every declared callable ordered by name, then by
// signature.
func (c *Checker) Callables() []*Callable {
	all := lo.Flatten(lo.Values(c.callables))
	slices.SortFunc(all, func(a, b *Callable) int {
		if a.Name != b.Name {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Signature.String(), b.Signature.String())
	})
	return all
}

// Overloads returns the callables declared under name in declaration
// order.
func (c *Checker) Overloads(name string) []*Callable {
	return c.callables[name]
}
