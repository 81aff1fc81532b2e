// Package tables writes the per-file listings of declared types and
// callables for a checked build.
package tables

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/tq/check"
	"github.com/smasher164/tq/fsx"
	"github.com/smasher164/tq/lexer"
	"github.com/smasher164/tq/parser"
	"github.com/smasher164/tq/types"
)

const (
	TypesExt     = ".types"
	CallablesExt = ".callables"
)

type Tables struct {
	importer *parser.Importer
	checker  *check.Checker
}

func NewTables(importer *parser.Importer, checker *check.Checker) *Tables {
	return &Tables{
		importer: importer,
		checker:  checker,
	}
}

// WriteBuild writes base.types and base.callables next to where
// base.tq sits in the source tree, rooted at outfs. It must only be
// called after ProcessBuild returned nil.
func (t *Tables) WriteBuild(outfs fs.FS) error {
	for _, filename := range t.importer.Sorted {
		stem := strings.TrimSuffix(filename, lexer.Ext)
		if err := fsx.WriteFile(outfs, stem+TypesExt, []byte(t.TypesTable(filename))); err != nil {
			return err
		}
		if err := fsx.WriteFile(outfs, stem+CallablesExt, []byte(t.CallablesTable(filename))); err != nil {
			return err
		}
	}
	return nil
}

// TypesTable lists the types first introduced by filename in canonical
// order, one per line: mangled name, TNode type, rendering and parent.
func (t *Tables) TypesTable(filename string) string {
	declared := lo.Filter(t.checker.Registry().Types(), func(typ types.Type, _ int) bool {
		in, ok := t.checker.DeclaredIn(typ)
		return ok && in == filename
	})
	types.SortTypes(declared)
	var sb strings.Builder
	sb.WriteString("# mangled\ttnode\ttype\tparent\n")
	for _, typ := range declared {
		parent := "-"
		if p, ok := typ.Parent(); ok {
			parent = p.String()
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", typ.MangledName(), typ.GeneratedTNodeTypeName(), typ, parent)
	}
	return sb.String()
}

// CallablesTable lists the callables declared in filename ordered by
// name, then signature.
func (t *Tables) CallablesTable(filename string) string {
	var sb strings.Builder
	sb.WriteString("# callable\n")
	for _, c := range t.checker.Callables() {
		if c.Filename == filename {
			sb.WriteString(c.String())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
