package tables_test

import (
	"io/fs"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/tq/check"
	"github.com/smasher164/tq/config"
	"github.com/smasher164/tq/fsx"
	"github.com/smasher164/tq/parser"
	"github.com/smasher164/tq/tables"
)

func Test(t *testing.T) {
	fsys := fsx.TestFS(map[string]string{
		"base.tq": `
		type Object;
		type Smi extends Object generates 'TNode<Smi>';
		type HeapObject extends Object generates 'TNode<HeapObject>';
		type HeapNumber extends HeapObject generates 'TNode<HeapNumber>';
		type Number = Smi | HeapNumber;
		`,
		"lib/math.tq": `
		import 'base.tq';
		macro Add(Number, Number): Number;
		builtin Call(builtin(Smi) => Smi): Smi;
		`,
	})
	importer := parser.NewImporter(fsys)
	if err := importer.ImportCrawl("lib/math.tq"); err != nil {
		t.Fatal(err)
	}
	tc := check.NewChecker(importer, config.Default())
	if err := tc.ProcessBuild(); err != nil {
		t.Fatal(err)
	}
	outfs := fsx.TestFS(nil)
	if err := tables.NewTables(importer, tc).WriteBuild(outfs); err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"base.types": "# mangled\ttnode\ttype\tparent\n" +
			"ATHeapNumber\tHeapNumber\tHeapNumber\tHeapObject\n" +
			"ATHeapObject\tHeapObject\tHeapObject\tObject\n" +
			"ATObject\tObject\tObject\t-\n" +
			"ATSmi\tSmi\tSmi\tObject\n" +
			"UT12ATHeapNumber5ATSmi\tNumber\tNumber\tObject\n",
		"base.callables": "# callable\n",
		"lib/math.types": "# mangled\ttnode\ttype\tparent\n" +
			"FT5ATSmi5ATSmi\tObject\tbuiltin (Smi) => Smi\tObject\n",
		"lib/math.callables": "# callable\n" +
			"macro Add(Number, Number): Number\n" +
			"builtin Call(builtin (Smi) => Smi): Smi\n",
	}
	got := make(map[string]string)
	err := fs.WalkDir(outfs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(outfs, path)
		if err != nil {
			return err
		}
		got[path] = string(b)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Error(diff)
	}
}

func TestRewrite(t *testing.T) {
	fsys := fsx.TestFS(map[string]string{"base.tq": "type Object;"})
	importer := parser.NewImporter(fsys)
	if err := importer.ImportCrawl("base.tq"); err != nil {
		t.Fatal(err)
	}
	tc := check.NewChecker(importer, config.Default())
	if err := tc.ProcessBuild(); err != nil {
		t.Fatal(err)
	}
	outfs := fsx.TestFS(map[string]string{"base.types": "stale contents that are longer than the table\n"})
	tb := tables.NewTables(importer, tc)
	if err := tb.WriteBuild(outfs); err != nil {
		t.Fatal(err)
	}
	b, err := fs.ReadFile(outfs, "base.types")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != tb.TypesTable("base.tq") {
		t.Errorf("base.types = %q", b)
	}
}
