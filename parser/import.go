package parser

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/samber/lo"
	"github.com/smasher164/tq/ast"
	"github.com/smasher164/tq/lexer"
	"golang.org/x/mod/module"
)

// Importer loads declaration files and everything they import. Import
// paths are slash-separated and relative to the root file system. A path
// naming a directory imports every .tq file directly inside it.
type Importer struct {
	root      fs.FS
	FileCache map[string]*ast.File
	deps      map[string][]string
	// Sorted lists the loaded files so that every file comes after the
	// files it imports.
	Sorted []string
}

func NewImporter(root fs.FS) *Importer {
	return &Importer{
		root:      root,
		FileCache: make(map[string]*ast.File),
		deps:      make(map[string][]string),
	}
}

// expand resolves an import path to the files it names.
func (i *Importer) expand(p string) ([]string, error) {
	if err := module.CheckFilePath(p); err != nil {
		return nil, fmt.Errorf("invalid import path: %w", err)
	}
	if path.Ext(p) == lexer.Ext {
		return []string{p}, nil
	}
	entries, err := fs.ReadDir(i.root, p)
	if err != nil {
		return nil, err
	}
	files := lo.FilterMap(entries, func(entry fs.DirEntry, _ int) (string, bool) {
		if entry.IsDir() || path.Ext(entry.Name()) != lexer.Ext {
			return "", false
		}
		return path.Join(p, entry.Name()), true
	})
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", lexer.Ext, p)
	}
	return files, nil
}

func (i *Importer) importCrawl(filename string) error {
	f, err := i.ImportSingle(filename)
	if err != nil {
		return err
	}
	for _, imp := range f.Imports {
		files, err := i.expand(imp.Path.Data)
		if err != nil {
			return fmt.Errorf("%s:%s: %w", filename, imp.Span(), err)
		}
		i.deps[filename] = append(i.deps[filename], files...)
		for _, dep := range files {
			if _, ok := i.FileCache[dep]; ok {
				continue
			}
			if err := i.importCrawl(dep); err != nil {
				return err
			}
		}
	}
	i.Sorted = append(i.Sorted, filename)
	return nil
}

func (i *Importer) checkCycle() error {
	pos := make(map[string]int)
	for idx, filename := range i.Sorted {
		pos[filename] = idx
	}
	for _, filename := range i.Sorted {
		for _, dep := range i.deps[filename] {
			if pos[filename] <= pos[dep] {
				return fmt.Errorf("import cycle detected: %s -> %s", filename, dep)
			}
		}
	}
	return nil
}

// ImportCrawl loads the given files and all their dependencies. Files
// already loaded are skipped. Import cycles are an error.
func (i *Importer) ImportCrawl(paths ...string) error {
	for _, p := range paths {
		files, err := i.expand(p)
		if err != nil {
			return err
		}
		for _, filename := range files {
			if _, ok := i.FileCache[filename]; ok {
				continue
			}
			if err := i.importCrawl(filename); err != nil {
				return err
			}
		}
	}
	return i.checkCycle()
}

// ImportSingle parses filename without following its imports.
func (i *Importer) ImportSingle(filename string) (*ast.File, error) {
	if f, ok := i.FileCache[filename]; ok {
		return f, nil
	}
	f, err := ParseFile(i.root, filename)
	if err != nil {
		return f, err
	}
	i.FileCache[filename] = f
	return f, nil
}

// Files returns the loaded files in dependency order.
func (i *Importer) Files() []*ast.File {
	return lo.Map(i.Sorted, func(filename string, _ int) *ast.File {
		return i.FileCache[filename]
	})
}
