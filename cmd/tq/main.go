package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sanity-io/litter"
	"github.com/smasher164/tq/check"
	"github.com/smasher164/tq/config"
	"github.com/smasher164/tq/fsx"
	"github.com/smasher164/tq/parser"
	"github.com/smasher164/tq/tables"
	"github.com/smasher164/tq/types"
)

const appName = "tq"

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "dump":
		os.Exit(cmdDump(os.Args[2:]))
	case "tables":
		os.Exit(cmdTables(os.Args[2:]))
	case "config":
		os.Exit(cmdConfig(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `usage: %[1]s <command> [flags] path...

commands:
  check    declare the files and report errors
  dump     print the declared types and callables (-ast prints syntax trees)
  tables   write the .types and .callables listings (-o dir)
  config   print the effective configuration
  repl     query the declared type graph interactively

paths are .tq files or directories relative to -root.
`, appName)
}

// common holds the flags shared by every subcommand.
type common struct {
	root    string
	conf    string
	verbose bool
}

func newFlagSet(name string, c *common) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.StringVar(&c.root, "root", ".", "directory that import paths are relative to")
	fset.StringVar(&c.conf, "config", "", "config file (default <root>/"+config.DefaultFile+")")
	fset.BoolVar(&c.verbose, "v", false, "log at debug level")
	return fset
}

// load reads the config and installs the default logger.
func (c *common) load() (config.Config, error) {
	var (
		conf config.Config
		err  error
	)
	if c.conf == "" {
		conf, err = config.LoadOrDefault(fsx.DirFS(c.root), config.DefaultFile)
	} else {
		conf, err = config.Load(os.DirFS(filepath.Dir(c.conf)), filepath.Base(c.conf))
	}
	if err != nil {
		return config.Config{}, err
	}
	level, _ := conf.Level()
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return conf, nil
}

// loadBuild imports paths from fsys and declares them. The checker is
// returned alongside declaration errors so callers can still inspect
// what was declared.
func loadBuild(fsys fs.FS, conf config.Config, paths []string) (*parser.Importer, *check.Checker, error) {
	if len(paths) == 0 {
		return nil, nil, errors.New("no input paths")
	}
	importer := parser.NewImporter(fsys)
	if err := importer.ImportCrawl(paths...); err != nil {
		return nil, nil, err
	}
	checker := check.NewChecker(importer, conf)
	return importer, checker, checker.ProcessBuild()
}

func report(err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
}

func setup(name string, args []string) (*common, config.Config, []string, int) {
	var c common
	fset := newFlagSet(name, &c)
	if err := fset.Parse(args); err != nil {
		return nil, config.Config{}, nil, 2
	}
	conf, err := c.load()
	if err != nil {
		report(err)
		return nil, config.Config{}, nil, 1
	}
	return &c, conf, fset.Args(), 0
}

func cmdCheck(args []string) int {
	c, conf, paths, code := setup("check", args)
	if c == nil {
		return code
	}
	importer, _, err := loadBuild(fsx.DirFS(c.root), conf, paths)
	if err != nil {
		report(err)
		return 1
	}
	slog.Info("checked", "files", len(importer.Sorted))
	return 0
}

func cmdDump(args []string) int {
	var (
		c       common
		showAST bool
	)
	fset := newFlagSet("dump", &c)
	fset.BoolVar(&showAST, "ast", false, "print syntax trees instead of the type graph")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	conf, err := c.load()
	if err != nil {
		report(err)
		return 1
	}
	importer, checker, err := loadBuild(fsx.DirFS(c.root), conf, fset.Args())
	if importer == nil {
		report(err)
		return 1
	}
	if showAST {
		for _, f := range importer.Files() {
			fmt.Println(f.ASTString(0))
		}
	} else {
		fmt.Print(dumpRegistry(checker))
	}
	if err != nil {
		report(err)
		return 1
	}
	return 0
}

type typeEntry struct {
	Type      string
	Kind      string
	Mangled   string
	TNode     string
	Generates string
	Parent    string
	Aliases   []string
	File      string
}

type callableEntry struct {
	Callable string
	File     string
	Span     string
}

func dumpRegistry(checker *check.Checker) string {
	ts := checker.Registry().Types()
	types.SortTypes(ts)
	entries := make([]typeEntry, 0, len(ts))
	for _, t := range ts {
		e := typeEntry{
			Type:      t.ExplicitString(),
			Kind:      t.Kind().String(),
			Mangled:   t.MangledName(),
			TNode:     t.GeneratedTNodeTypeName(),
			Generates: t.GeneratedTypeName(),
			Aliases:   t.Aliases(),
		}
		if p, ok := t.Parent(); ok {
			e.Parent = p.String()
		}
		e.File, _ = checker.DeclaredIn(t)
		entries = append(entries, e)
	}
	callables := make([]callableEntry, 0)
	for _, cl := range checker.Callables() {
		callables = append(callables, callableEntry{
			Callable: cl.String(),
			File:     cl.Filename,
			Span:     cl.Span.String(),
		})
	}
	opts := litter.Options{StripPackageNames: true, HideZeroValues: true}
	return opts.Sdump(entries) + "\n" + opts.Sdump(callables) + "\n"
}

func cmdTables(args []string) int {
	var (
		c   common
		out string
	)
	fset := newFlagSet("tables", &c)
	fset.StringVar(&out, "o", "", "output directory")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if out == "" {
		fmt.Fprintln(os.Stderr, "tables: -o is required")
		return 2
	}
	conf, err := c.load()
	if err != nil {
		report(err)
		return 1
	}
	importer, checker, err := loadBuild(fsx.DirFS(c.root), conf, fset.Args())
	if err != nil {
		report(err)
		return 1
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		report(err)
		return 1
	}
	if err := tables.NewTables(importer, checker).WriteBuild(fsx.DirFS(out)); err != nil {
		report(err)
		return 1
	}
	slog.Info("wrote tables", "dir", out, "files", len(importer.Sorted))
	return 0
}

func cmdConfig(args []string) int {
	c, conf, _, code := setup("config", args)
	if c == nil {
		return code
	}
	if err := conf.Encode(os.Stdout); err != nil {
		report(err)
		return 1
	}
	return 0
}
