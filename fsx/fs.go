// Package fsx extends io/fs with the write operations table output needs,
// backed either by the host file system or by an in-memory tree for
// tests.
package fsx

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var _ fs.File = (*memDir)(nil)
var _ fs.DirEntry = (*memDir)(nil)
var _ fs.ReadDirFile = (*memDir)(nil)
var _ CreateFS = (*memDir)(nil)
var _ MkdirFS = (*memDir)(nil)
var _ CreateFS = DirFS("")
var _ MkdirFS = DirFS("")

type WriteableFile interface {
	fs.File
	io.Writer
}

type CreateFS interface {
	fs.FS
	Create(name string) (WriteableFile, error)
}

type MkdirFS interface {
	fs.FS
	Mkdir(name string, perm fs.FileMode) (fs.FS, error)
}

// Create creates or truncates the file name directly inside fsys.
func Create(fsys fs.FS, name string) (WriteableFile, error) {
	if cfs, ok := fsys.(CreateFS); ok {
		return cfs.Create(name)
	}
	return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
}

// Mkdir creates the directory name directly inside fsys and returns it.
// An existing directory is returned as is.
func Mkdir(fsys fs.FS, name string, perm fs.FileMode) (fs.FS, error) {
	if mfs, ok := fsys.(MkdirFS); ok {
		return mfs.Mkdir(name, perm)
	}
	return nil, &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrInvalid}
}

// WriteFile writes data to the slash-separated path name, creating
// intermediate directories.
func WriteFile(fsys fs.FS, name string, data []byte) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}
	dir, file := path.Split(name)
	cur := fsys
	for _, elem := range strings.Split(strings.TrimSuffix(dir, "/"), "/") {
		if elem == "" || elem == "." {
			continue
		}
		next, err := Mkdir(cur, elem, 0o755)
		if err != nil {
			return err
		}
		cur = next
	}
	f, err := Create(cur, file)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type memFile struct {
	name   string
	mode   fs.FileMode
	data   []byte
	offset int
}

var _ fs.FileInfo = (*memFile)(nil)
var _ fs.DirEntry = (*memFile)(nil)
var _ WriteableFile = (*memFile)(nil)

func (mf *memFile) Write(p []byte) (int, error) {
	mf.data = append(mf.data, p...)
	return len(p), nil
}

func (mf *memFile) Read(p []byte) (int, error) {
	if mf.offset >= len(mf.data) {
		return 0, io.EOF
	}
	n := copy(p, mf.data[mf.offset:])
	mf.offset += n
	return n, nil
}

func (mf *memFile) Close() error {
	mf.offset = 0
	return nil
}

func (mf *memFile) Stat() (fs.FileInfo, error) { return mf, nil }
func (mf *memFile) Info() (fs.FileInfo, error) { return mf, nil }
func (mf *memFile) Type() fs.FileMode { return mf.mode.Type() }
func (mf *memFile) IsDir() bool { return mf.mode.IsDir() }
func (*memFile) ModTime() time.Time { return time.Time{} }
func (mf *memFile) Mode() fs.FileMode { return mf.mode }
func (mf *memFile) Name() string { return mf.name }
func (mf *memFile) Size() int64 { return int64(len(mf.data)) }
func (*memFile) Sys() any { return nil }

// memDir is a directory of an in-memory tree. Opening a directory yields
// a copy so each handle keeps its own ReadDir offset.
type memDir struct {
	entries []fs.File
	memFile
}

func newMemDir(name string, perm fs.FileMode) *memDir {
	return &memDir{
		entries: []fs.File{},
		memFile: memFile{name: name, mode: perm | fs.ModeDir},
	}
}

// TestFS builds an in-memory tree from slash-separated paths to file
// contents. The tree is also writable through Create and Mkdir.
func TestFS(files map[string]string) fs.FS {
	root := newMemDir(".", 0o755)
	paths := lo.Keys(files)
	slices.Sort(paths)
	for _, name := range paths {
		if err := WriteFile(root, name, []byte(files[name])); err != nil {
			panic(err)
		}
	}
	return root
}

func nameOf(f fs.File) string {
	switch f := f.(type) {
	case *memDir:
		return f.name
	case *memFile:
		return f.name
	}
	panic("unreachable")
}

func (md *memDir) lookup(name string) int {
	return slices.IndexFunc(md.entries, func(f fs.File) bool {
		return nameOf(f) == name
	})
}

func (md *memDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: md.name, Err: errors.New("is a directory")}
}

func (md *memDir) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(md.entries) - md.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	for i := range list {
		list[i] = md.entries[md.offset+i].(fs.DirEntry)
	}
	md.offset += n
	return list, nil
}

func (md *memDir) Mkdir(name string, perm fs.FileMode) (fs.FS, error) {
	if i := md.lookup(name); i >= 0 {
		if dir, ok := md.entries[i].(*memDir); ok {
			return dir, nil
		}
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	dir := newMemDir(name, perm)
	md.entries = append(md.entries, dir)
	return dir, nil
}

func (md *memDir) Create(name string) (WriteableFile, error) {
	if i := md.lookup(name); i >= 0 {
		f, ok := md.entries[i].(*memFile)
		if !ok {
			return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
		}
		f.data = nil
		f.offset = 0
		return f, nil
	}
	f := &memFile{name: name}
	md.entries = append(md.entries, f)
	return f, nil
}

func (md *memDir) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	cur := md
	if name != "." {
		elems := strings.Split(name, "/")
		for i, elem := range elems {
			j := cur.lookup(elem)
			if j < 0 {
				return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
			}
			switch entry := cur.entries[j].(type) {
			case *memDir:
				cur = entry
			case *memFile:
				if i != len(elems)-1 {
					return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
				}
				handle := *entry
				handle.offset = 0
				return &handle, nil
			}
		}
	}
	handle := *cur
	handle.offset = 0
	return &handle, nil
}

// DirFS is os.DirFS with write support.
type DirFS string

// join returns the host path for name in dir.
func (dir DirFS) join(name string) (string, error) {
	if dir == "" {
		return "", errors.New("fsx: DirFS with empty root")
	}
	if !fs.ValidPath(name) {
		return "", os.ErrInvalid
	}
	local, err := filepath.Localize(name)
	if err != nil {
		return "", os.ErrInvalid
	}
	return filepath.Join(string(dir), local), nil
}

func (dir DirFS) Open(name string) (fs.File, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f, err := os.Open(fullname)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: errors.Unwrap(err)}
	}
	return f, nil
}

func (dir DirFS) Mkdir(name string, perm fs.FileMode) (fs.FS, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: err}
	}
	if err := os.Mkdir(fullname, perm); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return nil, &fs.PathError{Op: "mkdir", Path: name, Err: errors.Unwrap(err)}
		}
		if info, statErr := os.Stat(fullname); statErr != nil || !info.IsDir() {
			return nil, &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
		}
	}
	return DirFS(fullname), nil
}

func (dir DirFS) Create(name string) (WriteableFile, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}
	f, err := os.Create(fullname)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: errors.Unwrap(err)}
	}
	return f, nil
}
