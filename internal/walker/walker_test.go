package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/harrison/pathfind/internal/matcher"
)

func mkParents(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func writeFileOfSize(path string, size int) error {
	return os.WriteFile(path, make([]byte, size), 0o644)
}

func symlink(oldname, newname string) error {
	return os.Symlink(oldname, newname)
}

// fakeInfo implements fs.FileInfo for synthetic trees.
type fakeInfo struct {
	name string
	size int64
	mode fs.FileMode
}

func (fi fakeInfo) Name() string       { return fi.name }
func (fi fakeInfo) Size() int64        { return fi.size }
func (fi fakeInfo) Mode() fs.FileMode  { return fi.mode }
func (fi fakeInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi fakeInfo) Sys() any           { return nil }

// fakeEntry implements fs.DirEntry backed by a fakeInfo.
type fakeEntry struct {
	info    fakeInfo
	infoErr error
}

func (fe fakeEntry) Name() string               { return fe.info.name }
func (fe fakeEntry) IsDir() bool                { return fe.info.IsDir() }
func (fe fakeEntry) Type() fs.FileMode          { return fe.info.mode.Type() }
func (fe fakeEntry) Info() (fs.FileInfo, error) { return fe.info, fe.infoErr }

// fakeFS is an in-memory FS that counts directory reads and can inject
// failures per path.
type fakeFS struct {
	infos   map[string]fakeInfo
	dirs    map[string][]fs.DirEntry
	readErr map[string]error
	reads   map[string]int
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		infos:   make(map[string]fakeInfo),
		dirs:    make(map[string][]fs.DirEntry),
		readErr: make(map[string]error),
		reads:   make(map[string]int),
	}
}

func (f *fakeFS) Lstat(name string) (fs.FileInfo, error) {
	fi, ok := f.infos[name]
	if !ok {
		return nil, &fs.PathError{Op: "lstat", Path: name, Err: fs.ErrNotExist}
	}
	return fi, nil
}

func (f *fakeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	f.reads[name]++
	if err := f.readErr[name]; err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return f.dirs[name], nil
}

func (f *fakeFS) add(path string, fi fakeInfo) {
	f.infos[path] = fi
	parent := filepath.Dir(path)
	if parent != path {
		f.dirs[parent] = append(f.dirs[parent], fakeEntry{info: fi})
	}
}

func (f *fakeFS) addDir(path string) {
	f.add(path, fakeInfo{name: filepath.Base(path), mode: fs.ModeDir | 0o755})
}

func (f *fakeFS) addFile(path string, size int64) {
	f.add(path, fakeInfo{name: filepath.Base(path), size: size, mode: 0o644})
}

func (f *fakeFS) addSymlink(path string) {
	f.add(path, fakeInfo{name: filepath.Base(path), mode: fs.ModeSymlink | 0o777})
}

func collect(root string, opts Options) []string {
	var got []string
	for path := range Walk(root, opts) {
		got = append(got, path)
	}
	return got
}

func criteria(t *testing.T, maxDepth int, build ...func() (matcher.Matcher, error)) matcher.Criteria {
	t.Helper()
	var ms []matcher.Matcher
	for _, b := range build {
		m, err := b()
		if err != nil {
			t.Fatalf("matcher construction failed: %v", err)
		}
		ms = append(ms, m)
	}
	return matcher.NewCriteria(ms, maxDepth)
}

func typeMatcher(token string) func() (matcher.Matcher, error) {
	return func() (matcher.Matcher, error) { return matcher.NewType(token) }
}

func sizeMatcher(token string) func() (matcher.Matcher, error) {
	return func() (matcher.Matcher, error) { return matcher.NewSize(token) }
}

func globMatcher(pattern string) func() (matcher.Matcher, error) {
	return func() (matcher.Matcher, error) { return matcher.NewNameGlob(pattern, true) }
}

func equalPaths(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paths = %v, want %v", got, want)
		}
	}
}

// Spec scenario: root/{a.log 20MiB, b.txt 1KiB, sub/c.log 5MiB}, matchers
// [type f, size +10M], unbounded depth, exactly root/a.log matches.
func TestWalkFilesLargerThanTenMiB(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addFile(filepath.Join("root", "a.log"), 20*1024*1024)
	fsys.addFile(filepath.Join("root", "b.txt"), 1024)
	fsys.addDir(filepath.Join("root", "sub"))
	fsys.addFile(filepath.Join("root", "sub", "c.log"), 5*1024*1024)

	got := collect("root", Options{
		Criteria: criteria(t, -1, typeMatcher("f"), sizeMatcher("+10M")),
		FS:       fsys,
	})

	equalPaths(t, got, []string{filepath.Join("root", "a.log")})
}

func TestWalkEmptyCriteriaListsEverything(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addFile(filepath.Join("root", "a"), 1)
	fsys.addDir(filepath.Join("root", "sub"))
	fsys.addFile(filepath.Join("root", "sub", "b"), 2)

	got := collect("root", Options{Criteria: matcher.NewCriteria(nil, -1), FS: fsys})

	equalPaths(t, got, []string{
		"root",
		filepath.Join("root", "a"),
		filepath.Join("root", "sub"),
		filepath.Join("root", "sub", "b"),
	})
}

func TestWalkIsPreOrder(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addDir(filepath.Join("root", "sub"))
	fsys.addFile(filepath.Join("root", "sub", "inner"), 1)
	fsys.addFile(filepath.Join("root", "zz"), 1)

	got := collect("root", Options{Criteria: matcher.NewCriteria(nil, -1), FS: fsys})

	// The directory appears before its children; siblings follow directory
	// order.
	equalPaths(t, got, []string{
		"root",
		filepath.Join("root", "sub"),
		filepath.Join("root", "sub", "inner"),
		filepath.Join("root", "zz"),
	})
}

func TestWalkDepthPruning(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addFile(filepath.Join("root", "top"), 1)
	fsys.addDir(filepath.Join("root", "sub"))
	fsys.addFile(filepath.Join("root", "sub", "mid"), 1)
	fsys.addDir(filepath.Join("root", "sub", "deep"))
	fsys.addFile(filepath.Join("root", "sub", "deep", "bottom"), 1)

	got := collect("root", Options{Criteria: matcher.NewCriteria(nil, 1), FS: fsys})

	equalPaths(t, got, []string{
		"root",
		filepath.Join("root", "top"),
		filepath.Join("root", "sub"),
	})

	// Pruned subtrees are never read, not merely filtered out.
	if n := fsys.reads[filepath.Join("root", "sub")]; n != 0 {
		t.Errorf("pruned directory was read %d times, want 0", n)
	}
	if n := fsys.reads["root"]; n != 1 {
		t.Errorf("root read %d times, want 1", n)
	}
}

func TestWalkDepthZeroVisitsRootOnly(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addFile(filepath.Join("root", "a"), 1)

	got := collect("root", Options{Criteria: matcher.NewCriteria(nil, 0), FS: fsys})

	equalPaths(t, got, []string{"root"})
	if n := fsys.reads["root"]; n != 0 {
		t.Errorf("root was read %d times with depth 0, want 0", n)
	}
}

func TestWalkUnreadableSubtreeKeepsSiblings(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addDir(filepath.Join("root", "bad"))
	fsys.addDir(filepath.Join("root", "good"))
	fsys.addFile(filepath.Join("root", "good", "keep.log"), 1)
	fsys.readErr[filepath.Join("root", "bad")] = fs.ErrPermission

	var failures []string
	got := collect("root", Options{
		Criteria: criteria(t, -1, globMatcher("*.log")),
		FS:       fsys,
		OnError: func(path string, err error) {
			failures = append(failures, path)
		},
	})

	equalPaths(t, got, []string{filepath.Join("root", "good", "keep.log")})
	if len(failures) != 1 || failures[0] != filepath.Join("root", "bad") {
		t.Errorf("failures = %v, want exactly the unreadable directory", failures)
	}
}

func TestWalkRootMissing(t *testing.T) {
	fsys := newFakeFS()

	var failures []string
	got := collect("missing", Options{
		Criteria: matcher.NewCriteria(nil, -1),
		FS:       fsys,
		OnError:  func(path string, err error) { failures = append(failures, path) },
	})

	if len(got) != 0 {
		t.Errorf("missing root produced results: %v", got)
	}
	if len(failures) != 1 {
		t.Errorf("failures = %v, want one for the root", failures)
	}
}

func TestWalkSymlinkNotDescended(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addSymlink(filepath.Join("root", "loop"))
	// If the walker tried to descend, this would be the subtree it reads.
	fsys.dirs[filepath.Join("root", "loop")] = []fs.DirEntry{
		fakeEntry{info: fakeInfo{name: "inner", mode: 0o644}},
	}

	got := collect("root", Options{
		Criteria: criteria(t, -1, typeMatcher("s")),
		FS:       fsys,
	})

	equalPaths(t, got, []string{filepath.Join("root", "loop")})
	if n := fsys.reads[filepath.Join("root", "loop")]; n != 0 {
		t.Errorf("symlink was descended into (%d reads)", n)
	}
}

func TestWalkExcludePrunesSubtree(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addDir(filepath.Join("root", "node_modules"))
	fsys.addFile(filepath.Join("root", "node_modules", "pkg.log"), 1)
	fsys.addFile(filepath.Join("root", "app.log"), 1)

	got := collect("root", Options{
		Criteria: criteria(t, -1, globMatcher("*.log")),
		Exclude:  []string{"node_modules"},
		FS:       fsys,
	})

	equalPaths(t, got, []string{filepath.Join("root", "app.log")})
	if n := fsys.reads[filepath.Join("root", "node_modules")]; n != 0 {
		t.Errorf("excluded directory was read %d times, want 0", n)
	}
}

func TestWalkStopsWhenConsumerStops(t *testing.T) {
	fsys := newFakeFS()
	fsys.addDir("root")
	fsys.addFile(filepath.Join("root", "a"), 1)
	fsys.addDir(filepath.Join("root", "sub"))
	fsys.addFile(filepath.Join("root", "sub", "b"), 1)

	var got []string
	for path := range Walk("root", Options{Criteria: matcher.NewCriteria(nil, -1), FS: fsys}) {
		got = append(got, path)
		break
	}

	equalPaths(t, got, []string{"root"})
	if n := fsys.reads[filepath.Join("root", "sub")]; n != 0 {
		t.Errorf("walk continued after the consumer stopped (%d reads of sub)", n)
	}
}

func TestEntryOf(t *testing.T) {
	tests := []struct {
		name     string
		info     fakeInfo
		wantKind matcher.EntryKind
		wantOK   bool
	}{
		{name: "file", info: fakeInfo{name: "f", size: 42, mode: 0o644}, wantKind: matcher.KindFile, wantOK: true},
		{name: "dir", info: fakeInfo{name: "d", mode: fs.ModeDir | 0o755}, wantKind: matcher.KindDir, wantOK: true},
		{name: "symlink", info: fakeInfo{name: "s", mode: fs.ModeSymlink}, wantKind: matcher.KindSymlink, wantOK: true},
		{name: "socket", info: fakeInfo{name: "sock", mode: fs.ModeSocket}, wantOK: false},
		{name: "fifo", info: fakeInfo{name: "pipe", mode: fs.ModeNamedPipe}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := EntryOf(filepath.Join("root", tt.info.name), tt.info, 2)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if e.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", e.Kind, tt.wantKind)
			}
			if e.Name != tt.info.name {
				t.Errorf("name = %q, want %q", e.Name, tt.info.name)
			}
			if e.Depth != 2 {
				t.Errorf("depth = %d, want 2", e.Depth)
			}
			if tt.wantKind == matcher.KindFile && e.Size != tt.info.size {
				t.Errorf("size = %d, want %d", e.Size, tt.info.size)
			}
		})
	}
}

// Same walk against the real filesystem, exercising the osFS path.
func TestWalkOSFilesystem(t *testing.T) {
	root := t.TempDir()
	write := func(rel string, size int) {
		path := filepath.Join(root, rel)
		if err := mkParents(path); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := writeFileOfSize(path, size); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("a.log", 4096)
	write("b.txt", 10)
	write(filepath.Join("sub", "c.log"), 20)

	got := collect(root, Options{
		Criteria: criteria(t, -1, typeMatcher("f"), globMatcher("*.log"), sizeMatcher("+1K")),
	})

	equalPaths(t, got, []string{filepath.Join(root, "a.log")})
}

func TestWalkOSFilesystemSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := t.TempDir()
	target := filepath.Join(root, "target")
	if err := writeFileOfSize(target, 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(root, "link")
	if err := symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	got := collect(root, Options{
		Criteria: criteria(t, -1, typeMatcher("s")),
	})

	equalPaths(t, got, []string{link})
}
