// Package walker performs the depth-bounded directory descent for pathfind.
//
// The walk is single-threaded, depth-first and pre-order: a directory is
// tested against the criteria before its children are visited, and the
// root entry itself is a candidate at depth 0. Matches are produced as a
// lazy sequence; the walker advances only as the consumer requests the
// next element. Per-entry read failures are reported through a hook and
// never abort the walk.
package walker

import (
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/harrison/pathfind/internal/matcher"
)

// Options configures one walk.
type Options struct {
	// Criteria filters visited entries and carries the depth bound.
	Criteria matcher.Criteria

	// Exclude lists directory-name globs whose subtrees are pruned
	// entirely: the directory is neither emitted nor read.
	Exclude []string

	// OnError receives per-entry read failures (permission denied, entry
	// vanished mid-walk). The walk continues with the remaining entries.
	// Nil discards failures.
	OnError func(path string, err error)

	// FS overrides the filesystem. Nil means the operating system.
	FS FS
}

// Walk returns a lazy sequence of the paths under root that satisfy
// opts.Criteria. Each matching path is yielded exactly once, the moment
// its entry is determined to match. Symlinks are reported as entries of
// their own kind and never descended into, so cyclic link structures
// cannot loop the walk. Stopping consumption terminates the walk
// immediately.
func Walk(root string, opts Options) iter.Seq[string] {
	fsys := opts.FS
	if fsys == nil {
		fsys = osFS{}
	}
	w := &walker{opts: opts, fsys: fsys}
	return func(yield func(string) bool) {
		info, err := fsys.Lstat(root)
		if err != nil {
			w.fail(root, err)
			return
		}
		w.visit(root, info, 0, yield)
	}
}

type walker struct {
	opts Options
	fsys FS
}

func (w *walker) fail(path string, err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(path, err)
	}
}

// visit tests one entry and, for directories whose children are still
// within the depth bound, descends into them. It returns false once the
// consumer has stopped taking results.
func (w *walker) visit(path string, info fs.FileInfo, depth int, yield func(string) bool) bool {
	e, ok := EntryOf(path, info, depth)
	if !ok {
		// Sockets, devices, fifos: outside the file/dir/symlink universe.
		return true
	}
	if e.Kind == matcher.KindDir && w.excluded(e.Name) {
		return true
	}
	if w.opts.Criteria.Matches(e) {
		if !yield(path) {
			return false
		}
	}
	if e.Kind != matcher.KindDir {
		return true
	}
	// Children sit at depth+1; prune the whole subtree when they would
	// exceed the bound, without reading the directory at all.
	if limit := w.opts.Criteria.MaxDepth(); limit >= 0 && depth >= limit {
		return true
	}
	entries, err := w.fsys.ReadDir(path)
	if err != nil {
		w.fail(path, err)
		return true
	}
	for _, de := range entries {
		child := filepath.Join(path, de.Name())
		ci, err := de.Info()
		if err != nil {
			w.fail(child, err)
			continue
		}
		if !w.visit(child, ci, depth+1, yield) {
			return false
		}
	}
	return true
}

func (w *walker) excluded(name string) bool {
	for _, pattern := range w.opts.Exclude {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// EntryOf converts lstat metadata into a matcher entry. ok is false for
// node types the matcher vocabulary cannot express (sockets, devices,
// fifos); such entries are skipped.
func EntryOf(path string, info fs.FileInfo, depth int) (matcher.Entry, bool) {
	var kind matcher.EntryKind
	switch {
	case info.IsDir():
		kind = matcher.KindDir
	case info.Mode()&fs.ModeSymlink != 0:
		kind = matcher.KindSymlink
	case info.Mode().IsRegular():
		kind = matcher.KindFile
	default:
		return matcher.Entry{}, false
	}
	e := matcher.Entry{
		Path:  path,
		Name:  filepath.Base(path),
		Kind:  kind,
		Depth: depth,
	}
	if kind == matcher.KindFile {
		e.Size = info.Size()
	}
	return e, true
}
