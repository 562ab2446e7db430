// Package watch keeps a finished search alive: it observes the walked tree
// with fsnotify and reports entries that begin to satisfy the criteria as
// the tree changes.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrison/pathfind/internal/matcher"
	"github.com/harrison/pathfind/internal/walker"
)

// DefaultDebounceDelay is the default delay for coalescing rapid writes
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher watches a directory tree and emits paths that satisfy the
// search criteria when they are created or modified. Depth and exclude
// rules from the originating walk apply to watched paths as well.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	criteria matcher.Criteria
	exclude  []string
	matches  chan string
	errs     chan error

	mu       sync.Mutex
	debounce map[string]*time.Timer
	delay    time.Duration
}

// New creates a Watcher rooted at root. Every directory within the depth
// bound is registered up front; directories created later are added as
// they appear. Unreadable subtrees are skipped, matching the walk's
// error policy.
func New(root string, criteria matcher.Criteria, exclude []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		root:     filepath.Clean(root),
		criteria: criteria,
		exclude:  exclude,
		matches:  make(chan string, 100),
		errs:     make(chan error, 10),
		debounce: make(map[string]*time.Timer),
		delay:    DefaultDebounceDelay,
	}

	if err := w.addRecursive(w.root, 0); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Matches returns the channel of paths that satisfied the criteria.
func (w *Watcher) Matches() <-chan string { return w.matches }

// Errors returns the channel of non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Run processes filesystem events until ctx is cancelled. It owns the
// underlying fsnotify watcher and closes it on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// addRecursive registers dir and its subdirectories within the depth
// bound, honoring exclude globs. Permission and not-exist errors are
// skipped rather than fatal.
func (w *Watcher) addRecursive(dir string, depth int) error {
	if depth > 0 && excludedName(filepath.Base(dir), w.exclude) {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		if os.IsPermission(err) || os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if limit := w.criteria.MaxDepth(); limit >= 0 && depth >= limit {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable subtree: report and keep watching the rest.
		select {
		case w.errs <- err:
		default:
		}
		return nil
	}
	for _, de := range entries {
		if de.IsDir() {
			if err := w.addRecursive(filepath.Join(dir, de.Name()), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// handle converts one fsnotify event into zero or more match reports.
func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	path := filepath.Clean(ev.Name)
	depth, ok := depthWithin(w.root, path, w.criteria.MaxDepth(), w.exclude)
	if !ok {
		return
	}
	info, err := os.Lstat(path)
	if err != nil {
		// Entry vanished between the event and now.
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addRecursive(path, depth); err != nil {
				select {
				case w.errs <- err:
				default:
				}
			}
		}
		w.test(path, info, depth)
		return
	}

	// Coalesce rapid successive writes so one logical change produces one
	// report.
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounce[path]; ok {
		t.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()

		info, err := os.Lstat(path)
		if err != nil {
			return
		}
		w.test(path, info, depth)
	})
}

// test emits path on the match channel if its entry satisfies the
// criteria. A full channel drops the report rather than blocking the
// event loop.
func (w *Watcher) test(path string, info fs.FileInfo, depth int) {
	e, ok := walker.EntryOf(path, info, depth)
	if !ok {
		return
	}
	if excludedName(e.Name, w.exclude) && e.Kind == matcher.KindDir {
		return
	}
	if w.criteria.Matches(e) {
		select {
		case w.matches <- path:
		default:
		}
	}
}

// depthWithin computes path's depth relative to root and reports whether
// it is inside the watched tree, within the depth bound and not under an
// excluded directory.
func depthWithin(root, path string, maxDepth int, exclude []string) (int, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return 0, false
	}
	if rel == "." {
		return 0, true
	}
	parts := strings.Split(rel, string(filepath.Separator))
	depth := len(parts)
	if maxDepth >= 0 && depth > maxDepth {
		return 0, false
	}
	// Ancestor components are directories by construction; the final
	// component is the entry itself and is judged by the caller.
	for _, comp := range parts[:len(parts)-1] {
		if excludedName(comp, exclude) {
			return 0, false
		}
	}
	return depth, true
}

func excludedName(name string, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
