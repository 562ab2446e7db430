// Package matcher implements the predicate engine for pathfind.
//
// A Matcher is a single immutable predicate over one filesystem entry.
// Matchers are built once from their textual specifications (name globs,
// regular expressions, size tokens, type tokens) and evaluated any number
// of times; evaluation is pure and never fails. Criteria combines matchers
// with AND semantics and carries the depth bound for one walk.
package matcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Construction errors. The constructors wrap these with the offending token,
// so callers can test with errors.Is while still showing a useful message.
var (
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrInvalidRegex   = errors.New("invalid regular expression")
	ErrInvalidSize    = errors.New("invalid size specification")
	ErrInvalidType    = errors.New("invalid type token")
)

// EntryKind identifies the filesystem type of an entry.
type EntryKind uint8

const (
	// KindFile is a regular file.
	KindFile EntryKind = iota + 1
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link (never followed during a walk).
	KindSymlink
)

// String returns the single-character token for the kind, matching the
// --type flag vocabulary.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "f"
	case KindDir:
		return "d"
	case KindSymlink:
		return "s"
	default:
		return "?"
	}
}

// Entry is one visited filesystem node. It is read-only to the matcher
// layer; the walker owns it for the duration of a single visit.
type Entry struct {
	// Path is the entry path as produced by the walk (relative or absolute,
	// depending on the root the caller supplied).
	Path string
	// Name is the base name of the entry. Name predicates test this, never
	// the full path.
	Name string
	// Kind is the entry type.
	Kind EntryKind
	// Size is the byte size for regular files. Meaningless for other kinds.
	Size int64
	// Depth is the distance from the traversal root (root = 0).
	Depth int
}

// SizeCmp tags how a size predicate compares the entry size to its
// threshold.
type SizeCmp uint8

const (
	// SizeExact requires the size to equal the threshold.
	SizeExact SizeCmp = iota
	// SizeGreater requires the size to be strictly greater.
	SizeGreater
	// SizeLess requires the size to be strictly smaller.
	SizeLess
)

// matcherKind tags the closed set of predicate variants.
type matcherKind uint8

const (
	kindNameGlob matcherKind = iota + 1
	kindRegex
	kindSize
	kindType
)

// Matcher is one immutable predicate over an Entry. The zero value matches
// nothing; use the New* constructors.
type Matcher struct {
	kind matcherKind

	// name glob
	pattern  string
	foldCase bool

	// regex
	re *regexp.Regexp

	// size
	cmp   SizeCmp
	bytes int64

	// type
	entryKind EntryKind
}

// NewNameGlob creates a matcher testing the entry name against a
// shell-style glob (*, ?, character classes). Glob syntax is validated
// here so a malformed pattern fails before any traversal starts. The
// case-insensitive variant lower-cases pattern and candidate uniformly,
// independent of locale.
func NewNameGlob(pattern string, caseSensitive bool) (Matcher, error) {
	p := pattern
	if !caseSensitive {
		p = strings.ToLower(p)
	}
	if _, err := filepath.Match(p, ""); err != nil {
		return Matcher{}, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return Matcher{kind: kindNameGlob, pattern: p, foldCase: !caseSensitive}, nil
}

// NewRegex creates a matcher testing the entry base name against a regular
// expression. The match is an unanchored substring search and is
// case-sensitive unless the expression itself carries (?i).
func NewRegex(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("%w: %q", ErrInvalidRegex, expr)
	}
	return Matcher{kind: kindRegex, re: re}, nil
}

// sizeToken is the size predicate grammar: optional sign, integer, optional
// binary-unit suffix.
var sizeToken = regexp.MustCompile(`^([+-]?)([0-9]+)([BKMG]?)$`)

// NewSize parses a size predicate of the form [+|-]?<integer><unit>?, where
// the unit is B (default), K, M or G in powers of 1024. A leading + selects
// strictly-greater, a leading - strictly-less, no sign exact equality.
func NewSize(token string) (Matcher, error) {
	sub := sizeToken.FindStringSubmatch(token)
	if sub == nil {
		return Matcher{}, fmt.Errorf("%w: %q", ErrInvalidSize, token)
	}
	n, err := strconv.ParseInt(sub[2], 10, 64)
	if err != nil {
		return Matcher{}, fmt.Errorf("%w: %q", ErrInvalidSize, token)
	}
	var mult int64 = 1
	switch sub[3] {
	case "K":
		mult = 1 << 10
	case "M":
		mult = 1 << 20
	case "G":
		mult = 1 << 30
	}
	cmp := SizeExact
	switch sub[1] {
	case "+":
		cmp = SizeGreater
	case "-":
		cmp = SizeLess
	}
	return Matcher{kind: kindSize, cmp: cmp, bytes: n * mult}, nil
}

// NewType parses a single-character type token: f (file), d (directory) or
// s (symlink).
func NewType(token string) (Matcher, error) {
	var k EntryKind
	switch token {
	case "f":
		k = KindFile
	case "d":
		k = KindDir
	case "s":
		k = KindSymlink
	default:
		return Matcher{}, fmt.Errorf("%w: %q", ErrInvalidType, token)
	}
	return Matcher{kind: kindType, entryKind: k}, nil
}

// Matches reports whether e satisfies the predicate. It is pure and never
// panics. Predicates that do not apply to e's kind resolve to false: a size
// predicate tested against a directory or symlink reports false rather
// than erroring, so one odd entry never aborts a traversal.
func (m Matcher) Matches(e Entry) bool {
	switch m.kind {
	case kindNameGlob:
		name := e.Name
		if m.foldCase {
			name = strings.ToLower(name)
		}
		// Pattern syntax was validated at construction; Match cannot fail.
		ok, err := filepath.Match(m.pattern, name)
		return err == nil && ok
	case kindRegex:
		return m.re.MatchString(e.Name)
	case kindSize:
		if e.Kind != KindFile {
			return false
		}
		switch m.cmp {
		case SizeGreater:
			return e.Size > m.bytes
		case SizeLess:
			return e.Size < m.bytes
		default:
			return e.Size == m.bytes
		}
	case kindType:
		return e.Kind == m.entryKind
	default:
		return false
	}
}

// cost orders predicates for short-circuit evaluation; lower runs first.
// Type and size checks are integer comparisons, globs scan the name once,
// regexes are the most expensive.
func (m Matcher) cost() int {
	switch m.kind {
	case kindType:
		return 0
	case kindSize:
		return 1
	case kindNameGlob:
		return 2
	default:
		return 3
	}
}
