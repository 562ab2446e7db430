package matcher

import "sort"

// Criteria is the full predicate set plus the depth bound for one walk.
// It is immutable after construction and combines its matchers with AND
// semantics.
type Criteria struct {
	matchers []Matcher
	maxDepth int
}

// NewCriteria builds a Criteria from a matcher list and a depth bound.
// A negative maxDepth means unbounded. The matchers are stably reordered
// so cheap predicates (type, size) are evaluated before pattern matchers;
// since matchers are pure, ordering cannot change the outcome.
func NewCriteria(matchers []Matcher, maxDepth int) Criteria {
	ms := make([]Matcher, len(matchers))
	copy(ms, matchers)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].cost() < ms[j].cost() })
	return Criteria{matchers: ms, maxDepth: maxDepth}
}

// MaxDepth returns the depth bound. Negative means unbounded.
func (c Criteria) MaxDepth() int { return c.maxDepth }

// Matches reports whether e satisfies every matcher, short-circuiting on
// the first failure. The empty matcher set matches every entry.
func (c Criteria) Matches(e Entry) bool {
	for _, m := range c.matchers {
		if !m.Matches(e) {
			return false
		}
	}
	return true
}
