package statute

import "strings"

// Classes reported for lines that are not matched by a registry pattern.
const (
	RuleMeta         Rule = "meta"
	RuleHeading      Rule = "heading"
	RuleContinuation Rule = "continuation"
)

// handler applies one classification rule to a stripped, non-empty line and
// reports whether it consumed the line.
type handler func(r *run, line string, idx int) bool

type rule struct {
	name   Rule
	handle handler
}

// rules is the dispatch order. The first handler that consumes a line wins;
// lines nobody consumes become continuation text.
var rules = []rule{
	{RuleMeta, (*run).handleMeta},
	{RulePageMarker, (*run).handlePageMarker},
	{RulePart, (*run).handlePart},
	{RuleSection, (*run).handleSection},
	{RuleArticle, (*run).handleArticle},
	{RuleHeading, (*run).handleHeading},
	{RuleClause, (*run).handleClause},
	{RuleSubClause, (*run).handleSubClause},
}

// run is a single parsing pass over one document.
type run struct {
	patterns *Patterns
	opts     Options
	st       *state
	lines    []string
}

// classify dispatches line and returns the rule that consumed it.
func (r *run) classify(line string, idx int) Rule {
	for _, rl := range rules {
		if rl.handle(r, line, idx) {
			return rl.name
		}
	}
	r.appendContinuation(line, idx)
	return RuleContinuation
}

// nextLine returns the stripped raw line after idx, if there is one.
func (r *run) nextLine(idx int) (string, bool) {
	if idx+1 >= len(r.lines) {
		return "", false
	}
	return strings.TrimSpace(r.lines[idx+1]), true
}
