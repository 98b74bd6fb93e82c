package statute

import (
	"strings"
	"unicode/utf8"
)

// maxTitleLength bounds the statute title heuristic, in runes.
const maxTitleLength = 100

// handleMeta consumes statute header lines while the meta section is open.
// A line mentioning KISIM or MADDE closes the meta section without being
// consumed, so it still reaches the structural rules.
func (r *run) handleMeta(line string, _ int) bool {
	st := r.st
	if !st.inMeta {
		return false
	}

	if st.meta.Title == "" && isUpper(line) && utf8.RuneCountInString(line) < maxTitleLength &&
		strings.Contains(line, wordLaw) && !strings.Contains(line, wordNumber) {
		st.meta.Title = line
		return true
	}

	if m, ok := r.patterns.Match(RuleStatuteNumber, line); ok {
		st.meta.Number = m[1]
		return true
	}

	if m, ok := r.patterns.Match(RuleEnactmentDate, line); ok {
		st.meta.EnactmentDate = m[1]
		return true
	}

	if m, ok := r.patterns.Match(RuleGazette, line); ok {
		st.meta.GazetteDate = m[1]
		st.meta.GazetteIssue = m[2]
		return true
	}

	if strings.Contains(line, wordPart) || strings.Contains(line, wordArticle) {
		st.endMeta()
	}
	return false
}

func (r *run) handlePageMarker(line string, _ int) bool {
	return r.patterns.MatchString(RulePageMarker, line)
}

// handlePart records a KISIM marker. The line right after it is taken as the
// part title unless it is empty or a BÖLÜM marker.
func (r *run) handlePart(line string, idx int) bool {
	if !r.patterns.MatchString(RulePart, line) {
		return false
	}

	r.st.endMeta()
	r.st.part = line
	if next, ok := r.nextLine(idx); ok && next != "" && !r.patterns.MatchString(RuleSection, next) {
		r.st.partTitle = next
		r.markHeading(idx + 1)
	}
	return true
}

// handleSection records a BÖLÜM marker. The line right after it is taken as
// the section title unless it is empty or mentions MADDE.
func (r *run) handleSection(line string, idx int) bool {
	if !r.patterns.MatchString(RuleSection, line) {
		return false
	}

	r.st.endMeta()
	r.st.section = line
	if next, ok := r.nextLine(idx); ok && next != "" && !strings.Contains(next, wordArticle) {
		r.st.sectionTitle = next
		r.markHeading(idx + 1)
	}
	return true
}

// handleArticle closes the article in progress and opens a new one. The
// previous non-empty line becomes the caption. A clause that starts on the
// marker line itself is parsed as well.
func (r *run) handleArticle(line string, _ int) bool {
	marker, ok := r.patterns.MatchArticle(line)
	if !ok {
		return false
	}

	r.st.endMeta()
	r.saveArticle()

	caption := r.st.previousLine
	if r.opts.StrictHierarchy && !looksLikeCaption(caption) {
		caption = ""
	}

	r.st.article = &article{
		number:   marker.Label,
		caption:  caption,
		fullText: line,
		current:  -1,
		context:  r.st.hierarchy,
	}

	if marker.Remainder != "" && r.patterns.MatchString(RuleClause, marker.Remainder) {
		r.startClause(marker.Remainder)
	}
	return true
}

// handleHeading swallows title lines in strict mode: part and section titles
// already recorded through lookahead, and caption lines directly followed by
// an article marker. Neither belongs to the previous article's text.
func (r *run) handleHeading(line string, idx int) bool {
	if !r.opts.StrictHierarchy {
		return false
	}

	if r.st.headingLine == idx {
		r.st.headingLine = -1
		return true
	}

	if !looksLikeCaption(line) ||
		r.patterns.MatchString(RuleClause, line) || r.patterns.MatchString(RuleSubClause, line) {
		return false
	}
	return r.precedesArticle(idx)
}

// precedesArticle reports whether the next non-empty line after idx, page
// markers aside, is an article marker.
func (r *run) precedesArticle(idx int) bool {
	for _, raw := range r.lines[idx+1:] {
		next := strings.TrimSpace(raw)
		if next == "" || r.patterns.MatchString(RulePageMarker, next) {
			continue
		}
		_, ok := r.patterns.MatchArticle(next)
		return ok
	}
	return false
}

func (r *run) handleClause(line string, _ int) bool {
	if r.st.article == nil {
		return false
	}
	return r.startClause(line)
}

func (r *run) startClause(line string) bool {
	m, ok := r.patterns.Match(RuleClause, line)
	if !ok {
		return false
	}

	a := r.st.article
	a.clauses = append(a.clauses, clause{label: m[1], text: m[2]})
	a.current = len(a.clauses) - 1
	return true
}

func (r *run) handleSubClause(line string, _ int) bool {
	a := r.st.article
	if a == nil {
		return false
	}
	c := a.currentClause()
	if c == nil {
		return false
	}

	m, ok := r.patterns.Match(RuleSubClause, line)
	if !ok {
		return false
	}
	c.subClauses = append(c.subClauses, subClause{letter: m[1], text: m[2]})
	return true
}

// appendContinuation adds line to the current clause, or to the article body
// when no clause is open. Lines outside any article are dropped.
func (r *run) appendContinuation(line string, idx int) {
	a := r.st.article
	if a == nil {
		r.st.diagnostics = append(r.st.diagnostics, Diagnostic{
			Line:   idx + 1,
			Text:   line,
			Reason: ReasonOutsideArticle,
		})
		return
	}

	if c := a.currentClause(); c != nil {
		c.text = appendText(c.text, line)
		return
	}
	a.fullText = appendText(a.fullText, line)
}

// markHeading remembers a lookahead title line. Lines that are themselves
// structural markers are never swallowed.
func (r *run) markHeading(idx int) {
	next := strings.TrimSpace(r.lines[idx])
	if r.patterns.MatchString(RulePart, next) || r.patterns.MatchString(RuleSection, next) {
		return
	}
	if _, ok := r.patterns.MatchArticle(next); ok {
		return
	}
	r.st.headingLine = idx
}
