package statute

// state is the mutable context of a single parsing run. It is created fresh
// for every run and never shared between runs.
type state struct {
	meta Metadata

	hierarchy

	article *article
	chunks  []Chunk

	// page stays at 1: page markers are discarded, not counted.
	page int

	previousLine string
	inMeta       bool

	// headingLine is the index of a title line already consumed through
	// lookahead, or -1.
	headingLine int

	diagnostics []Diagnostic
	ruleHits    map[string]int
}

func newState() *state {
	return &state{
		page:        1,
		inMeta:      true,
		headingLine: -1,
		ruleHits:    make(map[string]int),
	}
}

// endMeta closes the meta section. It never reopens.
func (s *state) endMeta() {
	s.inMeta = false
}
