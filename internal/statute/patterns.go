package statute

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule names a recognizer in the pattern registry.
type Rule string

// Registry rules. Metadata rules ignore case, Turkish dotted and dotless i
// included, and match anywhere on the line; structural rules are anchored at
// the start of the line.
const (
	RuleStatuteNumber Rule = "statute_number"
	RuleEnactmentDate Rule = "enactment_date"
	RuleGazette       Rule = "gazette"
	RulePart          Rule = "part"
	RuleSection       Rule = "section"
	RuleArticle       Rule = "article"
	RuleClause        Rule = "clause"
	RuleSubClause     Rule = "sub_clause"
	RulePageMarker    Rule = "page_marker"
)

// Ordinals is the ordinal vocabulary used by KISIM and BÖLÜM markers, in order.
var Ordinals = []string{
	"BİRİNCİ", "İKİNCİ", "ÜÇÜNCÜ", "DÖRDÜNCÜ", "BEŞİNCİ",
	"ALTINCI", "YEDİNCİ", "SEKİZİNCİ", "DOKUZUNCU", "ONUNCU",
}

// OrdinalValue returns the numeric value (1-10) of an ordinal word, or 0.
func OrdinalValue(word string) int {
	for i, o := range Ordinals {
		if o == word {
			return i + 1
		}
	}
	return 0
}

// Words that drive the meta section and the heading heuristics.
const (
	wordLaw     = "KANUN"
	wordNumber  = "NUMARASI"
	wordPart    = "KISIM"
	wordArticle = "MADDE"
)

// Patterns is the compiled pattern registry. It is immutable after
// construction and safe for concurrent use.
type Patterns struct {
	rules map[Rule]*regexp.Regexp

	// articleTail strips the optional dash that follows an article label.
	articleTail *regexp.Regexp
}

// NewPatterns compiles the registry.
func NewPatterns() *Patterns {
	ordinals := strings.Join(Ordinals, "|")

	return &Patterns{
		rules: map[Rule]*regexp.Regexp{
			RuleStatuteNumber: regexp.MustCompile(foldWord("kanun") + `\s+` + foldWord("numarası") + `\s*[:\-]\s*(\d+)`),
			RuleEnactmentDate: regexp.MustCompile(foldWord("kabul") + `\s+` + foldWord("tarihi") + `\s*[:\-]\s*([\d/.]+)`),
			RuleGazette:       regexp.MustCompile(foldWord("tarih") + `\s*:\s*([\d/.]+)\s+` + foldWord("sayı") + `\s*:\s*(\d+)`),
			RulePart:          regexp.MustCompile(`^(` + ordinals + `)\s+KISIM\s*$`),
			RuleSection:       regexp.MustCompile(`^(` + ordinals + `)\s+BÖLÜM\s*$`),
			RuleArticle:       regexp.MustCompile(`^(EK\s+)?MADDE\s+(\d+)(-?[A-Z])?`),
			RuleClause:        regexp.MustCompile(`^\((\d+)\)\s+(.+)`),
			RuleSubClause:     regexp.MustCompile(`^\s*([a-zçğıöşü])\)\s+(.+)`),
			RulePageMarker:    regexp.MustCompile(`(?i)^-+\s*Sayfa\s+\d+\s*-+$`),
		},
		articleTail: regexp.MustCompile(`^\s*[-–—]?\s*`),
	}
}

// foldWord returns a pattern matching word in any letter case. Go's (?i) only
// folds simple case pairs, so "TARİHİ" would not match "tarihi" and
// "NUMARASI" would not match "numarası"; all four Turkish i forms are
// treated as one letter instead.
func foldWord(word string) string {
	var b strings.Builder
	for _, r := range word {
		switch {
		case r == 'i' || r == 'ı' || r == 'I' || r == 'İ':
			b.WriteString("[iıIİ]")
		case unicode.IsLetter(r):
			b.WriteString("[" + string(unicode.ToLower(r)) + string(unicode.ToUpper(r)) + "]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Match reports whether line matches rule and returns the submatches
// (index 0 is the whole match).
func (p *Patterns) Match(rule Rule, line string) ([]string, bool) {
	re, ok := p.rules[rule]
	if !ok {
		return nil, false
	}
	m := re.FindStringSubmatch(line)
	return m, m != nil
}

// MatchString reports whether line matches rule.
func (p *Patterns) MatchString(rule Rule, line string) bool {
	re, ok := p.rules[rule]
	return ok && re.MatchString(line)
}

// ArticleMarker is a recognized MADDE line split into its parts.
type ArticleMarker struct {
	// Supplementary is true for "EK MADDE" lines.
	Supplementary bool
	// Number is the numeric part plus an optional capital letter ("12", "3A").
	Number string
	// Label is the article label used in output ("12", "EK 3A").
	Label string
	// Remainder is the line text after the marker and its optional dash.
	Remainder string
}

// MatchArticle recognizes an article marker at the start of line. A letter
// after the number belongs to the label only when it is not the first letter
// of a word, so "MADDE 3-A" is article 3A while "MADDE 5-Bu" is article 5.
// This also applies without a dash: "MADDE 5Bu metin" is article 5 and
// "MADDE 12ABC" is article 12, where a plain `\d+[A-Z]?` label would give
// "5B" and "12A".
func (p *Patterns) MatchArticle(line string) (ArticleMarker, bool) {
	loc := p.rules[RuleArticle].FindStringSubmatchIndex(line)
	if loc == nil {
		return ArticleMarker{}, false
	}

	end := loc[1]
	number := line[loc[4]:loc[5]]
	if loc[6] >= 0 {
		if next := line[loc[7]:]; next == "" || !startsWithLetter(next) {
			number += strings.TrimPrefix(line[loc[6]:loc[7]], "-")
		} else {
			end = loc[5]
		}
	}

	ek := ""
	if loc[2] >= 0 {
		ek = "EK "
	}

	rest := line[end:]
	rest = rest[len(p.articleTail.FindString(rest)):]

	return ArticleMarker{
		Supplementary: ek != "",
		Number:        number,
		Label:         strings.TrimSpace(ek + number),
		Remainder:     strings.TrimSpace(rest),
	}, true
}
