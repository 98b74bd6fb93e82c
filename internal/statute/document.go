// Package statute parses plain-text Turkish statutes into per-article chunks.
//
// A document is read line by line. Each non-empty line is classified by an
// ordered rule table (metadata, page marker, KISIM, BÖLÜM, MADDE, clause,
// sub-clause, continuation) that updates a per-run parse state. Whenever a
// new article starts, the previous one is assembled into a Chunk carrying its
// full text and structural metadata.
package statute

// Metadata describes the statute as a whole. It is collected from the header
// lines that precede the first structural marker.
type Metadata struct {
	Title         string `json:"kanun_adi"`
	Number        string `json:"kanun_no"`
	EnactmentDate string `json:"kabul_tarihi"`
	GazetteDate   string `json:"resmi_gazete_tarihi"`
	GazetteIssue  string `json:"resmi_gazete_sayi"`
}

// ChunkMetadata is the structural context of a chunk.
type ChunkMetadata struct {
	StatuteName    string `json:"kanun_adi"`
	StatuteNumber  string `json:"kanun_no"`
	Part           string `json:"kisim"`
	PartTitle      string `json:"kisim_basligi"`
	Section        string `json:"bolum"`
	SectionTitle   string `json:"bolum_basligi"`
	ArticleNumber  string `json:"madde_no"`
	ArticleCaption string `json:"madde_basligi"`
	ClauseCount    int    `json:"bent_sayisi"`
	PageNumber     int    `json:"sayfa_no"`
	ChunkID        string `json:"chunk_id"`
	TokenCount     int    `json:"token_count"`
}

// Chunk is one article rendered as self-contained text plus its metadata.
// It serializes to a single flat JSON object.
type Chunk struct {
	Text string `json:"text"`
	ChunkMetadata
}

// Map returns the chunk as a plain key/value mapping using the JSON keys.
func (c Chunk) Map() map[string]any {
	return map[string]any{
		"text":          c.Text,
		"kanun_adi":     c.StatuteName,
		"kanun_no":      c.StatuteNumber,
		"kisim":         c.Part,
		"kisim_basligi": c.PartTitle,
		"bolum":         c.Section,
		"bolum_basligi": c.SectionTitle,
		"madde_no":      c.ArticleNumber,
		"madde_basligi": c.ArticleCaption,
		"bent_sayisi":   c.ClauseCount,
		"sayfa_no":      c.PageNumber,
		"chunk_id":      c.ChunkID,
		"token_count":   c.TokenCount,
	}
}

// Diagnostic reports an input line that had no effect on the output.
type Diagnostic struct {
	Line   int    `json:"line"` // 1-based
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Diagnostic reasons.
const (
	ReasonOutsideArticle = "text outside any article"
)

// Result is the outcome of one parsing run.
type Result struct {
	Metadata    Metadata       `json:"metadata"`
	Chunks      []Chunk        `json:"chunks"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
	RuleHits    map[string]int `json:"rule_hits"`
	Lines       int            `json:"lines"`
}

// ArticleCount returns the number of emitted article chunks.
func (r *Result) ArticleCount() int {
	return len(r.Chunks)
}

// clause is a numbered "(N)" unit inside an article.
type clause struct {
	label      string
	text       string
	subClauses []subClause
}

// subClause is a lettered "x)" unit inside a clause.
type subClause struct {
	letter string
	text   string
}

// article is the in-progress MADDE. It owns its clauses; current indexes the
// clause receiving continuation lines and is -1 when there is none.
type article struct {
	number   string
	caption  string
	fullText string
	clauses  []clause
	current  int

	// context is the hierarchy the article started in.
	context hierarchy
}

// hierarchy is the part and section context of an article.
type hierarchy struct {
	part         string
	partTitle    string
	section      string
	sectionTitle string
}

func (a *article) currentClause() *clause {
	if a.current < 0 || a.current >= len(a.clauses) {
		return nil
	}
	return &a.clauses[a.current]
}
