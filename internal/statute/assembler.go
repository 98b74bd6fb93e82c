package statute

import (
	"fmt"
	"strings"
)

// idPrefixes maps statute title keywords to chunk id prefixes. Order matters:
// the first keyword found in the title wins.
var idPrefixes = []struct {
	keyword string
	prefix  string
}{
	{"İKLİM", "iklim"},
	{"CEZA", "tck"},
	{"BORÇLAR", "tbk"},
}

// FallbackIDPrefix is used when no keyword matches the statute title.
const FallbackIDPrefix = "kanun"

// IDPrefix derives the chunk id prefix from a statute title. This is keyword
// sniffing on free text: titles matching several keywords take the first one
// and titles matching none fall back to FallbackIDPrefix.
func IDPrefix(title string) string {
	for _, p := range idPrefixes {
		if strings.Contains(title, p.keyword) {
			return p.prefix
		}
	}
	return FallbackIDPrefix
}

var labelReplacer = strings.NewReplacer("/", "_", " ", "_")

// ChunkID builds the identifier of an article chunk, e.g. "tck_m5" or
// "kanun_mek_3a".
func ChunkID(title, articleNumber string) string {
	return IDPrefix(title) + "_m" + strings.ToLower(labelReplacer.Replace(articleNumber))
}

// saveArticle turns the article in progress into a chunk and clears it.
func (r *run) saveArticle() {
	st := r.st
	a := st.article
	if a == nil {
		return
	}

	ctx := st.hierarchy
	if r.opts.StrictHierarchy {
		ctx = a.context
	}

	text := buildChunkText(a)
	st.chunks = append(st.chunks, Chunk{
		Text: text,
		ChunkMetadata: ChunkMetadata{
			StatuteName:    st.meta.Title,
			StatuteNumber:  st.meta.Number,
			Part:           ctx.part,
			PartTitle:      ctx.partTitle,
			Section:        ctx.section,
			SectionTitle:   ctx.sectionTitle,
			ArticleNumber:  a.number,
			ArticleCaption: a.caption,
			ClauseCount:    len(a.clauses),
			PageNumber:     st.page,
			ChunkID:        ChunkID(st.meta.Title, a.number),
			TokenCount:     wordCount(text),
		},
	})

	st.article = nil
}

// buildChunkText renders caption, article body, clauses and sub-clauses as
// newline separated text. The caption is skipped when the body already
// contains it.
func buildChunkText(a *article) string {
	lines := make([]string, 0, 2+len(a.clauses))

	if a.caption != "" && !strings.Contains(a.fullText, a.caption) {
		lines = append(lines, a.caption)
	}
	lines = append(lines, a.fullText)

	for _, c := range a.clauses {
		lines = append(lines, fmt.Sprintf("(%s) %s", c.label, c.text))
		for _, sc := range c.subClauses {
			lines = append(lines, fmt.Sprintf("  %s) %s", sc.letter, sc.text))
		}
	}

	return strings.Join(lines, "\n")
}
