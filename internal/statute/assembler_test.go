package statute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPrefix(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"TÜRK CEZA KANUNU", "tck"},
		{"İKLİM KANUNU", "iklim"},
		{"TÜRK BORÇLAR KANUNU", "tbk"},
		{"VERGİ USUL KANUNU", "kanun"},
		{"İKLİM VE CEZA HÜKÜMLERİ KANUNU", "iklim"},
		{"CEZA VE BORÇLAR KANUNU", "tck"},
		{"", "kanun"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IDPrefix(tt.title))
		})
	}
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "tck_m5", ChunkID("TÜRK CEZA KANUNU", "5"))
	assert.Equal(t, "iklim_m12a", ChunkID("İKLİM KANUNU", "12A"))
	assert.Equal(t, "kanun_mek_3a", ChunkID("", "EK 3A"))
	assert.Equal(t, "tbk_m1_a", ChunkID("TÜRK BORÇLAR KANUNU", "1/A"))
}

func TestBuildChunkText(t *testing.T) {
	t.Run("caption already in body", func(t *testing.T) {
		a := &article{caption: "Amaç", fullText: "MADDE 1 - Amaç ve kapsam", current: -1}
		assert.Equal(t, "MADDE 1 - Amaç ve kapsam", buildChunkText(a))
	})

	t.Run("clauses and sub-clauses", func(t *testing.T) {
		a := &article{
			caption:  "Tanımlar",
			fullText: "MADDE 3 -",
			clauses: []clause{
				{label: "1", text: "Bu Kanunun uygulanmasında;", subClauses: []subClause{
					{letter: "a", text: "Bakanlık: Çevre Bakanlığını,"},
					{letter: "b", text: "Kurum: İklim Kurumunu,"},
				}},
				{label: "2", text: "ifade eder."},
			},
			current: 1,
		}
		assert.Equal(t,
			"Tanımlar\nMADDE 3 -\n(1) Bu Kanunun uygulanmasında;\n"+
				"  a) Bakanlık: Çevre Bakanlığını,\n  b) Kurum: İklim Kurumunu,\n(2) ifade eder.",
			buildChunkText(a))
	})
}

func TestArticle_CurrentClause(t *testing.T) {
	a := &article{current: -1}
	assert.Nil(t, a.currentClause())

	a.clauses = append(a.clauses, clause{label: "1"})
	a.current = 0
	c := a.currentClause()
	if assert.NotNil(t, c) {
		c.text = "değişti"
		assert.Equal(t, "değişti", a.clauses[0].text)
	}

	a.current = 5
	assert.Nil(t, a.currentClause())
}
