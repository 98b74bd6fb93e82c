package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/security"
	"github.com/mevzuatgpt/mevzuat/internal/qdrant"
)

// snippetLength is the number of runes of chunk text shown per text result.
const snippetLength = 160

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed articles by keyword",
		Long: `Rank the articles stored in Qdrant by term overlap with the query.

Terms are lower-cased with Turkish casing rules, so "İHTİYATİ" matches
"ihtiyati" and "IRMAK" matches "ırmak".

Examples:
  mevzuat search "kanunilik ilkesi"
  mevzuat search --kanun-no 5237 --limit 5 "hapis cezası"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().Uint64P("limit", "n", security.DefaultLimit, "maximum number of results")
	cmd.Flags().String("kanun-no", "", "only search the statute with this number")
	cmd.Flags().String("madde-no", "", "only return articles with this number")
	cmd.Flags().Float32("min-score", 0, "drop results scoring below this")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.flushMetrics()

	limit, _ := cmd.Flags().GetUint64("limit")
	statuteNo, _ := cmd.Flags().GetString("kanun-no")
	articleNo, _ := cmd.Flags().GetString("madde-no")
	minScore, _ := cmd.Flags().GetFloat32("min-score")

	query := security.SanitizeQuery(strings.Join(args, " "))
	if err := security.ValidateQuery(query); err != nil {
		return errors.ValidationError(err.Error())
	}
	if err := security.ValidateLimit(limit); err != nil {
		return errors.ValidationError(err.Error())
	}

	indices, values := qdrant.SparseVector(query)
	if len(indices) == 0 {
		return errors.ValidationError("query has no searchable terms")
	}

	ctx := cmd.Context()
	client, err := a.qdrantClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	req := qdrant.SearchRequest{
		SparseIndices: indices,
		SparseValues:  values,
		Limit:         limit,
		WithPayload:   true,
	}
	if statuteNo != "" || articleNo != "" {
		req.Filter = &qdrant.SearchFilter{StatuteNumber: statuteNo, ArticleNumber: articleNo}
	}
	if minScore > 0 {
		req.ScoreThreshold = &minScore
	}

	start := time.Now()
	results, err := client.SparseSearch(ctx, a.cfg.Qdrant.Collection, req)
	if a.metrics != nil {
		a.metrics.RecordSearch(time.Since(start), len(results), err)
	}
	if err != nil {
		return errors.QdrantError("searching chunks", err)
	}

	a.log.Debug("search complete", "query", security.SanitizeForLog(query), "results", len(results), "duration", time.Since(start).String())

	out := cmd.OutOrStdout()
	if a.format == "json" {
		if results == nil {
			results = []qdrant.SearchResult{}
		}
		return writeJSON(out, results)
	}
	printSearchResults(out, results)
	return nil
}

func printSearchResults(w io.Writer, results []qdrant.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}

	for i, r := range results {
		p := r.Payload
		fmt.Fprintf(w, "%2d. [%.3f] %s  MADDE %s", i+1, r.Score, p.ChunkID, p.ArticleNumber)
		if p.ArticleCaption != "" {
			fmt.Fprintf(w, " - %s", p.ArticleCaption)
		}
		fmt.Fprintln(w)
		if p.StatuteName != "" {
			fmt.Fprintf(w, "    %s", p.StatuteName)
			if p.StatuteNumber != "" {
				fmt.Fprintf(w, " (%s)", p.StatuteNumber)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "    %s\n", snippet(p.Text, snippetLength))
	}
}

// snippet flattens text to one line and cuts it to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
