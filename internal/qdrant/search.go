package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// SparseSearch ranks chunks by their term vectors.
func (c *Client) SparseSearch(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}

	if len(req.SparseIndices) == 0 || len(req.SparseValues) == 0 {
		return nil, fmt.Errorf("sparse indices and values are required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	limit := req.Limit
	if limit == 0 {
		limit = 10
	}

	queryPoints := &qdrant.QueryPoints{
		CollectionName: c.collectionName(collection),
		Query:          qdrant.NewQuerySparse(req.SparseIndices, req.SparseValues),
		Using:          qdrant.PtrOf(SparseVectorName),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(req.WithPayload),
		Filter:         buildSearchFilter(req.Filter),
	}

	if req.ScoreThreshold != nil {
		queryPoints.ScoreThreshold = req.ScoreThreshold
	}

	results, err := c.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("sparse search failed: %w", err)
	}

	return scoredPointsToResults(results), nil
}

// buildSearchFilter builds a Qdrant filter from SearchFilter.
func buildSearchFilter(f *SearchFilter) *qdrant.Filter {
	if f == nil {
		return nil
	}

	var conditions []*qdrant.Condition

	if f.DocumentID != "" {
		conditions = append(conditions, qdrant.NewMatchKeyword("document_id", f.DocumentID))
	}

	if f.StatuteNumber != "" {
		conditions = append(conditions, qdrant.NewMatchKeyword("kanun_no", f.StatuteNumber))
	}

	if f.ArticleNumber != "" {
		conditions = append(conditions, qdrant.NewMatchKeyword("madde_no", f.ArticleNumber))
	}

	if len(conditions) == 0 {
		return nil
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}

func scoredPointsToResults(points []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, SearchResult{
			ID:      pointIDString(p.Id),
			Score:   p.Score,
			Payload: extractPayload(p.Payload),
		})
	}
	return results
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	}
	return ""
}

// extractPayload rebuilds a ChunkPayload from a Qdrant payload map.
func extractPayload(payload map[string]*qdrant.Value) ChunkPayload {
	result := ChunkPayload{
		DocumentID:     getStringValue(payload, "document_id"),
		Source:         getStringValue(payload, "source"),
		DocumentHash:   getStringValue(payload, "document_hash"),
		ChunkID:        getStringValue(payload, "chunk_id"),
		Text:           getStringValue(payload, "text"),
		StatuteName:    getStringValue(payload, "kanun_adi"),
		StatuteNumber:  getStringValue(payload, "kanun_no"),
		Part:           getStringValue(payload, "kisim"),
		PartTitle:      getStringValue(payload, "kisim_basligi"),
		Section:        getStringValue(payload, "bolum"),
		SectionTitle:   getStringValue(payload, "bolum_basligi"),
		ArticleNumber:  getStringValue(payload, "madde_no"),
		ArticleCaption: getStringValue(payload, "madde_basligi"),
		ClauseCount:    getIntValue(payload, "bent_sayisi"),
		PageNumber:     getIntValue(payload, "sayfa_no"),
		TokenCount:     getIntValue(payload, "token_count"),
	}

	if v := getStringValue(payload, "indexed_at"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			result.IndexedAt = t
		}
	}

	return result
}

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return sv.StringValue
		}
	}
	return ""
}

func getIntValue(payload map[string]*qdrant.Value, key string) int {
	if v, ok := payload[key]; ok {
		if iv, ok := v.Kind.(*qdrant.Value_IntegerValue); ok {
			return int(iv.IntegerValue)
		}
	}
	return 0
}
