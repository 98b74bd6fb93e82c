package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// UpsertPoints inserts or updates points in a collection.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	if len(points) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, pointToQdrant(p))
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collectionName(collection),
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// UpsertPointsBatch upserts points in batches of batchSize.
func (c *Client) UpsertPointsBatch(ctx context.Context, collection string, points []Point, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	for i := 0; i < len(points); i += batchSize {
		end := min(i+batchSize, len(points))
		if err := c.UpsertPoints(ctx, collection, points[i:end]); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeletePoints deletes points by ID or by filter.
func (c *Client) DeletePoints(ctx context.Context, collection string, filter DeleteFilter) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	selector, err := buildPointsSelector(filter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	_, err = c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collectionName(collection),
		Points:         selector,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}

	return nil
}

func buildPointsSelector(filter DeleteFilter) (*qdrant.PointsSelector, error) {
	if len(filter.IDs) > 0 {
		pointIDs := make([]*qdrant.PointId, len(filter.IDs))
		for i, id := range filter.IDs {
			pointIDs[i] = qdrant.NewIDUUID(id)
		}
		return &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		}, nil
	}

	f := buildDeleteFilter(filter)
	if f == nil {
		return nil, fmt.Errorf("no valid delete criteria specified")
	}
	return &qdrant.PointsSelector{
		PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: f},
	}, nil
}

// CountPoints returns the number of points matching the filter.
func (c *Client) CountPoints(ctx context.Context, collection string, filter *SearchFilter) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	countReq := &qdrant.CountPoints{
		CollectionName: c.collectionName(collection),
		Exact:          qdrant.PtrOf(true),
		Filter:         buildSearchFilter(filter),
	}

	count, err := c.client.Count(ctx, countReq)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}

	return count, nil
}

// GetChunksByDocument retrieves every stored chunk of one document.
func (c *Client) GetChunksByDocument(ctx context.Context, collection, documentID string) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeyword("document_id", documentID)},
	}

	var results []SearchResult
	var offset *qdrant.PointId
	const batchSize = 100

	for {
		points, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: c.collectionName(collection),
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(batchSize)),
			WithPayload:    qdrant.NewWithPayload(true),
			Offset:         offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}

		for _, p := range points {
			results = append(results, SearchResult{
				ID:      pointIDString(p.Id),
				Payload: extractPayload(p.Payload),
			})
		}

		if len(points) < batchSize {
			break
		}
		offset = points[len(points)-1].Id
	}

	return results, nil
}

// pointToQdrant converts a Point to a Qdrant PointStruct.
func pointToQdrant(p Point) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id: qdrant.NewIDUUID(p.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			SparseVectorName: qdrant.NewVectorSparse(p.SparseIndices, p.SparseValues),
		}),
		Payload: qdrant.NewValueMap(payloadMap(p.Payload)),
	}
}

func payloadMap(p ChunkPayload) map[string]any {
	return map[string]any{
		"document_id":   p.DocumentID,
		"source":        p.Source,
		"document_hash": p.DocumentHash,
		"chunk_id":      p.ChunkID,
		"text":          p.Text,
		"kanun_adi":     p.StatuteName,
		"kanun_no":      p.StatuteNumber,
		"kisim":         p.Part,
		"kisim_basligi": p.PartTitle,
		"bolum":         p.Section,
		"bolum_basligi": p.SectionTitle,
		"madde_no":      p.ArticleNumber,
		"madde_basligi": p.ArticleCaption,
		"bent_sayisi":   p.ClauseCount,
		"sayfa_no":      p.PageNumber,
		"token_count":   p.TokenCount,
		"indexed_at":    p.IndexedAt.UTC().Format(time.RFC3339),
	}
}

// buildDeleteFilter builds a Qdrant filter from DeleteFilter.
func buildDeleteFilter(f DeleteFilter) *qdrant.Filter {
	var conditions []*qdrant.Condition

	if f.DocumentID != "" {
		conditions = append(conditions, qdrant.NewMatchKeyword("document_id", f.DocumentID))
	}

	if f.Source != "" {
		conditions = append(conditions, qdrant.NewMatchKeyword("source", f.Source))
	}

	if len(conditions) == 0 {
		return nil
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}
