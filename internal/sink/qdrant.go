package sink

import (
	"context"
	"time"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/hash"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/qdrant"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// QdrantSink stores chunks as sparse term vectors in a Qdrant collection.
type QdrantSink struct {
	client     *qdrant.Client
	collection string
	batchSize  int
	log        *logger.Logger
}

// NewQdrantSink creates the collection when missing and returns a sink
// writing to it.
func NewQdrantSink(ctx context.Context, client *qdrant.Client, collection string, batchSize int, log *logger.Logger) (*QdrantSink, error) {
	if err := client.CreateCollection(ctx, qdrant.DefaultCollectionConfig(collection)); err != nil {
		return nil, errors.QdrantError("preparing collection", err).WithDetail("collection", collection)
	}

	if log == nil {
		log = logger.Default()
	}

	return &QdrantSink{
		client:     client,
		collection: collection,
		batchSize:  batchSize,
		log:        log.WithComponent("qdrant-sink"),
	}, nil
}

func (s *QdrantSink) Name() string { return "qdrant" }

// Write replaces the points of doc.Source with the new chunks.
func (s *QdrantSink) Write(ctx context.Context, doc Document, res *statute.Result) error {
	if err := s.client.DeletePoints(ctx, s.collection, qdrant.DeleteFilter{Source: doc.Source}); err != nil {
		return errors.QdrantError("removing previous version", err).WithDetail("source", doc.Source)
	}

	points := BuildPoints(doc, res.Chunks, time.Now())
	if err := s.client.UpsertPointsBatch(ctx, s.collection, points, s.batchSize); err != nil {
		return errors.QdrantError("upserting chunks", err).WithDetail("source", doc.Source)
	}

	s.log.Debug("upserted points", "source", doc.Source, "count", len(points))
	return nil
}

func (s *QdrantSink) Remove(ctx context.Context, source string) error {
	if err := s.client.DeletePoints(ctx, s.collection, qdrant.DeleteFilter{Source: source}); err != nil {
		return errors.QdrantError("removing chunks", err).WithDetail("source", source)
	}
	return nil
}

// Close leaves the shared client open; its owner closes it.
func (s *QdrantSink) Close() error { return nil }

// BuildPoints converts chunks into Qdrant points. Point IDs are derived from
// the document and chunk IDs, so rewriting a document overwrites its points.
func BuildPoints(doc Document, chunks []statute.Chunk, indexedAt time.Time) []qdrant.Point {
	points := make([]qdrant.Point, 0, len(chunks))
	for _, c := range chunks {
		indices, values := qdrant.SparseVector(c.Text)
		points = append(points, qdrant.Point{
			ID:            hash.PointID(doc.ID, c.ChunkID),
			SparseIndices: indices,
			SparseValues:  values,
			Payload: qdrant.ChunkPayload{
				DocumentID:     doc.ID,
				Source:         doc.Source,
				DocumentHash:   doc.Hash,
				ChunkID:        c.ChunkID,
				Text:           c.Text,
				StatuteName:    c.StatuteName,
				StatuteNumber:  c.StatuteNumber,
				Part:           c.Part,
				PartTitle:      c.PartTitle,
				Section:        c.Section,
				SectionTitle:   c.SectionTitle,
				ArticleNumber:  c.ArticleNumber,
				ArticleCaption: c.ArticleCaption,
				ClauseCount:    c.ClauseCount,
				PageNumber:     c.PageNumber,
				TokenCount:     c.TokenCount,
				IndexedAt:      indexedAt,
			},
		})
	}
	return points
}
