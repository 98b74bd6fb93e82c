// Package qdrant wraps the Qdrant Go client with the operations needed to
// store statute chunks as sparse term vectors and query them lexically.
package qdrant

import (
	"time"
)

// SparseVectorName is the named sparse vector holding chunk term weights.
const SparseVectorName = "terms"

// CollectionConfig defines the configuration for creating a Qdrant collection.
type CollectionConfig struct {
	// Name is the collection name (will be prefixed).
	Name string

	// OnDiskPayload stores payload on disk to save RAM.
	OnDiskPayload bool

	// FullScanThreshold is the posting list size below which sparse search
	// scans instead of using the index.
	FullScanThreshold uint64
}

// DefaultCollectionConfig returns sensible defaults for a statute collection.
func DefaultCollectionConfig(name string) CollectionConfig {
	return CollectionConfig{
		Name:              name,
		OnDiskPayload:     true,
		FullScanThreshold: 5000,
	}
}

// Point represents a point to upsert into Qdrant.
type Point struct {
	// ID is a UUID string.
	ID string

	// SparseIndices are the term IDs.
	SparseIndices []uint32

	// SparseValues are the term weights.
	SparseValues []float32

	Payload ChunkPayload
}

// ChunkPayload is the stored form of one article chunk.
type ChunkPayload struct {
	DocumentID     string    `json:"document_id"`
	Source         string    `json:"source"`
	DocumentHash   string    `json:"document_hash"`
	ChunkID        string    `json:"chunk_id"`
	Text           string    `json:"text"`
	StatuteName    string    `json:"kanun_adi"`
	StatuteNumber  string    `json:"kanun_no"`
	Part           string    `json:"kisim"`
	PartTitle      string    `json:"kisim_basligi"`
	Section        string    `json:"bolum"`
	SectionTitle   string    `json:"bolum_basligi"`
	ArticleNumber  string    `json:"madde_no"`
	ArticleCaption string    `json:"madde_basligi"`
	ClauseCount    int       `json:"bent_sayisi"`
	PageNumber     int       `json:"sayfa_no"`
	TokenCount     int       `json:"token_count"`
	IndexedAt      time.Time `json:"indexed_at"`
}

// SearchRequest defines parameters for a sparse search.
type SearchRequest struct {
	SparseIndices []uint32
	SparseValues  []float32

	// Limit is the maximum number of results to return.
	Limit uint64

	Filter *SearchFilter

	WithPayload bool

	// ScoreThreshold filters results below this score.
	ScoreThreshold *float32
}

// SearchFilter narrows searches and counts. Empty fields are ignored.
type SearchFilter struct {
	DocumentID    string
	StatuteNumber string
	ArticleNumber string
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID      string       `json:"id"`
	Score   float32      `json:"score"`
	Payload ChunkPayload `json:"payload"`
}

// DeleteFilter defines conditions for deleting points.
type DeleteFilter struct {
	// IDs deletes specific point IDs.
	IDs []string

	// DocumentID deletes every chunk of one document.
	DocumentID string

	// Source deletes every chunk read from this path.
	Source string
}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	// Name is the collection name (without prefix).
	Name string

	PointsCount   uint64
	Status        string
	SegmentsCount uint64
}
