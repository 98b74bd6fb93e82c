package sink

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	URL    string
	Prefix string
	// TTL expires every written key; zero keeps them forever.
	TTL time.Duration
}

// RedisSink stores chunks in Redis. For a document with ID d it writes:
//
//	<prefix>chunk:<d>:<chunk_id>  chunk JSON
//	<prefix>doc:<d>:chunks        list of chunk IDs in document order
//	<prefix>doc:<d>               hash of statute metadata
//	<prefix>source:<path>         the current document ID of a source
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisSink, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "parsing redis URL", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.RedisError("connecting to redis", err)
	}

	if log == nil {
		log = logger.Default()
	}

	return &RedisSink{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		log:    log.WithComponent("redis-sink"),
	}, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) chunkKey(docID, chunkID string) string {
	return s.prefix + "chunk:" + docID + ":" + chunkID
}

func (s *RedisSink) listKey(docID string) string {
	return s.prefix + "doc:" + docID + ":chunks"
}

func (s *RedisSink) docKey(docID string) string {
	return s.prefix + "doc:" + docID
}

func (s *RedisSink) sourceKey(source string) string {
	return s.prefix + "source:" + source
}

// Write stores every chunk and the document metadata in one pipeline. A
// previous version of the same source is removed first.
func (s *RedisSink) Write(ctx context.Context, doc Document, res *statute.Result) error {
	prev, err := s.client.Get(ctx, s.sourceKey(doc.Source)).Result()
	if err != nil && err != redis.Nil {
		return errors.RedisError("looking up previous version", err)
	}
	if prev != "" && prev != doc.ID {
		if err := s.removeDocument(ctx, prev); err != nil {
			return err
		}
	}

	pipe := s.client.TxPipeline()

	listKey := s.listKey(doc.ID)
	pipe.Del(ctx, listKey)

	ids := make([]any, 0, len(res.Chunks))
	for _, c := range res.Chunks {
		data, err := json.Marshal(c)
		if err != nil {
			return errors.InternalError("encoding chunk", err)
		}
		pipe.Set(ctx, s.chunkKey(doc.ID, c.ChunkID), data, s.ttl)
		ids = append(ids, c.ChunkID)
	}
	if len(ids) > 0 {
		pipe.RPush(ctx, listKey, ids...)
	}

	docKey := s.docKey(doc.ID)
	pipe.HSet(ctx, docKey, map[string]any{
		"source":              doc.Source,
		"document_hash":       doc.Hash,
		"kanun_adi":           res.Metadata.Title,
		"kanun_no":            res.Metadata.Number,
		"kabul_tarihi":        res.Metadata.EnactmentDate,
		"resmi_gazete_tarihi": res.Metadata.GazetteDate,
		"resmi_gazete_sayi":   res.Metadata.GazetteIssue,
		"chunk_count":         strconv.Itoa(len(res.Chunks)),
		"indexed_at":          time.Now().UTC().Format(time.RFC3339),
	})
	pipe.Set(ctx, s.sourceKey(doc.Source), doc.ID, s.ttl)

	if s.ttl > 0 {
		pipe.Expire(ctx, listKey, s.ttl)
		pipe.Expire(ctx, docKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.RedisError("saving chunks", err).WithDetail("source", doc.Source)
	}

	s.log.Debug("stored chunks", "source", doc.Source, "count", len(res.Chunks))
	return nil
}

// Remove deletes the current version of source.
func (s *RedisSink) Remove(ctx context.Context, source string) error {
	docID, err := s.client.Get(ctx, s.sourceKey(source)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return errors.RedisError("looking up source", err)
	}

	if err := s.removeDocument(ctx, docID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.sourceKey(source)).Err(); err != nil {
		return errors.RedisError("removing source", err)
	}
	return nil
}

func (s *RedisSink) removeDocument(ctx context.Context, docID string) error {
	chunkIDs, err := s.client.LRange(ctx, s.listKey(docID), 0, -1).Result()
	if err != nil {
		return errors.RedisError("listing chunks", err)
	}

	keys := make([]string, 0, len(chunkIDs)+2)
	for _, id := range chunkIDs {
		keys = append(keys, s.chunkKey(docID, id))
	}
	keys = append(keys, s.listKey(docID), s.docKey(docID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.RedisError("removing chunks", err)
	}
	return nil
}

// Chunks loads the stored chunks of the current version of source in
// document order.
func (s *RedisSink) Chunks(ctx context.Context, source string) ([]statute.Chunk, error) {
	docID, err := s.client.Get(ctx, s.sourceKey(source)).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundError("source " + source)
	}
	if err != nil {
		return nil, errors.RedisError("looking up source", err)
	}

	ids, err := s.client.LRange(ctx, s.listKey(docID), 0, -1).Result()
	if err != nil {
		return nil, errors.RedisError("listing chunks", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.chunkKey(docID, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.RedisError("loading chunks", err)
	}

	chunks := make([]statute.Chunk, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var c statute.Chunk
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			return nil, errors.Wrap(errors.CodeValidation, "decoding stored chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
