package sink

import (
	"context"

	"github.com/mevzuatgpt/mevzuat/internal/bus"
	"github.com/mevzuatgpt/mevzuat/internal/config"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/qdrant"
)

// Deps are shared clients owned by the caller.
type Deps struct {
	Bus    bus.Bus
	Qdrant *qdrant.Client
	Log    *logger.Logger
}

// New builds the sinks enabled in cfg.Output.Sinks, in that order. Sinks
// created before a failure are closed.
func New(ctx context.Context, cfg *config.Config, deps Deps) (Multi, error) {
	var sinks Multi

	fail := func(err error) (Multi, error) {
		sinks.Close()
		return nil, err
	}

	for _, name := range cfg.Output.Sinks {
		switch name {
		case config.SinkJSON:
			sinks = append(sinks, NewJSONSink(cfg.Output.Dir, deps.Log))

		case config.SinkRedis:
			rs, err := NewRedisSink(ctx, RedisConfig{
				URL:    cfg.Redis.URL,
				Prefix: cfg.Redis.KeyPrefix,
				TTL:    cfg.RedisTTL(),
			}, deps.Log)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, rs)

		case config.SinkQdrant:
			if deps.Qdrant == nil {
				return fail(errors.ValidationError("qdrant sink requires a qdrant client"))
			}
			qs, err := NewQdrantSink(ctx, deps.Qdrant, cfg.Qdrant.Collection, cfg.Index.BatchSize, deps.Log)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, qs)

		case config.SinkBus:
			if deps.Bus == nil {
				return fail(errors.ValidationError("bus sink requires an event bus"))
			}
			sinks = append(sinks, NewBusSink(deps.Bus))

		default:
			return fail(errors.ValidationError("unknown sink: " + name))
		}
	}

	return sinks, nil
}
