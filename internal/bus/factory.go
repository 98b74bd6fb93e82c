package bus

import (
	"fmt"
	"strings"

	"github.com/mevzuatgpt/mevzuat/internal/config"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
)

// NewBus creates a new Bus instance based on the configuration. When an event
// log path is configured the bus is wrapped in a LoggedBus.
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	inner, err := newInnerBus(cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.EventLog == "" {
		return inner, nil
	}

	eventLogger, err := NewEventLogger(cfg.EventLog)
	if err != nil {
		inner.Close()
		return nil, errors.Wrap(errors.CodeIO, "opening bus event log", err)
	}
	return NewLoggedBus(inner, eventLogger, log), nil
}

func newInnerBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(log), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		consumerGroup := cfg.KafkaGroup
		if consumerGroup == "" {
			consumerGroup = "mevzuat"
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: consumerGroup,
			ClientID:      "mevzuat-bus",
		}, log)

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
