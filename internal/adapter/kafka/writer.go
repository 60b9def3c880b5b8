package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/weather-normalise-service/internal/config"
	"github.com/couchcryptid/weather-normalise-service/internal/observability"
	"github.com/couchcryptid/weather-normalise-service/internal/pipeline"
)

// messageWriter is the subset of *kafkago.Writer the Writer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces canonical observations to a Kafka topic behind a circuit
// breaker. It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newWriter(w, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, clock, metrics, logger)
}

func newWriter(mw messageWriter, maxFailures uint32, openTimeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-sink",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(float64(to))
		},
	})
	return &Writer{writer: mw, breaker: cb, clock: clock, logger: logger}
}

// LoadBatch publishes the batch in a single WriteMessages call. While the
// breaker is open it fails fast with gobreaker.ErrOpenState.
func (w *Writer) LoadBatch(ctx context.Context, msgs []pipeline.OutputMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	processedAt := w.clock.Now()
	out := make([]kafkago.Message, len(msgs))
	for i := range msgs {
		out[i] = serializeToMessage(msgs[i], processedAt)
	}

	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.writer.WriteMessages(ctx, out...)
	})
	if err != nil {
		return fmt.Errorf("write %d messages: %w", len(out), err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage wraps an encoded observation in a Kafka message.
func serializeToMessage(msg pipeline.OutputMessage, processedAt time.Time) kafkago.Message {
	return kafkago.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(msg.Source)},
			{Key: "processed_at", Value: []byte(processedAt.UTC().Format(time.RFC3339))},
		},
	}
}
