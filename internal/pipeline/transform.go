package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-normalise-service/internal/codec"
	"github.com/couchcryptid/weather-normalise-service/internal/domain"
	"github.com/couchcryptid/weather-normalise-service/internal/observability"
)

// sourceHeader names the message header producers may use instead of a
// "source" field in the payload.
const sourceHeader = "source"

// ObservationTransformer implements Transformer by decoding the payload,
// normalising it, and encoding the canonical result.
type ObservationTransformer struct {
	decoder *codec.Decoder
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates an ObservationTransformer.
func NewTransformer(decoder *codec.Decoder, metrics *observability.Metrics, logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{
		decoder: decoder,
		metrics: metrics,
		logger:  logger,
	}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw RawMessage) (OutputMessage, error) {
	start := time.Now()

	obs, err := t.normalise(raw)
	if err != nil {
		t.metrics.RecordRejection(observability.TransportKafka, err)
		return OutputMessage{}, err
	}

	data, err := codec.EncodeCanonical(obs)
	if err != nil {
		t.metrics.RecordRejection(observability.TransportKafka, err)
		return OutputMessage{}, err
	}

	t.metrics.NormaliseDuration.Observe(time.Since(start).Seconds())
	t.metrics.ObservationsNormalised.WithLabelValues(observability.TransportKafka).Inc()

	key := raw.Key
	if len(key) == 0 {
		key = []byte(ObservationKey(obs))
	}
	t.logger.Debug("observation normalised",
		"source", obs.Source,
		"partition", raw.Partition,
		"offset", raw.Offset,
	)
	return OutputMessage{Key: key, Value: data, Source: obs.Source}, nil
}

func (t *ObservationTransformer) normalise(raw RawMessage) (domain.CanonicalObservation, error) {
	in, err := t.decoder.DecodeWithSource(raw.Value, raw.Headers[sourceHeader])
	if err != nil {
		return domain.CanonicalObservation{}, err
	}
	return domain.Normalise(in)
}

// ObservationKey derives a stable partition key from the source, instant,
// and position of an observation, so retries of the same reading land on the
// same partition.
func ObservationKey(obs domain.CanonicalObservation) string {
	h := sha256.New()
	h.Write([]byte(obs.Source))
	h.Write([]byte{'|'})
	h.Write([]byte(obs.TimestampUTC.Format(time.RFC3339Nano)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatFloat(obs.Position.Latitude, 'f', -1, 64)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatFloat(obs.Position.Longitude, 'f', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}
