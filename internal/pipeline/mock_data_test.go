package pipeline_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalise-service/internal/codec"
	"github.com/couchcryptid/weather-normalise-service/internal/domain"
	"github.com/couchcryptid/weather-normalise-service/internal/observability"
	"github.com/couchcryptid/weather-normalise-service/internal/pipeline"
)

func TestObservationTransformer_WithMockData(t *testing.T) {
	tfm := pipeline.NewTransformer(codec.NewDecoder(codec.Options{DefaultSource: "mock"}), observability.NewMetricsForTesting(), observability.DiscardLogger())

	t.Run("valid", func(t *testing.T) {
		lines := readMockLines(t, "observations_valid.jsonl")
		require.Len(t, lines, 6)

		for i, line := range lines {
			out, err := tfm.Transform(context.Background(), pipeline.RawMessage{Value: line, Offset: int64(i)})
			require.NoError(t, err, "line %d", i+1)

			var obs domain.CanonicalObservation
			require.NoError(t, json.Unmarshal(out.Value, &obs))
			assert.Equal(t, "UTC", obs.TimestampUTC.Location().String())
			assert.GreaterOrEqual(t, obs.TemperatureC, -273.15)
			assert.GreaterOrEqual(t, obs.WindSpeedMS, 0.0)
			assert.True(t, obs.FeelsLikeC.IsPresent(), "line %d", i+1)
			assert.NotEmpty(t, obs.Source)
			assert.NotEmpty(t, out.Key)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		lines := readMockLines(t, "observations_invalid.jsonl")
		require.Len(t, lines, 9)

		for i, line := range lines {
			_, err := tfm.Transform(context.Background(), pipeline.RawMessage{Value: line, Offset: int64(i)})
			require.Error(t, err, "line %d", i+1)
			assert.NotEqual(t, codec.CodeInternal, codec.Classify(err), "line %d: %v", i+1, err)
		}
	})
}

func readMockLines(t *testing.T, name string) [][]byte {
	t.Helper()

	f, err := os.Open(filepath.Join("..", "..", "data", "mock", name))
	require.NoError(t, err)
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	require.NoError(t, scanner.Err())
	return lines
}
