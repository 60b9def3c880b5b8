package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/weather-normalise-service/internal/codec"
	"github.com/couchcryptid/weather-normalise-service/internal/domain"
	"github.com/couchcryptid/weather-normalise-service/internal/observability"
)

// batchResult is one element of a batch response: exactly one of
// Observation and Error is set.
type batchResult struct {
	Index       int                          `json:"index"`
	Observation *domain.CanonicalObservation `json:"observation,omitempty"`
	Error       *codec.ErrorResponse         `json:"error,omitempty"`
}

type batchResponse struct {
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Results  []batchResult `json:"results"`
}

func (s *Server) handleNormalise(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	obs, err := s.normalise(r, body)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeResult(w, r, obs)
}

func (s *Server) handleNormaliseBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	items, err := s.decoder.DecodeBatch(body)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := batchResponse{Results: make([]batchResult, len(items))}
	for i, item := range items {
		resp.Results[i].Index = i
		obs, err := s.normalise(r, item)
		if err != nil {
			errBody := codec.ErrorBody(err)
			resp.Results[i].Error = &errBody
			resp.Rejected++
			continue
		}
		resp.Results[i].Observation = &obs
		resp.Accepted++
	}
	s.writeResult(w, r, resp)
}

// normalise decodes and normalises one payload, recording the outcome.
func (s *Server) normalise(r *http.Request, payload []byte) (domain.CanonicalObservation, error) {
	start := time.Now()

	obs, err := s.decodeAndNormalise(payload)
	if err != nil {
		s.metrics.RecordRejection(observability.TransportHTTP, err)
		s.logger.DebugContext(r.Context(), "observation rejected",
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
		return domain.CanonicalObservation{}, err
	}

	s.metrics.NormaliseDuration.Observe(time.Since(start).Seconds())
	s.metrics.ObservationsNormalised.WithLabelValues(observability.TransportHTTP).Inc()
	return obs, nil
}

func (s *Server) decodeAndNormalise(payload []byte) (domain.CanonicalObservation, error) {
	raw, err := s.decoder.Decode(payload)
	if err != nil {
		return domain.CanonicalObservation{}, err
	}
	return domain.Normalise(raw)
}

// readBody reads the request body up to the configured limit, writing an
// error response and returning false when it cannot.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sharedobs.WriteJSON(w, http.StatusRequestEntityTooLarge, codec.ErrorResponse{
				Error:   codec.CodeInvalidRequest,
				Message: "request body too large",
			})
			return nil, false
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, codec.ErrorResponse{
			Error:   codec.CodeInvalidRequest,
			Message: "read request body",
		})
		return nil, false
	}
	return body, true
}

// writeResult encodes v before committing the status line, so an
// unencodable result becomes a 500 rather than an empty 200.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "encode response failed",
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(append(body, '\n')) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, err error) {
	sharedobs.WriteJSON(w, statusFor(err), codec.ErrorBody(err))
}

// statusFor maps a decode or normalisation error to an HTTP status.
func statusFor(err error) int {
	switch codec.Classify(err) {
	case codec.CodeInvalidRequest:
		return http.StatusBadRequest
	case codec.CodeValidationFailed, codec.CodeUnsupportedUnit:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
