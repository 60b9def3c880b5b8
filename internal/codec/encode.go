package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/weather-normalise-service/internal/domain"
)

// Error codes carried in ErrorResponse.Error.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeValidationFailed = "validation_failed"
	CodeUnsupportedUnit  = "unsupported_unit"
	CodeInternal         = "internal_error"
)

// ErrorDetail is one offending field in an ErrorResponse.
type ErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ErrorResponse is the client-visible failure document.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// EncodeCanonical serializes a canonical observation.
func EncodeCanonical(obs domain.CanonicalObservation) ([]byte, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("serialize canonical observation: %w", err)
	}
	return data, nil
}

// Classify maps an error from Decode or domain.Normalise to an error code.
func Classify(err error) string {
	var (
		decodeErr *DecodeError
		verrs     domain.ValidationErrors
		unitErr   *domain.UnsupportedUnitError
	)
	switch {
	case errors.As(err, &decodeErr):
		return CodeInvalidRequest
	case errors.As(err, &verrs):
		return CodeValidationFailed
	case errors.As(err, &unitErr):
		return CodeUnsupportedUnit
	default:
		return CodeInternal
	}
}

// ErrorBody builds the failure document for err, listing each offending field.
func ErrorBody(err error) ErrorResponse {
	resp := ErrorResponse{Error: Classify(err), Message: err.Error()}

	var (
		decodeErr *DecodeError
		verrs     domain.ValidationErrors
		unitErr   *domain.UnsupportedUnitError
	)
	switch {
	case errors.As(err, &decodeErr):
		for _, p := range decodeErr.Problems {
			resp.Details = append(resp.Details, ErrorDetail{Field: p.Field, Reason: p.Rule})
		}
	case errors.As(err, &verrs):
		for _, v := range verrs {
			resp.Details = append(resp.Details, ErrorDetail{Field: v.Field, Reason: v.Reason})
		}
	case errors.As(err, &unitErr):
		resp.Details = []ErrorDetail{{Field: unitErr.Quantity + "_unit", Reason: "unsupported"}}
	default:
		resp.Message = "internal error"
	}
	return resp
}
