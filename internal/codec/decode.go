// Package codec translates between the JSON wire format and domain values.
// It enforces shape (required fields, types, unit names) and leaves semantic
// checks such as ranges and offsets to domain.Normalise.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/weather-normalise-service/internal/domain"
)

// Options controls defaults applied while decoding.
type Options struct {
	// DefaultSource is used when a payload carries no source.
	DefaultSource string
}

// Decoder turns JSON payloads into domain.RawObservation values.
// It is safe for concurrent use.
type Decoder struct {
	opts     Options
	validate *validator.Validate
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts Options) *Decoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("temperature_unit", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseTemperatureUnit(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("wind_speed_unit", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseWindSpeedUnit(fl.Field().String())
		return err == nil
	})
	return &Decoder{opts: opts, validate: v}
}

// positionRequest is the wire form of domain.Position.
type positionRequest struct {
	Latitude    *float64 `json:"latitude" validate:"required"`
	Longitude   *float64 `json:"longitude" validate:"required"`
	City        *string  `json:"city"`
	CountryCode *string  `json:"country_code" validate:"omitempty,iso3166_1_alpha2"`
}

// observationRequest is the wire form of domain.RawObservation. Besides the
// documented field names it accepts the flat lat/lon and temp_unit spellings
// used by early producers.
type observationRequest struct {
	Temperature      *float64         `json:"temperature" validate:"required"`
	TemperatureUnit  string           `json:"temperature_unit" validate:"omitempty,temperature_unit"`
	TempUnit         string           `json:"temp_unit" validate:"omitempty,excluded_with=TemperatureUnit,temperature_unit"`
	WindSpeed        *float64         `json:"wind_speed" validate:"required"`
	WindSpeedUnit    string           `json:"wind_speed_unit" validate:"omitempty,wind_speed_unit"`
	Humidity         *int             `json:"humidity" validate:"required"`
	Pressure         *float64         `json:"pressure"`
	Position         *positionRequest `json:"position" validate:"required_without_all=Lat Lon"`
	Lat              *float64         `json:"lat" validate:"required_without=Position,excluded_with=Position"`
	Lon              *float64         `json:"lon" validate:"required_without=Position,excluded_with=Position"`
	Timestamp        *string          `json:"timestamp" validate:"required"`
	WindDirectionDeg *float64         `json:"wind_direction_deg"`
	WeatherCode      *string          `json:"weather_code"`
	Source           string           `json:"source"`
}

// Decode parses and shape-checks a single JSON observation.
func (d *Decoder) Decode(data []byte) (domain.RawObservation, error) {
	return d.DecodeWithSource(data, d.opts.DefaultSource)
}

// DecodeWithSource is Decode with a per-payload fallback source, such as one
// carried in a message header. An empty fallback uses Options.DefaultSource.
func (d *Decoder) DecodeWithSource(data []byte, fallbackSource string) (domain.RawObservation, error) {
	if fallbackSource == "" {
		fallbackSource = d.opts.DefaultSource
	}
	var req observationRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return domain.RawObservation{}, decodeFailure(err)
	}
	if dec.More() {
		return domain.RawObservation{}, &DecodeError{Message: "unexpected data after observation"}
	}
	return d.fromRequest(req, fallbackSource)
}

// DecodeBatch splits a JSON array into its elements without decoding them,
// so each element can succeed or fail on its own.
func (d *Decoder) DecodeBatch(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, decodeFailure(err)
	}
	return items, nil
}

func (d *Decoder) fromRequest(req observationRequest, fallbackSource string) (domain.RawObservation, error) {
	if err := d.validate.Struct(req); err != nil {
		return domain.RawObservation{}, shapeFailure(err)
	}

	unitName := req.TemperatureUnit
	if unitName == "" {
		unitName = req.TempUnit
	}
	// Unit names were checked by the struct validator above.
	tempUnit, _ := domain.ParseTemperatureUnit(unitName)
	windUnit, _ := domain.ParseWindSpeedUnit(req.WindSpeedUnit)

	ts, err := domain.ParseTimestamp(*req.Timestamp)
	if err != nil {
		return domain.RawObservation{}, &DecodeError{
			Message:  "invalid timestamp",
			Problems: []FieldProblem{{Field: "timestamp", Rule: "datetime"}},
			err:      err,
		}
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = fallbackSource
	}

	return domain.RawObservation{
		Temperature:      *req.Temperature,
		TemperatureUnit:  tempUnit,
		WindSpeed:        *req.WindSpeed,
		WindSpeedUnit:    windUnit,
		Humidity:         *req.Humidity,
		Pressure:         optional(req.Pressure),
		Position:         req.position(),
		Timestamp:        ts,
		WindDirectionDeg: optional(req.WindDirectionDeg),
		WeatherCode:      optional(req.WeatherCode),
		Source:           source,
	}, nil
}

func (req observationRequest) position() domain.Position {
	if p := req.Position; p != nil {
		return domain.Position{
			Latitude:    *p.Latitude,
			Longitude:   *p.Longitude,
			City:        optional(p.City),
			CountryCode: optional(p.CountryCode),
		}
	}
	return domain.Position{Latitude: *req.Lat, Longitude: *req.Lon}
}

func optional[T any](p *T) domain.Optional[T] {
	if p == nil {
		return domain.None[T]()
	}
	return domain.Some(*p)
}

// FieldProblem names a field that failed a shape rule.
type FieldProblem struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// DecodeError reports a payload that could not be turned into an observation:
// malformed JSON, wrong types, unknown fields, or missing required fields.
type DecodeError struct {
	Message  string
	Problems []FieldProblem
	err      error
}

func (e *DecodeError) Error() string {
	if len(e.Problems) == 0 {
		return "decode observation: " + e.Message
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + " (" + p.Rule + ")"
	}
	return fmt.Sprintf("decode observation: %s: %s", e.Message, strings.Join(parts, ", "))
}

func (e *DecodeError) Unwrap() error { return e.err }

func decodeFailure(err error) *DecodeError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{
			Message:  "wrong type",
			Problems: []FieldProblem{{Field: typeErr.Field, Rule: typeErr.Type.String()}},
			err:      err,
		}
	}
	return &DecodeError{Message: err.Error(), err: err}
}

func shapeFailure(err error) *DecodeError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &DecodeError{Message: err.Error(), err: err}
	}
	problems := make([]FieldProblem, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, FieldProblem{Field: fieldPath(fe), Rule: fe.Tag()})
	}
	return &DecodeError{Message: "invalid shape", Problems: problems, err: err}
}

// fieldPath drops the root struct name from the validator namespace,
// turning "observationRequest.position.latitude" into "position.latitude".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
