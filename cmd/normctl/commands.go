package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/weather-normalise-service/internal/codec"
	"github.com/couchcryptid/weather-normalise-service/internal/domain"
)

const maxLineBytes = 1 << 20

type normaliseCmd struct {
	File     string `arg:"" optional:"" type:"existingfile" help:"JSON lines file to read. Reads standard input when omitted."`
	FailFast bool   `help:"Stop at the first rejected observation."`
}

func (c *normaliseCmd) Run(g *Globals) error {
	dec := codec.NewDecoder(codec.Options{DefaultSource: g.Source})
	out := bufio.NewWriter(g.stdout)
	defer out.Flush()

	var total, rejected int
	err := eachLine(g.stdin, c.File, func(n int, line []byte) error {
		total++
		data, err := encodeLine(dec, line)
		if err != nil {
			rejected++
			fmt.Fprintf(g.stderr, "line %d: %v\n", n, err)
			if c.FailFast {
				return errStop
			}
			return nil
		}
		out.Write(data) //nolint:errcheck // surfaced by Flush
		return out.WriteByte('\n')
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d observations rejected", rejected, total)
	}
	return nil
}

type validateCmd struct {
	File string `arg:"" optional:"" type:"existingfile" help:"JSON lines file to read. Reads standard input when omitted."`
}

func (c *validateCmd) Run(g *Globals) error {
	dec := codec.NewDecoder(codec.Options{DefaultSource: g.Source})

	var valid, invalid int
	err := eachLine(g.stdin, c.File, func(n int, line []byte) error {
		if _, err := normaliseLine(dec, line); err != nil {
			invalid++
			fmt.Fprintf(g.stdout, "line %d: invalid: %s\n", n, describe(err))
			return nil
		}
		valid++
		fmt.Fprintf(g.stdout, "line %d: ok\n", n)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(g.stdout, "%d valid, %d invalid\n", valid, invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid observations", invalid)
	}
	return nil
}

type feelsLikeCmd struct {
	Temp     float64 `required:"" help:"Air temperature."`
	TempUnit string  `default:"celsius" help:"Temperature unit: celsius, fahrenheit, or kelvin."`
	Wind     float64 `required:"" help:"Wind speed."`
	WindUnit string  `default:"meters_per_second" help:"Wind speed unit: meters_per_second, kilometers_per_hour, or miles_per_hour."`
	Humidity int     `required:"" help:"Relative humidity in percent."`
}

func (c *feelsLikeCmd) Run(g *Globals) error {
	tempUnit, err := domain.ParseTemperatureUnit(c.TempUnit)
	if err != nil {
		return err
	}
	windUnit, err := domain.ParseWindSpeedUnit(c.WindUnit)
	if err != nil {
		return err
	}

	// Position, time, and source only satisfy validation.
	obs, err := domain.Normalise(domain.RawObservation{
		Temperature:     c.Temp,
		TemperatureUnit: tempUnit,
		WindSpeed:       c.Wind,
		WindSpeedUnit:   windUnit,
		Humidity:        c.Humidity,
		Timestamp:       domain.At(time.Now()),
		Source:          g.Source,
	})
	if err != nil {
		return errors.New(describe(err))
	}

	feels, ok := obs.FeelsLikeC.Get()
	if !ok {
		fmt.Fprintln(g.stdout, "feels like: n/a")
		return nil
	}
	fmt.Fprintf(g.stdout, "air %.1f °C, wind %.1f m/s, feels like %.1f °C\n", obs.TemperatureC, obs.WindSpeedMS, feels)
	return nil
}

var errStop = errors.New("stop")

func normaliseLine(dec *codec.Decoder, line []byte) (domain.CanonicalObservation, error) {
	raw, err := dec.Decode(line)
	if err != nil {
		return domain.CanonicalObservation{}, err
	}
	return domain.Normalise(raw)
}

// describe renders err as a compact list of field problems.
func describe(err error) string {
	body := codec.ErrorBody(err)
	if len(body.Details) == 0 {
		return body.Message
	}
	parts := make([]string, len(body.Details))
	for i, d := range body.Details {
		parts[i] = d.Field + " " + d.Reason
	}
	return strings.Join(parts, ", ")
}

// eachLine calls fn with every non-blank line of path, or of stdin when path
// is empty. Line numbers start at 1.
func eachLine(stdin io.Reader, path string, fn func(n int, line []byte) error) error {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// encodeLine normalises one line and renders it as canonical JSON. Either
// step failing rejects the line.
func encodeLine(dec *codec.Decoder, line []byte) ([]byte, error) {
	obs, err := normaliseLine(dec, line)
	if err != nil {
		return nil, err
	}
	return codec.EncodeCanonical(obs)
}
