// Command normctl normalises and validates weather observations from files or
// standard input, one JSON document per line.
//
// Usage:
//
//	normctl normalise data/mock/observations_valid.jsonl
//	cat observations.jsonl | normctl validate
//	normctl feels-like --temp 95 --temp-unit fahrenheit --wind 3 --humidity 60
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Globals is shared by every subcommand.
type Globals struct {
	Source string `help:"Source recorded on observations that carry none." default:"cli" env:"DEFAULT_SOURCE"`

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type cli struct {
	Globals

	Normalise normaliseCmd `cmd:"" help:"Convert observations to canonical units, writing one JSON document per line."`
	Validate  validateCmd  `cmd:"" help:"Report whether each observation would be accepted."`
	FeelsLike feelsLikeCmd `cmd:"" name:"feels-like" help:"Compute the apparent temperature for a single reading."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("normctl"),
		kong.Description("Weather observation normalisation tools."),
		kong.UsageOnError(),
	)
	c.stdin, c.stdout, c.stderr = os.Stdin, os.Stdout, os.Stderr
	ctx.FatalIfErrorf(ctx.Run(&c.Globals))
}
