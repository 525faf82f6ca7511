// Package log centralizes zerolog setup so every binary and test gets the
// same console/JSON formatting decision instead of repeating it at each
// main.go (teacher pattern: cmd/cprotocol/main.go configures zerolog inline;
// here it is factored out so cmd/fundarb and the engine package share it).
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. human=true renders the
// developer-friendly ConsoleWriter; human=false emits newline-delimited
// JSON, suited to log aggregation in a deployed engine.
func Setup(level string, human bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stderr
	if human {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = log.Output(w)
}

// Venue returns a sub-logger tagged with the venue it reports on, so log
// lines from concurrent adapters stay attributable.
func Venue(name string) zerolog.Logger {
	return log.With().Str("venue", name).Logger()
}
