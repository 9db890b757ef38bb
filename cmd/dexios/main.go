// Command dexios encrypts, decrypts, and manages Dexios-format containers.
package main

import (
	"os"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func main() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).With().Timestamp().Logger()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
