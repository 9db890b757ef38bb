package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dexio-go/dexios"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var verbose bool

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dexios",
		Short:         "Authenticated file encryption with a multi-password header format",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug-level) logging on stderr")

	root.AddCommand(
		newEncryptCommand(),
		newDecryptCommand(),
		newEraseCommand(),
		newPackCommand(),
		newUnpackCommand(),
		newHashCommand(),
		newListCommand(),
		newHeaderCommand(),
		newKeyCommand(),
	)
	return root
}

// exitCodeFor maps a returned error to a process exit code per the exit
// code policy: 0 on success, 0 also when the user declined a
// confirmation prompt (AbortError), 1 for every other failure.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if dexios.IsAbortError(err) {
		return 0
	}
	fmt.Fprintln(os.Stderr, renderErr(err))
	return 1
}

func renderErr(err error) string {
	var fe *dexios.FormatError
	var ae *dexios.AuthError
	var ke *dexios.KeyslotError
	var ie *dexios.IOError
	switch {
	case errors.As(err, &fe):
		return "dexios: invalid format: " + fe.Error()
	case errors.As(err, &ae):
		return "dexios: authentication failed: " + ae.Error()
	case errors.As(err, &ke):
		return "dexios: " + ke.Error()
	case errors.As(err, &ie):
		return "dexios: i/o error: " + ie.Error()
	default:
		return "dexios: " + err.Error()
	}
}
