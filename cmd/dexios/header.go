package main

import (
	"fmt"
	"os"

	"github.com/dexio-go/dexios"
	"github.com/spf13/cobra"
)

func newHeaderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Inspect or manipulate a container's fixed 64-byte header block",
	}
	cmd.AddCommand(newHeaderDumpCommand(), newHeaderRestoreCommand(), newHeaderStripCommand(), newHeaderDetailsCommand())
	return cmd
}

func newHeaderDumpCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dump <input>",
		Short: "Copy a container's fixed 64-byte header block to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output
			if out == "" {
				out = args[0] + ".header"
			}
			log.Debug().Str("input", args[0]).Str("output", out).Msg("dumping header")
			if err := dexios.DumpHeader(args[0], out); err != nil {
				return err
			}
			fmt.Printf("dumped header of %s -> %s\n", args[0], out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "header dump path (default: <input>.header)")
	return cmd
}

func newHeaderRestoreCommand() *cobra.Command {
	var skipConfirm bool
	cmd := &cobra.Command{
		Use:   "restore <input> <header-dump>",
		Short: "Overwrite a container's fixed 64-byte header block from a prior dump",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm dexios.Confirm
			if !skipConfirm {
				confirm = func(op string) bool {
					return confirmPrompt(fmt.Sprintf("overwrite the header of %s with %s?", args[0], args[1]))
				}
			}
			log.Debug().Str("input", args[0]).Str("dump", args[1]).Msg("restoring header")
			if err := dexios.RestoreHeader(args[0], args[1], confirm); err != nil {
				return err
			}
			fmt.Printf("restored header of %s from %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newHeaderStripCommand() *cobra.Command {
	var skipConfirm bool
	cmd := &cobra.Command{
		Use:   "strip <input>",
		Short: "Irreversibly zero a container's fixed 64-byte header block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm dexios.Confirm
			if !skipConfirm {
				confirm = func(op string) bool {
					return confirmPrompt(fmt.Sprintf("strip the header of %s? this is IRREVERSIBLE without a prior dump", args[0]))
				}
			}
			log.Debug().Str("input", args[0]).Msg("stripping header")
			if err := dexios.StripHeader(args[0], confirm); err != nil {
				return err
			}
			fmt.Printf("stripped header of %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newHeaderDetailsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details <input>",
		Short: "Print a container's version, algorithm, mode, and keyslot usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("dexios: open %s: %w", args[0], err)
			}
			defer f.Close()

			header, _, err := dexios.DeserializeHeader(f)
			if err != nil {
				return err
			}

			fmt.Printf("version:   %s\n", header.Version)
			fmt.Printf("algorithm: %s\n", header.Algorithm)
			fmt.Printf("mode:      %s\n", header.Mode)
			if header.Version.HasKeyslots() {
				populated := 0
				for _, ks := range header.Keyslots {
					if !ks.Empty {
						populated++
					}
				}
				fmt.Printf("keyslots:  %d/%d populated\n", populated, len(header.Keyslots))
			}
			return nil
		},
	}
	return cmd
}
