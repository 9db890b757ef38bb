package main

import (
	"fmt"
	"os"

	"github.com/dexio-go/dexios/internal/erase"
	"github.com/spf13/cobra"
)

func newEraseCommand() *cobra.Command {
	var passes int

	cmd := &cobra.Command{
		Use:   "erase <path>",
		Short: "Securely overwrite and delete a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("dexios: stat %s: %w", path, err)
			}

			log.Debug().Str("path", path).Msg("overwrite-based erasure is best-effort; it is not guaranteed on SSDs, copy-on-write, or log-structured filesystems")

			if info.IsDir() {
				if !confirmPrompt(fmt.Sprintf("%s is a directory, erase every file within it?", path)) {
					return nil
				}
				log.Debug().Str("path", path).Int("passes", passes).Msg("starting recursive erase")
				if err := erase.Dir(path, passes); err != nil {
					return err
				}
				fmt.Printf("erased directory %s\n", path)
				return nil
			}

			log.Debug().Str("path", path).Int("passes", passes).Msg("starting erase")
			if err := erase.File(path, passes); err != nil {
				return err
			}
			fmt.Printf("erased %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntVarP(&passes, "passes", "p", erase.DefaultPasses, "number of random-overwrite passes")
	return cmd
}
