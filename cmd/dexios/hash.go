package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
)

func newHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Print the BLAKE3 checksum of one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				sum, err := hashFile(path)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %s\n", hex.EncodeToString(sum), path)
			}
			return nil
		},
	}
	return cmd
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dexios: open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("dexios: hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
