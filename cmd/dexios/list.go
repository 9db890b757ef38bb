package main

import (
	"fmt"

	"github.com/dexio-go/dexios"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the algorithms, modes, and KDFs this build supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("algorithms:")
			for _, a := range []dexios.Algorithm{dexios.AlgorithmAES256GCM, dexios.AlgorithmXChaCha20Poly1305, dexios.AlgorithmDeoxysII256} {
				fmt.Printf("  %s\n", a)
			}
			fmt.Println("modes:")
			for _, m := range []dexios.Mode{dexios.ModeStream, dexios.ModeMemory} {
				fmt.Printf("  %s\n", m)
			}
			fmt.Println("hash algorithms:")
			for _, h := range []dexios.HashAlgorithm{dexios.HashAlgorithmArgon2id, dexios.HashAlgorithmBLAKE3Balloon} {
				fmt.Printf("  %s\n", h)
			}
			return nil
		},
	}
	return cmd
}
