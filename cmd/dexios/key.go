package main

import (
	"fmt"

	"github.com/dexio-go/dexios"
	"github.com/spf13/cobra"
)

func newKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage a container's keyslot table",
	}
	cmd.AddCommand(newKeyAddCommand(), newKeyChangeCommand(), newKeyDelCommand())
	return cmd
}

func newKeyAddCommand() *cobra.Command {
	var hashName string
	cmd := &cobra.Command{
		Use:   "add <input>",
		Short: "Add a new password-protected keyslot to a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashAlgorithm, err := parseHashAlgorithm(hashName)
			if err != nil {
				return err
			}

			existing, err := resolveSecretFlag("", "Enter an existing passphrase")
			if err != nil {
				return err
			}
			defer existing.Destroy()

			fresh, err := resolveSecretFlag("", "Enter the new passphrase")
			if err != nil {
				return err
			}
			defer fresh.Destroy()

			log.Debug().Str("path", args[0]).Str("hash_algorithm", hashName).Msg("adding keyslot")
			if err := dexios.AddKeyslotToFile(args[0], existing, fresh, hashAlgorithm); err != nil {
				return err
			}
			fmt.Printf("added a new keyslot to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&hashName, "hash-algorithm", "argon2id", "password KDF for the new keyslot: argon2id, blake3-balloon")
	return cmd
}

func newKeyChangeCommand() *cobra.Command {
	var hashName string
	cmd := &cobra.Command{
		Use:   "change <input>",
		Short: "Change the passphrase protecting one of a container's keyslots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashAlgorithm, err := parseHashAlgorithm(hashName)
			if err != nil {
				return err
			}

			oldSecret, err := resolveSecretFlag("", "Enter the current passphrase")
			if err != nil {
				return err
			}
			defer oldSecret.Destroy()

			newSecret, err := resolveSecretFlag("", "Enter the new passphrase")
			if err != nil {
				return err
			}
			defer newSecret.Destroy()

			log.Debug().Str("path", args[0]).Str("hash_algorithm", hashName).Msg("changing keyslot")
			if err := dexios.ChangeKeyslotInFile(args[0], oldSecret, newSecret, hashAlgorithm); err != nil {
				return err
			}
			fmt.Printf("changed keyslot passphrase on %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&hashName, "hash-algorithm", "argon2id", "password KDF for the re-wrapped keyslot: argon2id, blake3-balloon")
	return cmd
}

func newKeyDelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "del <input>",
		Short: "Delete the keyslot matching a passphrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := resolveSecretFlag("", "Enter the passphrase of the keyslot to delete")
			if err != nil {
				return err
			}
			defer secret.Destroy()

			log.Debug().Str("path", args[0]).Msg("deleting keyslot")
			if err := dexios.DeleteKeyslotFromFile(args[0], secret); err != nil {
				return err
			}
			fmt.Printf("deleted a keyslot from %s\n", args[0])
			return nil
		},
	}
	return cmd
}
