package main

import (
	"fmt"

	"github.com/dexio-go/dexios"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newEncryptCommand() *cobra.Command {
	var (
		output        string
		keyfile       string
		algorithmName string
		modeName      string
		hashName      string
	)

	cmd := &cobra.Command{
		Use:   "encrypt <input>",
		Short: "Encrypt a file into a Dexios container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			out := output
			if out == "" {
				out = input + ".dx"
			}

			algorithm, err := parseAlgorithm(algorithmName)
			if err != nil {
				return err
			}
			mode, err := parseMode(modeName)
			if err != nil {
				return err
			}
			hashAlgorithm, err := parseHashAlgorithm(hashName)
			if err != nil {
				return err
			}

			secret, err := resolveSecretFlag(keyfile, "Enter passphrase")
			if err != nil {
				return err
			}
			defer secret.Destroy()

			log.Debug().Str("input", input).Str("output", out).Str("algorithm", algorithmName).
				Str("mode", modeName).Str("hash_algorithm", hashName).Msg("starting encryption")

			bar := progressbar.DefaultBytes(-1, "encrypting "+input)
			progress, done := logProgress("encrypt", input, func(n int) { bar.Add(n) })

			if err := dexios.EncryptFile(input, out, secret, algorithm, mode, hashAlgorithm, progress); err != nil {
				log.Debug().Str("input", input).Err(err).Msg("encryption failed")
				return err
			}
			done()
			fmt.Printf("encrypted %s -> %s\n", input, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <input>.dx)")
	cmd.Flags().StringVarP(&keyfile, "keyfile", "k", "", "read the secret from this keyfile instead of prompting")
	cmd.Flags().StringVar(&algorithmName, "algorithm", "xchacha20-poly1305", "body cipher: aes-256-gcm, xchacha20-poly1305, deoxys-ii-256")
	cmd.Flags().StringVar(&modeName, "mode", "stream", "processing mode: stream, memory")
	cmd.Flags().StringVar(&hashName, "hash-algorithm", "argon2id", "password KDF: argon2id, blake3-balloon")
	return cmd
}

func newDecryptCommand() *cobra.Command {
	var (
		output  string
		keyfile string
	)

	cmd := &cobra.Command{
		Use:   "decrypt <input>",
		Short: "Decrypt a Dexios container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			out := output
			if out == "" {
				out = trimDexSuffix(input)
			}

			secret, err := resolveSecretFlag(keyfile, "Enter passphrase")
			if err != nil {
				return err
			}
			defer secret.Destroy()

			log.Debug().Str("input", input).Str("output", out).Msg("starting decryption")

			bar := progressbar.DefaultBytes(-1, "decrypting "+input)
			progress, done := logProgress("decrypt", input, func(n int) { bar.Add(n) })

			if err := dexios.DecryptFile(input, out, secret, progress); err != nil {
				log.Debug().Str("input", input).Err(err).Msg("decryption failed")
				return err
			}
			done()
			fmt.Printf("decrypted %s -> %s\n", input, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <input> with .dx stripped)")
	cmd.Flags().StringVarP(&keyfile, "keyfile", "k", "", "read the secret from this keyfile instead of prompting")
	return cmd
}

func trimDexSuffix(path string) string {
	const suffix = ".dx"
	if len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix {
		return path[:len(path)-len(suffix)]
	}
	return path + ".out"
}

func parseAlgorithm(name string) (dexios.Algorithm, error) {
	switch name {
	case "aes-256-gcm":
		return dexios.AlgorithmAES256GCM, nil
	case "xchacha20-poly1305":
		return dexios.AlgorithmXChaCha20Poly1305, nil
	case "deoxys-ii-256":
		return dexios.AlgorithmDeoxysII256, nil
	default:
		return 0, fmt.Errorf("dexios: unknown algorithm %q", name)
	}
}

func parseMode(name string) (dexios.Mode, error) {
	switch name {
	case "stream":
		return dexios.ModeStream, nil
	case "memory":
		return dexios.ModeMemory, nil
	default:
		return 0, fmt.Errorf("dexios: unknown mode %q", name)
	}
}

func parseHashAlgorithm(name string) (dexios.HashAlgorithm, error) {
	switch name {
	case "argon2id":
		return dexios.HashAlgorithmArgon2id, nil
	case "blake3-balloon":
		return dexios.HashAlgorithmBLAKE3Balloon, nil
	default:
		return 0, fmt.Errorf("dexios: unknown hash algorithm %q", name)
	}
}
