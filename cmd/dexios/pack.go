package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dexio-go/dexios"
	"github.com/dexio-go/dexios/internal/batch"
	"github.com/spf13/cobra"
)

// pack/unpack encrypt or decrypt every regular file under a directory
// tree, each into/from its own Dexios container, run across a bounded
// worker pool (internal/batch) — independent top-level invocations, not
// parallelism within any single file's stream.

func newPackCommand() *cobra.Command {
	var (
		keyfile       string
		algorithmName string
		hashName      string
		workers       int
	)

	cmd := &cobra.Command{
		Use:   "pack <directory>",
		Short: "Encrypt every file under a directory tree, writing <file>.dx beside each file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := parseAlgorithm(algorithmName)
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

			files, err := walkFiles(args[0])
			if err != nil {
				return err
			}

			log.Debug().Str("root", args[0]).Int("files", len(files)).Int("workers", workers).Msg("starting pack")

			jobs := make([]batch.Job, len(files))
			for i, path := range files {
				path := path
				jobs[i] = func() error {
					return dexios.EncryptFile(path, path+".dx", secret, algorithm, dexios.ModeStream, hashAlgorithm, nil)
				}
			}

			return reportBatch(batch.New(workers).Run(jobs), files)
		},
	}

	cmd.Flags().StringVarP(&keyfile, "keyfile", "k", "", "read the secret from this keyfile instead of prompting")
	cmd.Flags().StringVar(&algorithmName, "algorithm", "xchacha20-poly1305", "body cipher: aes-256-gcm, xchacha20-poly1305, deoxys-ii-256")
	cmd.Flags().StringVar(&hashName, "hash-algorithm", "argon2id", "password KDF: argon2id, blake3-balloon")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent files to process (default: number of CPUs)")
	return cmd
}

func newUnpackCommand() *cobra.Command {
	var (
		keyfile string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "unpack <directory>",
		Short: "Decrypt every .dx container under a directory tree, writing the plaintext beside each container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := resolveSecretFlag(keyfile, "Enter passphrase")
			if err != nil {
				return err
			}
			defer secret.Destroy()

			files, err := walkDxFiles(args[0])
			if err != nil {
				return err
			}

			log.Debug().Str("root", args[0]).Int("files", len(files)).Int("workers", workers).Msg("starting unpack")

			jobs := make([]batch.Job, len(files))
			for i, path := range files {
				path := path
				jobs[i] = func() error {
					return dexios.DecryptFile(path, trimDexSuffix(path), secret, nil)
				}
			}

			return reportBatch(batch.New(workers).Run(jobs), files)
		},
	}

	cmd.Flags().StringVarP(&keyfile, "keyfile", "k", "", "read the secret from this keyfile instead of prompting")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent files to process (default: number of CPUs)")
	return cmd
}

func walkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dexios: walk %s: %w", root, err)
	}
	return files, nil
}

func walkDxFiles(root string) ([]string, error) {
	all, err := walkFiles(root)
	if err != nil {
		return nil, err
	}
	var dx []string
	for _, f := range all {
		if filepath.Ext(f) == ".dx" {
			dx = append(dx, f)
		}
	}
	return dx, nil
}

func reportBatch(results []batch.Result, files []string) error {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Debug().Str("path", files[r.Index]).Err(r.Err).Msg("job failed")
			fmt.Fprintf(os.Stderr, "dexios: %s: %v\n", files[r.Index], r.Err)
			continue
		}
		fmt.Println(files[r.Index])
	}
	if failed > 0 {
		return fmt.Errorf("dexios: %d of %d files failed", failed, len(files))
	}
	return nil
}
