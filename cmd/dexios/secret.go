package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dexio-go/dexios"
	"golang.org/x/term"
)

// termPassphraseReader reads a passphrase from the controlling terminal
// without echoing it, falling back to a plain line read when stdin isn't
// a TTY (e.g. piped input in scripted test runs).
type termPassphraseReader struct{}

func (termPassphraseReader) ReadPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt+": ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return pw, err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// resolveSecretFlag builds a Secret from the standard --keyfile flag,
// falling back through DEXIOS_KEY and an interactive TTY prompt.
func resolveSecretFlag(keyfile, prompt string) (*dexios.Secret, error) {
	return dexios.ResolveSecret(keyfile, termPassphraseReader{}, prompt)
}

// confirmPrompt asks a yes/no question on stderr, defaulting to "no" on
// any answer other than "y" or "yes" — matching the conservative default the original
// dexios prompt helper uses for destructive operations.
func confirmPrompt(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
