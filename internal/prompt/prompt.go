// Package prompt asks the user for values the tool could not determine.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when no terminal is attached to stdin.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// Asker asks for a single line of text.
type Asker interface {
	Ask(message, defaultValue string) (string, error)
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Terminal asks through survey on the attached terminal.
type Terminal struct{}

// Ask shows an input prompt and returns the trimmed, non-empty answer.
func (Terminal) Ask(message, defaultValue string) (string, error) {
	if !IsInteractive() {
		return "", ErrNotInteractive
	}

	var answer string
	q := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(q, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Fixed answers every question with the same value.
type Fixed string

// Ask returns the fixed answer, or an error when it is empty.
func (f Fixed) Ask(string, string) (string, error) {
	if strings.TrimSpace(string(f)) == "" {
		return "", ErrNotInteractive
	}
	return string(f), nil
}
