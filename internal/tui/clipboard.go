package tui

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard talks to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if runtime.GOOS == "darwin" {
		if text, ok := pbpaste(runCommand); ok {
			return text, nil
		}
	}
	return clipboard.ReadAll()
}

type commandRunner func(name string, args ...string) ([]byte, error)

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// pbpaste asks for plain text first, then whatever pbpaste returns.
func pbpaste(run commandRunner) (string, bool) {
	if output, err := run("pbpaste", "-Prefer", "txt"); err == nil {
		return string(output), true
	}
	if output, err := run("pbpaste"); err == nil {
		return string(output), true
	}
	return "", false
}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// cleanClipboardText drops control characters and joins lines, since titles
// are single line in the editor.
func cleanClipboardText(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(' ')
		case r >= 32 && r != 127:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
