// Package clipboard copies result summaries to the system clipboard.
package clipboard

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard command can be found.
var ErrUnavailable = errors.New("no clipboard command available")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// command returns the argv of the first usable clipboard writer.
func command() ([]string, error) {
	var candidates [][]string

	switch runtime.GOOS {
	case "darwin":
		candidates = [][]string{{"pbcopy"}}
	case "windows":
		candidates = [][]string{{"clip"}}
	default:
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			candidates = append(candidates, []string{"wl-copy"})
		}
		candidates = append(candidates,
			[]string{"xclip", "-selection", "clipboard"},
			[]string{"xsel", "--clipboard", "--input"},
		)
	}

	for _, c := range candidates {
		if _, err := lookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, ErrUnavailable
}

// Write copies text to the system clipboard.
func Write(text string) error {
	argv, err := command()
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// Available checks if clipboard functionality is available.
func Available() bool {
	_, err := command()
	return err == nil
}
