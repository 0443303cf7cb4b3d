package clipboard

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPath(t *testing.T, found ...string) {
	t.Helper()
	orig := lookPath
	lookPath = func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestCommandPrefersXclip(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux clipboard selection")
	}
	t.Setenv("WAYLAND_DISPLAY", "")
	withPath(t, "xsel", "xclip")

	argv, err := command()
	require.NoError(t, err)
	assert.Equal(t, []string{"xclip", "-selection", "clipboard"}, argv)
}

func TestCommandWayland(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux clipboard selection")
	}
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	withPath(t, "wl-copy", "xclip")

	argv, err := command()
	require.NoError(t, err)
	assert.Equal(t, []string{"wl-copy"}, argv)
}

func TestUnavailable(t *testing.T) {
	withPath(t)

	assert.False(t, Available())
	assert.ErrorIs(t, Write("x"), ErrUnavailable)
}
