package color

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "no color wins", env: map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1", "TERM": "xterm"}, want: false},
		{name: "force color", env: map[string]string{"FORCE_COLOR": "1", "TERM": "dumb"}, want: true},
		{name: "dumb terminal", env: map[string]string{"TERM": "dumb"}, want: false},
		{name: "ci", env: map[string]string{"TERM": "xterm-256color", "CI": "true"}, want: false},
		{name: "xterm", env: map[string]string{"TERM": "xterm-256color"}, want: true},
		{name: "unknown terminal", env: map[string]string{"TERM": "vt100"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "FORCE_COLOR", "TERM", "CI", "COLORTERM"} {
				t.Setenv(k, tt.env[k])
			}
			assert.Equal(t, tt.want, Supported())
		})
	}
}

func TestSetup(t *testing.T) {
	orig := color.NoColor
	t.Cleanup(func() { color.NoColor = orig })

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")

	assert.True(t, Setup(false))
	assert.False(t, color.NoColor)

	assert.False(t, Setup(true))
	assert.True(t, color.NoColor)
}
