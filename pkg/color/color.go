package color

import (
	"os"
	"strings"

	"github.com/fatih/color"
)

// Supported reports whether the environment asks for colored output.
func Supported() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return true
	}

	return strings.Contains(term, "color") ||
		strings.Contains(term, "ansi") ||
		strings.Contains(term, "xterm") ||
		strings.Contains(term, "screen")
}

// Setup configures the process-wide fatih/color switch. disable comes from
// the --no-color flag and always wins.
func Setup(disable bool) bool {
	enabled := !disable && Supported()
	color.NoColor = !enabled
	return enabled
}
