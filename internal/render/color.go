package render

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ConfigureColor turns table colours on only when f is a terminal and
// NO_COLOR is unset, or off when disabled is true.
func ConfigureColor(f *os.File, disabled bool) {
	color.NoColor = disabled || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(f.Fd()))
}
