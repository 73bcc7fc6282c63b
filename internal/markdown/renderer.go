package markdown

import (
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// Renderer caches a glamour terminal renderer at a specific width and
// recreates it when the width changes.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func New() *Renderer {
	return &Renderer{}
}

// autoStyle picks a glamour style for the current terminal, with
// Document.Margin zeroed so lipgloss containers own their padding.
func autoStyle() ansi.StyleConfig {
	var style ansi.StyleConfig
	if colorprofile.Detect(os.Stdout, os.Environ()) == colorprofile.NoTTY {
		style = styles.NoTTYStyleConfig
	} else if termenv.HasDarkBackground() {
		style = styles.DarkStyleConfig
	} else {
		style = styles.LightStyleConfig
	}
	style.Document.Margin = uintPtr(0)
	return style
}

func uintPtr(v uint) *uint { return &v }

// Render renders markdown for terminal display at the given width.
// Returns the content unchanged on any renderer error.
func (r *Renderer) Render(content string, width int) string {
	if width <= 0 {
		return content
	}
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStyles(autoStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		r.renderer = renderer
		r.width = width
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
