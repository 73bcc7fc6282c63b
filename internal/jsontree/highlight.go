package jsontree

import (
	"bytes"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
)

// Highlighter syntax-highlights raw-mode JSON for terminal display.
// Constructed once; chroma objects are safe for reuse.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

func NewHighlighter(darkBackground bool) *Highlighter {
	styleName := "github"
	if darkBackground {
		styleName = "dracula"
	}
	profile := colorprofile.Detect(os.Stderr, os.Environ())
	return &Highlighter{
		lexer:     chroma.Coalesce(lexers.Get("json")),
		formatter: formatters.Get(chromaFormatter(profile)),
		style:     styles.Get(styleName),
	}
}

// Highlight returns the highlighted text, or the input unchanged when
// tokenising fails. Input is expected to be valid indented JSON.
func (h *Highlighter) Highlight(indented string) string {
	iterator, err := h.lexer.Tokenise(nil, indented)
	if err != nil {
		return indented
	}
	var out bytes.Buffer
	if err := h.formatter.Format(&out, h.style, iterator); err != nil {
		return indented
	}
	return out.String()
}

func chromaFormatter(profile colorprofile.Profile) string {
	switch profile {
	case colorprofile.TrueColor:
		return "terminal16m"
	case colorprofile.ANSI256:
		return "terminal256"
	case colorprofile.ANSI:
		return "terminal16"
	default:
		return "terminal"
	}
}
