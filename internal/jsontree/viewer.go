package jsontree

import (
	"bytes"
	"encoding/json"
	"strings"

	"charm.land/lipgloss/v2"
)

const (
	ModeTree = "tree"
	ModeRaw  = "raw"
)

// truncateThreshold is the string length at which tree-mode display
// switches to a truncated form. Display-only; underlying data is never
// touched.
const truncateThreshold = 100

var (
	styleKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	styleString  = lipgloss.NewStyle().Foreground(lipgloss.Color("151"))
	styleNumber  = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	styleBool    = lipgloss.NewStyle().Foreground(lipgloss.Color("176"))
	styleNull    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleSummary = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	styleCursor  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleSubtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// Viewer renders one JSON value as a collapsible tree or a raw indented
// dump. Rendering never mutates the value; collapse state lives in the
// viewer, keyed by node path, and resets when a new value arrives.
type Viewer struct {
	raw      []byte
	root     *Node
	hasValue bool

	mode      string
	collapsed map[string]bool
	cursor    int

	loading bool
	errText string

	highlighter *Highlighter
}

func NewViewer() *Viewer {
	return &Viewer{
		mode:      ModeTree,
		collapsed: map[string]bool{},
	}
}

// WithHighlighter installs a raw-mode syntax highlighter. Without one,
// raw mode renders plain indented text.
func (v *Viewer) WithHighlighter(h *Highlighter) *Viewer {
	v.highlighter = h
	return v
}

// SetJSON loads a raw JSON document. Collapse and cursor state reset
// because node paths refer to the previous document.
func (v *Viewer) SetJSON(raw []byte) error {
	root, err := Parse(raw)
	if err != nil {
		return err
	}
	v.raw = raw
	v.root = root
	v.hasValue = true
	v.collapsed = map[string]bool{}
	v.cursor = 0
	v.loading = false
	v.errText = ""
	return nil
}

// SetValue loads an already-decoded value.
func (v *Viewer) SetValue(value any) error {
	if value == nil {
		v.Clear()
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return v.SetJSON(raw)
}

// Clear drops the current value and any error or loading display
// state, returning the viewer to its empty state.
func (v *Viewer) Clear() {
	v.raw = nil
	v.root = nil
	v.hasValue = false
	v.collapsed = map[string]bool{}
	v.cursor = 0
	v.loading = false
	v.errText = ""
}

func (v *Viewer) SetLoading(loading bool) { v.loading = loading }

func (v *Viewer) SetError(text string) { v.errText = text }

func (v *Viewer) Mode() string { return v.mode }

func (v *Viewer) SetMode(mode string) {
	if mode == ModeRaw {
		v.mode = ModeRaw
		return
	}
	v.mode = ModeTree
}

func (v *Viewer) ToggleMode() {
	if v.mode == ModeTree {
		v.mode = ModeRaw
		return
	}
	v.mode = ModeTree
}

// Raw returns the value serialized as 2-space-indented JSON with key
// order matching the source document.
func (v *Viewer) Raw() string {
	if !v.hasValue {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, v.raw, "", "  "); err != nil {
		return string(v.raw)
	}
	return buf.String()
}

// visible returns the nodes rendered in tree mode, in order, honouring
// collapse state.
func (v *Viewer) visible() []*Node {
	if v.root == nil {
		return nil
	}
	var nodes []*Node
	var walk func(node *Node)
	walk = func(node *Node) {
		nodes = append(nodes, node)
		if node.IsContainer() && v.collapsed[node.Path] {
			return
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(v.root)
	return nodes
}

// MoveCursor shifts the tree-mode cursor by delta, clamped to the
// visible node range.
func (v *Viewer) MoveCursor(delta int) {
	count := len(v.visible())
	if count == 0 {
		return
	}
	v.cursor += delta
	if v.cursor < 0 {
		v.cursor = 0
	}
	if v.cursor >= count {
		v.cursor = count - 1
	}
}

// ToggleCursor flips the collapse state of the container under the
// cursor. Scalars are unaffected.
func (v *Viewer) ToggleCursor() {
	nodes := v.visible()
	if v.cursor < 0 || v.cursor >= len(nodes) {
		return
	}
	node := nodes[v.cursor]
	if !node.IsContainer() {
		return
	}
	v.Toggle(node.Path)
}

// Toggle flips the collapse state for one node path.
func (v *Viewer) Toggle(path string) {
	if v.collapsed[path] {
		delete(v.collapsed, path)
		return
	}
	v.collapsed[path] = true
}

// Collapsed reports the collapse state for a node path.
func (v *Viewer) Collapsed(path string) bool { return v.collapsed[path] }

// View renders the viewer. Error and loading display states take
// precedence over value rendering, in that order; a missing value
// renders a distinct empty-state line rather than an empty tree.
func (v *Viewer) View(width int) string {
	switch {
	case v.errText != "":
		return styleError.Render("error: " + v.errText)
	case v.loading:
		return styleSubtle.Render("loading result...")
	case !v.hasValue:
		return styleSubtle.Render("no result")
	}

	if v.mode == ModeRaw {
		raw := v.Raw()
		if v.highlighter != nil {
			return v.highlighter.Highlight(raw)
		}
		return raw
	}

	nodes := v.visible()
	lines := make([]string, 0, len(nodes))
	for index, node := range nodes {
		lines = append(lines, v.renderNode(node, index == v.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (v *Viewer) renderNode(node *Node, selected bool, width int) string {
	depth := strings.Count(node.Path, ".") + strings.Count(node.Path, "[")
	indent := strings.Repeat("  ", depth)

	prefix := "  "
	if selected {
		prefix = styleCursor.Render("› ")
	}

	var label string
	if node.Key != "" {
		label = styleKey.Render(node.Key) + ": "
	}

	var line string
	if node.IsContainer() {
		chevron := "▾ "
		if v.collapsed[node.Path] {
			chevron = "▸ "
		}
		line = prefix + indent + chevron + label + styleSummary.Render(node.Summary())
	} else {
		line = prefix + indent + "  " + label + renderScalar(node)
	}
	return clipLine(line, width)
}

func renderScalar(node *Node) string {
	switch node.Kind {
	case KindString:
		return styleString.Render(`"` + truncateDisplay(node.Literal) + `"`)
	case KindNumber:
		return styleNumber.Render(node.Literal)
	case KindBool:
		return styleBool.Render(node.Literal)
	default:
		return styleNull.Render("null")
	}
}

// truncateDisplay caps long strings for tree display. Strings at or
// above the threshold always carry the ellipsis marker.
func truncateDisplay(value string) string {
	runes := []rune(value)
	if len(runes) < truncateThreshold {
		return value
	}
	return string(runes[:truncateThreshold-1]) + "…"
}

func clipLine(line string, width int) string {
	if width <= 0 || lipgloss.Width(line) <= width {
		return line
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
