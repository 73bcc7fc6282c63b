package agentresult

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/taskdeck/taskdeck/internal/markdown"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	styleTool    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215"))
	styleToolID  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleBody    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	styleSubtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleStatus  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
)

// Renderer renders classified sections for terminal display. The
// markdown renderer is optional; without one, prose renders plain.
type Renderer struct {
	md *markdown.Renderer
}

func NewRenderer(md *markdown.Renderer) *Renderer {
	return &Renderer{md: md}
}

// State carries per-render display inputs. Collapsed holds explicit
// collapse overrides keyed by section name; sections without an entry
// fall back to DefaultCollapsed.
type State struct {
	Collapsed map[string]bool
	Width     int
}

// IsCollapsed resolves the effective collapse state for a section name.
func (s State) IsCollapsed(name string) bool {
	if value, ok := s.Collapsed[name]; ok {
		return value
	}
	return DefaultCollapsed(name)
}

// Render renders the sections in order, separated by blank lines.
// Sections render independently: a failure to interpret one never
// suppresses the others.
func (r *Renderer) Render(sections []Section, state State) string {
	blocks := make([]string, 0, len(sections))
	for _, section := range sections {
		if block := r.renderSection(section, state); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (r *Renderer) renderSection(section Section, state State) string {
	switch section.Kind {
	case SectionProse:
		return r.prose(section.Text, state.Width)
	case SectionThinking:
		return styleSubtle.Render("◇ "+section.Title) + "\n" + styleDim.Render(section.Text)
	case SectionToolUse:
		return renderToolUse(section.Tool)
	case SectionStatus:
		return styleHeading.Render(section.Title) + "  " + styleStatus.Render(section.Text)
	case SectionFiles:
		lines := []string{styleHeading.Render(section.Title)}
		for _, item := range section.Items {
			lines = append(lines, styleBody.Render("  - "+item))
		}
		return strings.Join(lines, "\n")
	case SectionPlan:
		return styleHeading.Render(section.Title) + "\n" + r.prose(section.Text, state.Width)
	case SectionGeneric:
		return styleHeading.Render(section.Title) + "\n" + renderFields(section.Fields)
	case SectionMetadata, SectionRawJSON:
		return r.renderCollapsible(section, state)
	default:
		return ""
	}
}

func (r *Renderer) renderCollapsible(section Section, state State) string {
	collapsed := state.IsCollapsed(section.Name)
	chevron := "▾ "
	if collapsed {
		chevron = "▸ "
	}
	header := styleHeading.Render(chevron + section.Title)
	if collapsed {
		return header
	}
	if section.Kind == SectionMetadata {
		return header + "\n" + renderFields(section.Fields)
	}
	return header + "\n" + styleDim.Render(section.Text)
}

func renderToolUse(tool ToolUse) string {
	header := styleTool.Render("◆ " + tool.Name)
	if tool.ID != "" {
		header += " " + styleToolID.Render("#"+tool.ID)
	}
	if tool.Input == "" {
		return header
	}
	return header + "\n" + indentBlock(styleDim.Render(tool.Input), "  ")
}

func renderFields(fields []Field) string {
	width := 0
	for _, field := range fields {
		if len(field.Key) > width {
			width = len(field.Key)
		}
	}
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		padded := field.Key + strings.Repeat(" ", width-len(field.Key))
		lines = append(lines, "  "+styleSubtle.Render(padded)+"  "+styleBody.Render(field.Value))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) prose(text string, width int) string {
	if r.md == nil {
		return styleBody.Render(text)
	}
	return r.md.Render(text, width)
}

func indentBlock(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
