package agentresult

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SectionKind tags the variants a classified agent result decomposes
// into. Dispatch is over this finite set plus the generic fallback, not
// over duck-typed field probing.
type SectionKind int

const (
	SectionProse SectionKind = iota
	SectionThinking
	SectionToolUse
	SectionStatus
	SectionFiles
	SectionPlan
	SectionGeneric
	SectionMetadata
	SectionRawJSON
)

// Section is one displayable slice of an agent result. Exactly the
// fields for its Kind are populated.
type Section struct {
	Kind SectionKind

	// Name is the stable identifier used to key collapse preferences.
	Name string

	// Title is the human-readable heading.
	Title string

	// Text carries prose, thinking content, or the raw JSON dump.
	Text string

	// Tool is set for SectionToolUse.
	Tool ToolUse

	// Items is set for SectionFiles: the normalized file list.
	Items []string

	// Fields is set for SectionGeneric and SectionMetadata.
	Fields []Field
}

type ToolUse struct {
	ID    string
	Name  string
	Input string
}

type Field struct {
	Key   string
	Value string
}

// metadataKeys are top-level fields grouped into the collapsed
// metadata section instead of rendering as generic sections.
var metadataKeys = map[string]bool{
	"model":       true,
	"stop_reason": true,
	"usage":       true,
}

// recognizedKeys are top-level fields with dedicated section handling.
var recognizedKeys = map[string]bool{
	"content":       true,
	"status":        true,
	"files_changed": true,
	"files_created": true,
	"plan":          true,
}

// Classify partitions an agent result mapping into ordered sections.
// It accepts any shape without error: unknown or malformed fields
// degrade to omitted sections, never to a panic. A nil result yields
// no sections.
func Classify(result map[string]any) []Section {
	if len(result) == 0 {
		return nil
	}

	var sections []Section
	sections = append(sections, contentSections(result["content"])...)

	if status := stringValue(result["status"]); status != "" {
		sections = append(sections, Section{
			Kind:  SectionStatus,
			Name:  "status",
			Title: "Status",
			Text:  status,
		})
	}
	if files := normalizeFileList(result["files_changed"]); len(files) > 0 {
		sections = append(sections, Section{
			Kind:  SectionFiles,
			Name:  "files_changed",
			Title: "Files Changed",
			Items: files,
		})
	}
	if files := normalizeFileList(result["files_created"]); len(files) > 0 {
		sections = append(sections, Section{
			Kind:  SectionFiles,
			Name:  "files_created",
			Title: "Files Created",
			Items: files,
		})
	}
	if plan := stringValue(result["plan"]); plan != "" {
		sections = append(sections, Section{
			Kind:  SectionPlan,
			Name:  "plan",
			Title: "Plan",
			Text:  plan,
		})
	}

	sections = append(sections, genericSections(result)...)

	if metadata := metadataSection(result); len(metadata.Fields) > 0 {
		sections = append(sections, metadata)
	}

	if raw, err := json.MarshalIndent(result, "", "  "); err == nil {
		sections = append(sections, Section{
			Kind:  SectionRawJSON,
			Name:  "raw-json",
			Title: "Raw JSON",
			Text:  string(raw),
		})
	}

	return sections
}

// DefaultCollapsed reports whether a section starts collapsed when no
// stored preference exists. Metadata and the raw dump hide by default.
func DefaultCollapsed(name string) bool {
	return name == "metadata" || name == "raw-json"
}

// contentSections extracts text, thinking and tool_use blocks from the
// content list, preserving source order. A missing or malformed list
// yields no sections.
func contentSections(value any) []Section {
	blocks, ok := value.([]any)
	if !ok {
		return nil
	}
	var sections []Section
	for _, raw := range blocks {
		block, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		switch stringValue(block["type"]) {
		case "text":
			if text := stringValue(block["text"]); text != "" {
				sections = append(sections, Section{
					Kind: SectionProse,
					Name: "prose",
					Text: text,
				})
			}
		case "thinking":
			text := stringValue(block["thinking"])
			if text == "" {
				text = stringValue(block["text"])
			}
			if text != "" {
				sections = append(sections, Section{
					Kind:  SectionThinking,
					Name:  "thinking",
					Title: "Thinking",
					Text:  text,
				})
			}
		case "tool_use":
			name := stringValue(block["name"])
			if name == "" {
				continue
			}
			sections = append(sections, Section{
				Kind:  SectionToolUse,
				Name:  "tool:" + name,
				Title: name,
				Tool: ToolUse{
					ID:    stringValue(block["id"]),
					Name:  name,
					Input: indentedJSON(block["input"]),
				},
			})
		}
	}
	return sections
}

// genericSections renders the remaining top-level keys: anything not
// recognized and not pure metadata becomes a secondary section. Keys
// sort for deterministic output since decoded maps are unordered.
func genericSections(result map[string]any) []Section {
	keys := make([]string, 0, len(result))
	for key := range result {
		if recognizedKeys[key] || metadataKeys[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sections := make([]Section, 0, len(keys))
	for _, key := range keys {
		section := Section{
			Kind:  SectionGeneric,
			Name:  key,
			Title: titleCase(key),
		}
		switch typed := result[key].(type) {
		case map[string]any:
			section.Fields = fieldsFromMap(typed, "")
		default:
			section.Fields = []Field{{Key: key, Value: compactValue(typed)}}
		}
		if len(section.Fields) == 0 {
			continue
		}
		sections = append(sections, section)
	}
	return sections
}

func metadataSection(result map[string]any) Section {
	section := Section{
		Kind:  SectionMetadata,
		Name:  "metadata",
		Title: "Metadata",
	}
	if model := stringValue(result["model"]); model != "" {
		section.Fields = append(section.Fields, Field{Key: "model", Value: model})
	}
	if reason := stringValue(result["stop_reason"]); reason != "" {
		section.Fields = append(section.Fields, Field{Key: "stop_reason", Value: reason})
	}
	if usage, ok := result["usage"].(map[string]any); ok {
		section.Fields = append(section.Fields, fieldsFromMap(usage, "usage.")...)
	}
	return section
}

func fieldsFromMap(value map[string]any, prefix string) []Field {
	keys := make([]string, 0, len(value))
	for key := range value {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, Field{Key: prefix + key, Value: compactValue(value[key])})
	}
	return fields
}

// normalizeFileList accepts a bare string or a list and returns a
// uniform string slice. Non-string list elements are stringified.
func normalizeFileList(value any) []string {
	switch typed := value.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		return []string{typed}
	case []any:
		files := make([]string, 0, len(typed))
		for _, item := range typed {
			text := compactValue(item)
			if strings.TrimSpace(text) == "" {
				continue
			}
			files = append(files, text)
		}
		return files
	default:
		return nil
	}
}

// titleCase turns a snake_case key into a Title Case heading.
func titleCase(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func stringValue(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func compactValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return fmt.Sprintf("%t", typed)
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%g", typed)
	default:
		raw, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return string(raw)
	}
}

func indentedJSON(value any) string {
	if value == nil {
		return ""
	}
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(raw)
}
