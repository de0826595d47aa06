// Package prompt renders the system prompt that teaches the model the
// Thought/Action/Input/Observation/Answer vocabulary.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

// Default is the built-in prompt template.
//
//go:embed prompt.txt
var Default string

// Tool is the subset of a tool's descriptor the prompt needs.
type Tool interface {
	Name() string
	Description() string
}

// Render substitutes {{toolNames}} with the comma-joined tool names and
// {{tools}} with one "  name: description" entry per tool separated by blank
// lines. Any other template action is rejected at parse time.
func Render(text string, tools []Tool) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	names := make([]string, len(tools))
	entries := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
		entries[i] = fmt.Sprintf("  %s: %s", t.Name(), t.Description())
	}

	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"toolNames": func() string { return strings.Join(names, ", ") },
		"tools":     func() string { return strings.Join(entries, "\n\n") },
	}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}

	return buf.String(), nil
}
