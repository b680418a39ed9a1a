// internal/template/template.go
//
// Placeholder templating for message texts. Placeholders use the {#name}
// syntax; name must resolve to an attribute on the recipient record.
package template

import (
	"fmt"
	"strings"
)

const (
	markerStart = "{#"
	markerEnd   = "}"
)

// FormatError reports a malformed template, e.g. an unterminated marker.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("template format error: %s", e.Detail)
}

// TextData is the result of compiling one template against one record.
type TextData struct {
	Template     string
	Placeholders []string
	CompiledText string
}

// ExtractPlaceholders scans the text for {#name} markers and returns the
// names in order of appearance, duplicates included. An opening marker
// without a closing bracket is a format error.
func ExtractPlaceholders(text string) ([]string, error) {
	names := []string{}

	rest := text
	for {
		start := strings.Index(rest, markerStart)
		if start < 0 {
			return names, nil
		}
		rest = rest[start+len(markerStart):]

		end := strings.Index(rest, markerEnd)
		if end < 0 {
			detail := rest
			if len(detail) > 5 {
				detail = detail[:5]
			}
			return nil, &FormatError{Detail: fmt.Sprintf("missing closing bracket %s", detail)}
		}

		names = append(names, rest[:end])
		rest = rest[end+len(markerEnd):]
	}
}

// Compile substitutes the placeholders with the matching fields of record.
// Each placeholder replaces the first remaining occurrence of its literal
// marker, so a marker repeated in the text is consumed once per extracted
// occurrence rather than globally. Inputs are never mutated. Passing nil
// placeholders extracts them from the text.
func Compile(text string, record map[string]string, placeholders []string) (TextData, error) {
	if placeholders == nil {
		extracted, err := ExtractPlaceholders(text)
		if err != nil {
			return TextData{}, err
		}
		placeholders = extracted
	}

	compiled := text
	for _, name := range placeholders {
		marker := markerStart + name + markerEnd
		compiled = strings.Replace(compiled, marker, record[name], 1)
	}

	return TextData{
		Template:     text,
		Placeholders: placeholders,
		CompiledText: compiled,
	}, nil
}
