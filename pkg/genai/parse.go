package genai

import (
	"encoding/json"
	"strings"

	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

// ExtractJSONObject locates the first balanced {...} object in free text and
// unmarshals it into dest. Completions often wrap the object in prose or
// markdown fences, so everything around the object is ignored. Parsing fails
// closed: no partial result is ever returned.
func ExtractJSONObject(text string, dest interface{}) error {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return appErrors.Clone(appErrors.ErrUpstreamMalformed, "no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if err := json.Unmarshal([]byte(text[start:i+1]), dest); err != nil {
					return appErrors.Wrap(err, appErrors.ErrUpstreamMalformed.Code, appErrors.ErrUpstreamMalformed.Status, "invalid JSON object in response")
				}
				return nil
			}
		}
	}

	return appErrors.Clone(appErrors.ErrUpstreamMalformed, "unterminated JSON object in response")
}

// ParseList splits completion text into list items: one per line, leading
// bullet and number markers stripped, blank lines dropped. Order is
// preserved.
func ParseList(text string) []string {
	lines := strings.Split(text, "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		item := stripListMarker(strings.TrimSpace(line))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func stripListMarker(line string) string {
	switch {
	case strings.HasPrefix(line, "- "):
		return strings.TrimSpace(line[2:])
	case strings.HasPrefix(line, "* "):
		return strings.TrimSpace(line[2:])
	case strings.HasPrefix(line, "• "):
		return strings.TrimSpace(strings.TrimPrefix(line, "• "))
	}

	// Numbered markers: "1. item", "12) item".
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}

	return line
}
