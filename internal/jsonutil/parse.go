// Package jsonutil extracts JSON payloads from LLM responses, which may wrap
// them in markdown code fences or surround them with prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripMarkdownFences returns the body of a ```json ... ``` (or bare ```)
// block. Text that does not open with a fence is returned trimmed.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// ExtractJSON returns the span from the first '{' or '[' to the last matching
// closing delimiter.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", fmt.Errorf("no JSON content found")
	}

	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}

	text = text[start:]
	end := strings.LastIndex(text, closing)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closing)
	}
	return text[:end+1], nil
}

// ParseJSON strips fences, extracts the JSON span and unmarshals it into T.
func ParseJSON[T any](raw string) (T, error) {
	var zero T

	span, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return zero, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	var result T
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(span, 200))
	}
	return result, nil
}

// ParseStringList parses a list of strings from an LLM response. Both a bare
// array (["a", "b"]) and an object holding a single array field
// ({"captions": ["a", "b"]}) are accepted. Entries are cleaned with
// CleanText and empty entries are dropped.
func ParseStringList(raw string) ([]string, error) {
	span, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return nil, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	var list []string
	if span[0] == '{' {
		var wrapper map[string][]string
		if err := json.Unmarshal([]byte(span), &wrapper); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(span, 200))
		}
		if len(wrapper) != 1 {
			return nil, fmt.Errorf("expected one array field, got %d", len(wrapper))
		}
		for _, v := range wrapper {
			list = v
		}
	} else if err := json.Unmarshal([]byte(span), &list); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(span, 200))
	}

	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = CleanText(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// CleanText trims whitespace and one layer of wrapping quotes from a single
// line of model output.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(s) >= len(q)+len(closing) && strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) {
			s = strings.TrimSpace(s[len(q) : len(s)-len(closing)])
			break
		}
	}
	return s
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
