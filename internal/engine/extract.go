package engine

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// fencedJSONRe matches a ```json fenced block (the json tag is optional).
var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSONObject locates and decodes a JSON object in free-form model
// text. Three strategies are tried in order: a fenced code block, the
// first balanced top-level {...} span, then the whole text. The error is
// only informational; callers fall back to a neutral verdict on failure.
func ExtractJSONObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty response")
	}

	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if fields, err := decodeObject(m[1]); err == nil {
			return fields, nil
		}
	}

	if span := firstBraceSpan(text); span != "" {
		if fields, err := decodeObject(span); err == nil {
			return fields, nil
		}
	}

	return decodeObject(text)
}

// decodeObject strictly decodes a single JSON object.
func decodeObject(s string) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// firstBraceSpan returns the first balanced top-level {...} span, aware
// of string literals and escapes. Empty when no balanced span exists.
func firstBraceSpan(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

// Field accessors with defaulting. Model output is untrusted: missing or
// mistyped fields yield the supplied neutral default instead of zero
// values leaking through.

// FloatField reads a numeric field, accepting JSON numbers and numeric strings.
func FloatField(fields map[string]any, key string, def float64) float64 {
	v, ok := fields[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		var f float64
		if err := json.Unmarshal([]byte(n), &f); err == nil {
			return f
		}
	}
	return def
}

// IntField reads an integer field.
func IntField(fields map[string]any, key string, def int) int {
	f := FloatField(fields, key, float64(def))
	return int(f)
}

// StringField reads a string field.
func StringField(fields map[string]any, key, def string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return def
}

// BoolField reads a boolean field.
func BoolField(fields map[string]any, key string, def bool) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return def
}

// StringSliceField reads an array-of-strings field, skipping non-string
// elements.
func StringSliceField(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ObjectSliceField reads an array-of-objects field.
func ObjectSliceField(fields map[string]any, key string) []map[string]any {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
