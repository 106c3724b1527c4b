package engine

import "testing"

func TestExtractJSONObjectFencedBlock(t *testing.T) {
	text := "Here is my verdict:\n```json\n{\"score\": 0.8, \"confidence\": 0.9}\n```\nDone."
	fields, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("ExtractJSONObject() error = %v", err)
	}
	if got := FloatField(fields, "score", 0); got != 0.8 {
		t.Errorf("score = %v, want 0.8", got)
	}
}

func TestExtractJSONObjectUntaggedFence(t *testing.T) {
	text := "```\n{\"verdict\": \"true\"}\n```"
	fields, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("ExtractJSONObject() error = %v", err)
	}
	if got := StringField(fields, "verdict", ""); got != "true" {
		t.Errorf("verdict = %q, want true", got)
	}
}

func TestExtractJSONObjectBraceSpan(t *testing.T) {
	text := `The claim is likely false. {"score": 0.2, "notes": "weak {nested} evidence", "flags": ["a", "b"]} trailing prose`
	fields, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("ExtractJSONObject() error = %v", err)
	}
	if got := FloatField(fields, "score", 0); got != 0.2 {
		t.Errorf("score = %v, want 0.2", got)
	}
	if got := StringSliceField(fields, "flags"); len(got) != 2 {
		t.Errorf("flags = %v, want 2 entries", got)
	}
}

func TestExtractJSONObjectBraceInsideString(t *testing.T) {
	// The opening brace inside a string literal must not confuse the span scan.
	text := `{"text": "uses { and } freely", "ok": true}`
	fields, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("ExtractJSONObject() error = %v", err)
	}
	if !BoolField(fields, "ok", false) {
		t.Error("ok = false, want true")
	}
}

func TestExtractJSONObjectWholeText(t *testing.T) {
	fields, err := ExtractJSONObject(`  {"confidence": 1}  `)
	if err != nil {
		t.Fatalf("ExtractJSONObject() error = %v", err)
	}
	if got := FloatField(fields, "confidence", 0); got != 1 {
		t.Errorf("confidence = %v, want 1", got)
	}
}

func TestExtractJSONObjectFailures(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here at all",
		"{broken: json",
		"```json\nnot even close\n```",
	} {
		if _, err := ExtractJSONObject(text); err == nil {
			t.Errorf("ExtractJSONObject(%q) expected error", text)
		}
	}
}

func TestFieldDefaulting(t *testing.T) {
	fields := map[string]any{
		"num_str":  "0.7",
		"str":      "hello",
		"flag":     true,
		"mistyped": []any{1, 2},
		"mixed":    []any{"a", 3.0, "b"},
	}

	if got := FloatField(fields, "missing", 0.5); got != 0.5 {
		t.Errorf("FloatField missing = %v, want default 0.5", got)
	}
	if got := FloatField(fields, "num_str", 0); got != 0.7 {
		t.Errorf("FloatField numeric string = %v, want 0.7", got)
	}
	if got := FloatField(fields, "mistyped", 0.5); got != 0.5 {
		t.Errorf("FloatField mistyped = %v, want default", got)
	}
	if got := StringField(fields, "flag", "d"); got != "d" {
		t.Errorf("StringField mistyped = %q, want default", got)
	}
	if got := BoolField(fields, "str", false); got != false {
		t.Errorf("BoolField mistyped = %v, want default", got)
	}
	if got := StringSliceField(fields, "mixed"); len(got) != 2 {
		t.Errorf("StringSliceField mixed = %v, want only strings kept", got)
	}
	if got := IntField(fields, "num_str", 0); got != 0 {
		t.Errorf("IntField(0.7) = %d, want 0", got)
	}
}
