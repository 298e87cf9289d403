package app

import "testing"

func TestFilterProfileFields(t *testing.T) {
	in := map[string]any{
		"displayName":  "  Ada  ",
		"timezone":     "Europe/Berlin",
		"deliveryTime": "07:30",
		"voice":        "calm",
		"plan":         "MAX",
		"user_id":      "someone-else",
		"age":          42,
	}

	got := filterProfileFields(in)

	want := map[string]string{
		"display_name":  "Ada",
		"timezone":      "Europe/Berlin",
		"delivery_time": "07:30",
		"voice":         "calm",
	}
	if len(got) != len(want) {
		t.Fatalf("filterProfileFields kept %d fields, want %d: %+v", len(got), len(want), got)
	}
	for col, val := range want {
		if got[col] != val {
			t.Fatalf("filterProfileFields[%s] = %q, want %q", col, got[col], val)
		}
	}
	if _, ok := got["plan"]; ok {
		t.Fatalf("filterProfileFields must drop plan")
	}
}

func TestFilterProfileFieldsDropsNonStrings(t *testing.T) {
	got := filterProfileFields(map[string]any{"displayName": 7, "voice": true})
	if len(got) != 0 {
		t.Fatalf("filterProfileFields kept non-string values: %+v", got)
	}
}

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(""); v.Valid {
		t.Fatalf("nullIfEmpty(\"\") should be invalid")
	}
	if v := nullIfEmpty("x"); !v.Valid || v.String != "x" {
		t.Fatalf("nullIfEmpty(\"x\") = %+v", v)
	}
}
