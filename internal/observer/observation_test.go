package observer

import (
	"testing"
)

func TestParseSummary(t *testing.T) {
	text := `ACTIVITY: browsing documentation in firefox
WINDOWS: Firefox, xterm
TEXT: "Go by Example: Channels"
ERRORS: none`

	summary := parseSummary(text)
	if summary == nil {
		t.Fatal("parseSummary returned nil for well-formed text")
	}
	want := map[string]string{
		"activity": "browsing documentation in firefox",
		"windows":  "Firefox, xterm",
		"text":     `"Go by Example: Channels"`,
		"errors":   "none",
	}
	for key, value := range want {
		if summary[key] != value {
			t.Errorf("summary[%q] = %q, want %q", key, summary[key], value)
		}
	}
}

func TestParseSummaryToleratesDecoration(t *testing.T) {
	text := "Here is what I see:\n" +
		"- **ACTIVITY: typing in a terminal**\n" +
		"  WINDOWS: xterm\n" +
		"# ERRORS: none\n" +
		"unrelated trailing prose"

	summary := parseSummary(text)
	if summary["activity"] != "typing in a terminal" {
		t.Errorf("activity = %q, want decorated line recovered", summary["activity"])
	}
	if summary["windows"] != "xterm" {
		t.Errorf("windows = %q, want xterm", summary["windows"])
	}
	if summary["errors"] != "none" {
		t.Errorf("errors = %q, want none", summary["errors"])
	}
	if _, ok := summary["text"]; ok {
		t.Error("absent TEXT line must not appear in the summary")
	}
}

func TestParseSummaryUnstructuredTextIsNil(t *testing.T) {
	if got := parseSummary("the screen shows a desktop"); got != nil {
		t.Fatalf("parseSummary = %v, want nil for unstructured text", got)
	}
}

func TestErrorIndicators(t *testing.T) {
	tests := []struct {
		errors string
		want   bool
	}{
		{"none", false},
		{"None.", false},
		{"no errors", false},
		{"N/A", false},
		{"", false},
		{"segfault dialog visible", true},
		{"Error: connection refused", true},
	}
	for _, tt := range tests {
		obs := Observation{Summary: map[string]string{"errors": tt.errors}}
		if got := obs.ErrorIndicators(); got != tt.want {
			t.Errorf("ErrorIndicators(%q) = %v, want %v", tt.errors, got, tt.want)
		}
	}

	var noSummary Observation
	if noSummary.ErrorIndicators() {
		t.Error("observation without a summary must report no error indicators")
	}
}

func FuzzParseSummary(f *testing.F) {
	f.Add("ACTIVITY: x\nWINDOWS: y\nTEXT: z\nERRORS: none")
	f.Add("")
	f.Add("**ACTIVITY:**")
	f.Fuzz(func(t *testing.T, text string) {
		summary := parseSummary(text)
		for key := range summary {
			switch key {
			case "activity", "windows", "text", "errors":
			default:
				t.Fatalf("unexpected summary key %q", key)
			}
		}
	})
}
