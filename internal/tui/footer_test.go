package tui

import (
	"strings"
	"testing"
)

func TestRenderFooterFormats(t *testing.T) {
	out := renderFooter(true, 80, 76, 100)
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Last 80%", "All-time 76%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterWithoutHistory(t *testing.T) {
	out := renderFooter(false, 0, 0, 0)
	if strings.Contains(out, "Last") {
		t.Fatalf("unexpected last segment: %s", out)
	}
	if !strings.Contains(out, "All-time 0%") {
		t.Fatalf("expected all-time segment: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
