package main

import (
	"strings"
	"testing"
)

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"water", "Water"},
		{"ROAD", "Road"},
		{" drainage ", "Drainage"},
		{"Lighting", "Lighting"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeCategory(tc.in); got != tc.want {
			t.Errorf("normalizeCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	long := strings.Repeat("a", 50)
	got := truncate(long, 10)
	if len(got) >= 50 || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate long = %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID short input = %q", got)
	}
}

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Category"},
		[][]string{{"1", "Water"}, {"2", "Road"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	for _, want := range []string{"ID", "Category", "Water", "Road"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
}
