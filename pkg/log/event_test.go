package log

import (
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindTimer, "TIMER"},
		{KindCountdown, "COUNTDOWN"},
		{Kind(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.kind.String()
		if got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryState, "STATE"},
		{CategoryTick, "TICK"},
		{CategoryDrift, "DRIFT"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.cat.String()
		if got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, name := range []string{"state", "TICK", "Drift", "error"} {
		c, err := ParseCategory(name)
		if err != nil {
			t.Errorf("ParseCategory(%q) error = %v", name, err)
			continue
		}
		if !strings.EqualFold(c.String(), name) {
			t.Errorf("ParseCategory(%q) = %v", name, c)
		}
	}

	if _, err := ParseCategory("unknown"); err == nil {
		t.Error("ParseCategory(unknown) error = nil")
	}
}
