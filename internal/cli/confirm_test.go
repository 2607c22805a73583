package cli

import (
	"strings"
	"testing"
)

func TestReadConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"  YES  \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"anything else\n", false},
		{"", false}, // closed stdin
	}

	for _, tt := range tests {
		var out strings.Builder
		got := readConfirm(strings.NewReader(tt.input), &out, "Delete it?")
		if got != tt.want {
			t.Errorf("readConfirm(%q) = %t, want %t", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete it?") {
			t.Errorf("prompt missing message: %q", out.String())
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt missing default hint: %q", out.String())
		}
	}
}

func TestReadConfirmDefaultMessage(t *testing.T) {
	var out strings.Builder
	readConfirm(strings.NewReader("n\n"), &out, "")
	if !strings.Contains(out.String(), "Proceed?") {
		t.Errorf("expected fallback message, got %q", out.String())
	}
}
