package cli

import (
	"testing"
)

func TestArgCounts(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"add without address", []string{"add"}},
		{"mark without args", []string{"mark"}},
		{"mark with one arg", []string{"mark", "a"}},
		{"mark with three args", []string{"mark", "a", "Accepted", "extra"}},
		{"remove without id", []string{"remove"}},
		{"accept without id", []string{"accept"}},
		{"no-answer with two ids", []string{"no-answer", "a", "b"}},
		{"list with arg", []string{"list", "extra"}},
		{"finish-day with arg", []string{"finish-day", "now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
