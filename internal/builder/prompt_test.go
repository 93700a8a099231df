package builder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := map[string]Answer{
		"c":       AnswerCancel,
		"cancel":  AnswerCancel,
		"R":       AnswerRemove,
		"remove":  AnswerRemove,
		" k\n":    AnswerKeep,
		"keep":    AnswerKeep,
	}
	for in, want := range tests {
		got, err := ParseAnswer(in)
		if err != nil {
			t.Errorf("ParseAnswer(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAnswer(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseAnswer("maybe"); err == nil {
		t.Error("Expected an error for an unknown answer")
	}
}

func TestConsolePrompter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Answer
	}{
		{"default", "\n", AnswerCancel},
		{"end of input", "", AnswerCancel},
		{"alias", "remove\n", AnswerRemove},
		{"retry after invalid", "x\nk\n", AnswerKeep},
		{"no trailing newline", "r", AnswerRemove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewConsolePrompter(strings.NewReader(tt.input), &out)

			got, err := p.Ask("Build directory exists.")
			if err != nil {
				t.Fatalf("Ask failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if !strings.Contains(out.String(), "Build directory exists. [C/r/k]") {
				t.Errorf("Question not shown: %q", out.String())
			}
		})
	}
}

func TestLoadInstallLib(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install-lib")
	content := "#!/usr/bin/env bash\n# Shared helpers\n  # indented comment\nlog() {\n    echo \"$@\"\n}"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lib, err := loadInstallLib(path)
	if err != nil {
		t.Fatalf("loadInstallLib failed: %v", err)
	}

	want := "log() {\n    echo \"$@\"\n}"
	if lib != want {
		t.Errorf("Expected %q, got %q", want, lib)
	}
}
