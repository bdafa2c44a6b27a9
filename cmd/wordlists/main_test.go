package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeList(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestAnalyzeList(t *testing.T) {
	dir := t.TempDir()
	path := writeList(t, dir, "mixed.txt", "apple\n\nbridge\napple\n  castle  \nbridge\napple\n")

	a, err := analyzeList(path)
	if err != nil {
		t.Fatalf("analyzeList failed: %v", err)
	}

	if a.Name != "mixed" {
		t.Errorf("Expected name mixed, got %s", a.Name)
	}
	if a.Lines != 7 {
		t.Errorf("Expected 7 lines, got %d", a.Lines)
	}
	if a.Blank != 1 {
		t.Errorf("Expected 1 blank line, got %d", a.Blank)
	}
	if a.Distinct != 3 || a.MaxCount != 3 {
		t.Errorf("Expected 3 distinct words, got %d (max %d)", a.Distinct, a.MaxCount)
	}
	if strings.Join(a.Duplicates, ",") != "apple,bridge" {
		t.Errorf("Expected duplicates apple,bridge, got %v", a.Duplicates)
	}
}

func TestAnalyzeList_Missing(t *testing.T) {
	if _, err := analyzeList(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidateList(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		valid    bool
		warnings int
	}{
		{"single word", "apple\napple\n", false, 1},
		{"empty", "\n\n", false, 0},
		{"small", "apple\nbridge\ncastle\n", true, 1},
		{"full", words(20), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeList(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".txt", tt.content)
			result := validateList(path)

			if result.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v (errors: %v)", tt.valid, result.Valid, result.Errors)
			}
			if len(result.Warnings) != tt.warnings {
				t.Errorf("Expected %d warnings, got %v", tt.warnings, result.Warnings)
			}
		})
	}
}

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("word")
		b.WriteByte(byte('a' + i))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	ok := printValidation(&buf, []ValidationResult{
		{File: "good.txt", Valid: true},
		{File: "bad.txt", Valid: false, Errors: []string{"Only 1 distinct words, need at least 2"}},
	})

	if ok {
		t.Error("Expected report to fail when a list is invalid")
	}
	out := buf.String()
	for _, want := range []string{"good.txt", "✅ VALID", "❌ INVALID", "need at least 2", "Some word lists have errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "b.txt", "x\ny\n")
	writeList(t, dir, "a.txt", "x\ny\n")
	writeList(t, dir, "notes.md", "ignored")

	files, err := listFiles(dir)
	if err != nil {
		t.Fatalf("listFiles failed: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.txt" {
		t.Errorf("Expected sorted .txt files, got %v", files)
	}

	if _, err := listFiles(t.TempDir()); err == nil {
		t.Error("Expected error for directory without word lists")
	}
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "basic.txt", words(18))

	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf

	if err := app.Run(context.Background(), []string{"wordlists", "analyze", dir}); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "=== basic ===") || !strings.Contains(out, "Usable word counts: 2 to 18") {
		t.Errorf("Unexpected analyze output:\n%s", out)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "basic.txt", words(18))

	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf

	if err := app.Run(context.Background(), []string{"wordlists", "validate", dir}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if !strings.Contains(buf.String(), "All word lists are valid") {
		t.Errorf("Unexpected validate output:\n%s", buf.String())
	}
}
