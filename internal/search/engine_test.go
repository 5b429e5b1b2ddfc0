package search

import (
	"testing"

	"github.com/altinukshini/scale-tui/internal/model"
)

func TestSearchPlainText(t *testing.T) {
	logs := map[string]string{
		"stdout":   "line 1: reading granule\nline 2: error: checksum mismatch\nline 3: done",
		"stderr":   "line 1: error: retrying download",
		"combined": "line 1: reading granule\nline 2: done",
	}

	engine := New()
	query := model.SearchQuery{
		Pattern:       "error",
		IsRegex:       false,
		CaseSensitive: true,
	}

	results := engine.Search(logs, query, 123)

	if results.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", results.TotalCount)
	}
	if len(results.StreamCounts) != 2 {
		t.Errorf("matched %d streams, want 2", len(results.StreamCounts))
	}
	if results.Matches[0].Stream != "stderr" || results.Matches[0].ExecutionID != 123 {
		t.Errorf("first match = %+v, want stderr first", results.Matches[0])
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	logs := map[string]string{
		"combined": "Error: file not found\nerror: missing dep\nwarning: unused var",
	}

	engine := New()
	query := model.SearchQuery{
		Pattern:       "error",
		CaseSensitive: false,
	}

	results := engine.Search(logs, query, 1)
	if results.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", results.TotalCount)
	}
}

func TestSearchRegex(t *testing.T) {
	logs := map[string]string{
		"combined": "Error: file not found\nerror: missing dep\nwarning: unused var",
	}

	engine := New()
	query := model.SearchQuery{
		Pattern:       `[Ee]rror:\s+\w+`,
		IsRegex:       true,
		CaseSensitive: true,
	}

	results := engine.Search(logs, query, 1)
	if results.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", results.TotalCount)
	}
}

func TestSearchStreamPattern(t *testing.T) {
	engine := New()
	query := model.SearchQuery{
		Pattern:       "done",
		StreamPattern: `^std`,
	}

	logs := map[string]string{
		"stdout":   "compile\ndone",
		"stderr":   "compile\ndone",
		"combined": "run\ndone",
	}

	results := engine.Search(logs, query, 1)
	if results.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", results.TotalCount)
	}
	if _, ok := results.StreamCounts["combined"]; ok {
		t.Error("stream pattern should exclude combined")
	}
}

func TestMatchLines(t *testing.T) {
	engine := New()
	lines, err := engine.MatchLines("a\nFAILED b\nc\nfailed d", model.SearchQuery{Pattern: "failed"})
	if err != nil {
		t.Fatalf("MatchLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != 1 || lines[1] != 3 {
		t.Errorf("lines = %v", lines)
	}
	if _, err := engine.MatchLines("x", model.SearchQuery{Pattern: "([", IsRegex: true}); err == nil {
		t.Error("invalid regex should error")
	}
}
