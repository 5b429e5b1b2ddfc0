package searchview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		want model.SearchQuery
	}{
		{"error", model.SearchQuery{Pattern: "error"}},
		{"/err(or)?/", model.SearchQuery{Pattern: "err(or)?", IsRegex: true}},
		{"stream:stderr WARN", model.SearchQuery{Pattern: "WARN", StreamPattern: "^stderr$"}},
		{"case: /Fatal/", model.SearchQuery{Pattern: "Fatal", IsRegex: true, CaseSensitive: true}},
		{"//", model.SearchQuery{Pattern: "//"}},
	}
	for _, tt := range tests {
		if got := ParseQuery(tt.in); got != tt.want {
			t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSearchFlow(t *testing.T) {
	m := New()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.Activate()
	for _, r := range "ERROR" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run, ok := cmd().(RunMsg)
	if !ok || run.Query.Pattern != "ERROR" {
		t.Fatalf("run = %#v", run)
	}

	res := &model.SearchResults{
		Matches: []model.SearchResult{
			{ExecutionID: 7, Stream: "stderr", Line: 3, Content: "ERROR a"},
			{ExecutionID: 7, Stream: "stdout", Line: 9, Content: "ERROR b"},
		},
		StreamCounts: map[string]int{"stderr": 1, "stdout": 1},
		TotalCount:   2,
	}
	m, _ = m.Update(ui.SearchResultsMsg{Results: res})
	if m.IsInputMode() {
		t.Fatal("still in input mode after results")
	}
	if !strings.Contains(m.View(), "2 matches across 2 streams") {
		t.Errorf("view:\n%s", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	jump, ok := cmd().(JumpMsg)
	if !ok || jump.Stream != "stdout" || jump.Line != 9 {
		t.Errorf("jump = %#v", jump)
	}
	if m.IsActive() {
		t.Error("search stayed open after jumping")
	}
}
