package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/altinukshini/scale-tui/internal/model"
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Search looks for query in each log stream of one execution. Streams are
// searched in name order so results are stable.
func (e *Engine) Search(logs map[string]string, query model.SearchQuery, exeID int64) *model.SearchResults {
	results := &model.SearchResults{
		Query:        query,
		StreamCounts: make(map[string]int),
	}

	matcher, err := buildMatcher(query)
	if err != nil {
		return results
	}

	streams := make([]string, 0, len(logs))
	for name := range logs {
		streams = append(streams, name)
	}
	sort.Strings(streams)

	for _, stream := range streams {
		if query.StreamPattern != "" {
			matched, _ := regexp.MatchString(query.StreamPattern, stream)
			if !matched {
				continue
			}
		}

		lines := strings.Split(logs[stream], "\n")
		for i, line := range lines {
			if matcher(line) {
				results.Matches = append(results.Matches, model.SearchResult{
					ExecutionID: exeID,
					Stream:      stream,
					Line:        i + 1,
					Content:     line,
				})
				results.StreamCounts[stream]++
				results.TotalCount++
			}
		}
	}

	return results
}

// MatchLines returns the 0-based indices of the lines of content matching
// query. An invalid regex matches nothing and returns its compile error.
func (e *Engine) MatchLines(content string, query model.SearchQuery) ([]int, error) {
	matcher, err := buildMatcher(query)
	if err != nil {
		return nil, err
	}
	var out []int
	for i, line := range strings.Split(content, "\n") {
		if matcher(line) {
			out = append(out, i)
		}
	}
	return out, nil
}

func buildMatcher(query model.SearchQuery) (func(string) bool, error) {
	if query.IsRegex {
		flags := ""
		if !query.CaseSensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + query.Pattern)
		if err != nil {
			return nil, err
		}
		return func(line string) bool { return re.MatchString(line) }, nil
	}

	pattern := query.Pattern
	if !query.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	return func(line string) bool {
		if !query.CaseSensitive {
			line = strings.ToLower(line)
		}
		return strings.Contains(line, pattern)
	}, nil
}
