package model

// LogStreams are the log names an execution exposes.
var LogStreams = []string{"stdout", "stderr", "combined"}

type SearchResult struct {
	ExecutionID int64
	Stream      string
	Line        int
	Content     string
}

type SearchQuery struct {
	Pattern       string
	IsRegex       bool
	CaseSensitive bool
	StreamPattern string
}

type SearchResults struct {
	Query        SearchQuery
	Matches      []SearchResult
	StreamCounts map[string]int // stream -> match count
	TotalCount   int
}
