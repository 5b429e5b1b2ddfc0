package ui

import (
	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/poll"
	"github.com/altinukshini/scale-tui/internal/transform"
)

// Data fetched messages. Every message produced by a polled widget carries
// the ticket it was fetched under; the widget drops it unless its handle
// still accepts the ticket.

type PageLoadedMsg struct {
	View   string
	Ticket poll.Ticket
	Page   *api.Page
	Err    error
}

type RecordLoadedMsg struct {
	Path   string
	Record transform.Row
	Job    *model.Job
	Err    error
}

type LogLoadedMsg struct {
	ExecutionID int64
	Stream      string
	Content     string
	// Append is set for incremental fetches of a running execution.
	Append bool
	Ticket poll.Ticket
	Err    error
}

type OverviewLoadedMsg struct {
	Ticket  poll.Ticket
	Status  *model.SystemStatus
	Queue   *model.QueueStatus
	Load    *model.JobLoad
	// Running and Types are optional widgets; a failure of either leaves it
	// nil without failing the overview.
	Running *model.RunningStatus
	Types   *model.JobTypeStatusList
	Err     error
}

type NodeStatusLoadedMsg struct {
	Ticket poll.Ticket
	Nodes  *model.NodeStatusResponse
	Err    error
}

// Document messages carry the collection of the editor that asked for them,
// so a reply for a document that is no longer open is dropped.

type DocumentLoadedMsg struct {
	Collection string
	ID         int64
	Text       string
	FromDraft  bool
	Err        error
}

type DocumentValidatedMsg struct {
	Collection string
	Result     *model.ValidationResult
	Err        error
}

type DocumentSavedMsg struct {
	Collection string
	ID         int64
	Name       string
	Text       string
	Err        error
}

type SearchResultsMsg struct {
	Results *model.SearchResults
	Err     error
}

type DraftsLoadedMsg struct {
	Drafts []cache.Draft
	Logs   []cache.CacheEntry
	Err    error
}

// Tick messages

// PollTickMsg fires a refresh of the widget named Target. It is ignored
// unless Gen is still the widget's current generation.
type PollTickMsg struct {
	Target string
	Gen    uint64
}

// Action messages

type ActionResultMsg struct {
	Action  string
	Target  string
	Message string
	Err     error
}

// NavigatedMsg tells the app that a widget pushed a new location onto the
// router.
type NavigatedMsg struct{}

type StatusMsg struct {
	Text string
}
