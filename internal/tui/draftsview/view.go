package draftsview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/ui"
)

// OpenMsg asks the app to open the location behind an entry.
type OpenMsg struct {
	Route string
}

// DeleteMsg asks the app to confirm removing entries. All clears every
// draft and cached log.
type DeleteMsg struct {
	Drafts []string
	Logs   []int64
	All    bool
}

func (d DeleteMsg) Prompt() string {
	if d.All {
		return "Delete every local draft and cached log?"
	}
	var parts []string
	if n := len(d.Drafts); n > 0 {
		parts = append(parts, fmt.Sprintf("%d draft(s)", n))
	}
	if n := len(d.Logs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d cached log(s)", n))
	}
	return "Delete " + strings.Join(parts, " and ") + "?"
}

// Entry is either a draft or a cached execution log.
type Entry struct {
	Draft *cache.Draft
	Log   *cache.CacheEntry
}

func (e Entry) id() string {
	if e.Draft != nil {
		return "d:" + e.Draft.Key
	}
	return "l:" + strconv.FormatInt(e.Log.ExecutionID, 10)
}

func (e Entry) modified() time.Time {
	if e.Draft != nil {
		return e.Draft.Modified
	}
	return e.Log.LastAccessed
}

func (e Entry) size() int64 {
	if e.Draft != nil {
		return e.Draft.Size
	}
	return e.Log.Size
}

// Route is the location the entry opens, or "" for a draft whose key names
// no editable record.
func (e Entry) Route() string {
	if e.Draft != nil {
		collection, id, ok := model.ParseDraftKey(e.Draft.Key)
		switch {
		case !ok:
			return ""
		case id == 0:
			return collection + "/new"
		}
		return fmt.Sprintf("%s/%d/edit", collection, id)
	}
	return fmt.Sprintf("jobs/%d/logs?exe=%d", e.Log.JobID, e.Log.ExecutionID)
}

type entryItem struct {
	entry    Entry
	selected bool
	now      time.Time
}

func (c entryItem) Title() string {
	mark := " "
	if c.selected {
		mark = ui.StyleWarning.Render("● ")
	}
	size := ui.StyleWarning.Render(transform.FormatBytes(float64(c.entry.size())))
	if d := c.entry.Draft; d != nil {
		return fmt.Sprintf("%s%s %s  %s", mark, ui.StyleInfo.Render("draft"), d.Key, size)
	}
	l := c.entry.Log
	return fmt.Sprintf("%s%s job %d / execution %d  %s", mark, ui.StyleMuted.Render("log"), l.JobID, l.ExecutionID, size)
}

func (c entryItem) Description() string {
	var parts []string
	if l := c.entry.Log; l != nil {
		if l.JobType != "" {
			parts = append(parts, l.JobType)
		}
		if l.Status != "" {
			parts = append(parts, ui.StatusStyle(l.Status).Render(l.Status))
		}
		if len(l.Streams) > 0 {
			parts = append(parts, strings.Join(l.Streams, ","))
		}
		if l.Node != "" {
			parts = append(parts, ui.StyleMuted.Render(l.Node))
		}
		parts = append(parts, ui.StyleMuted.Render("last used "+relativeTime(l.LastAccessed, c.now)))
	} else {
		parts = append(parts, ui.StyleMuted.Render("edited "+relativeTime(c.entry.Draft.Modified, c.now)))
	}
	return strings.Join(parts, "  ")
}

func (c entryItem) FilterValue() string {
	if c.entry.Draft != nil {
		return c.entry.Draft.Key
	}
	return fmt.Sprintf("%d %d %s %s", c.entry.Log.JobID, c.entry.Log.ExecutionID, c.entry.Log.JobType, c.entry.Log.Status)
}

// SortMode determines how entries are ordered.
type SortMode int

const (
	SortByModified SortMode = iota
	SortBySize
	SortByKind
)

func (s SortMode) String() string {
	switch s {
	case SortBySize:
		return "size"
	case SortByKind:
		return "kind"
	default:
		return "last used"
	}
}

type Model struct {
	list     list.Model
	drafts   *cache.DraftStore
	logs     *cache.LogCache
	entries  []Entry
	selected map[string]bool
	sortMode SortMode
	total    int64
	now      func() time.Time
	width    int
	height   int
	loading  bool
	err      error
}

func New(drafts *cache.DraftStore, logs *cache.LogCache) Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.DisableQuitKeybindings()

	return Model{
		list:     l,
		drafts:   drafts,
		logs:     logs,
		selected: make(map[string]bool),
		now:      time.Now,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Load lists drafts and cached logs.
func (m Model) Load() tea.Cmd {
	drafts, logs := m.drafts, m.logs
	return func() tea.Msg {
		var msg ui.DraftsLoadedMsg
		if drafts != nil {
			if msg.Drafts, msg.Err = drafts.List(""); msg.Err != nil {
				return msg
			}
		}
		if logs != nil {
			msg.Logs, msg.Err = logs.ListEntries()
		}
		return msg
	}
}

// Delete removes what req names and reports the outcome.
func (m Model) Delete(req DeleteMsg) tea.Cmd {
	drafts, logs := m.drafts, m.logs
	return func() tea.Msg {
		res := ui.ActionResultMsg{Action: "delete", Target: "drafts"}
		if req.All {
			n := 0
			if drafts != nil {
				n, res.Err = drafts.DeleteAll("")
				if res.Err != nil {
					return res
				}
			}
			if logs != nil {
				if res.Err = logs.DeleteAll(); res.Err != nil {
					return res
				}
			}
			res.Message = fmt.Sprintf("Cleared %d draft(s) and all cached logs", n)
			return res
		}
		for _, k := range req.Drafts {
			if res.Err = drafts.Delete(k); res.Err != nil {
				return res
			}
		}
		for _, id := range req.Logs {
			if res.Err = logs.DeleteEntry(id); res.Err != nil {
				return res
			}
		}
		res.Message = DeleteMsg{Drafts: req.Drafts, Logs: req.Logs}.summary()
		return res
	}
}

func (d DeleteMsg) summary() string {
	return strings.TrimSuffix(strings.Replace(d.Prompt(), "Delete", "Deleted", 1), "?")
}

func (m Model) Entries() []Entry {
	return m.entries
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.DraftsLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.entries = nil
		m.total = 0
		for i := range msg.Drafts {
			m.entries = append(m.entries, Entry{Draft: &msg.Drafts[i]})
		}
		for i := range msg.Logs {
			m.entries = append(m.entries, Entry{Log: &msg.Logs[i]})
		}
		for _, e := range m.entries {
			m.total += e.size()
		}
		m.selected = make(map[string]bool)
		m.sortEntries()
		return m, m.list.SetItems(m.buildItems())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one line for the header.
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		if m.IsFiltering() {
			break
		}
		switch {
		case msg.String() == " ":
			if item, ok := m.list.SelectedItem().(entryItem); ok {
				id := item.entry.id()
				if m.selected[id] {
					delete(m.selected, id)
				} else {
					m.selected[id] = true
				}
				return m, m.list.SetItems(m.buildItems())
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Sort):
			m.sortMode = (m.sortMode + 1) % 3
			m.sortEntries()
			return m, m.list.SetItems(m.buildItems())
		case key.Matches(msg, ui.Keys.Enter):
			if item, ok := m.list.SelectedItem().(entryItem); ok {
				route := item.entry.Route()
				if route == "" {
					return m, nil
				}
				return m, func() tea.Msg { return OpenMsg{Route: route} }
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Delete):
			req := m.deleteRequest()
			if len(req.Drafts)+len(req.Logs) == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return req }
		case msg.String() == "x":
			if len(m.entries) == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return DeleteMsg{All: true} }
		case key.Matches(msg, ui.Keys.Refresh):
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// deleteRequest covers the multi-selection, or the highlighted entry when
// nothing is selected.
func (m Model) deleteRequest() DeleteMsg {
	var req DeleteMsg
	add := func(e Entry) {
		if e.Draft != nil {
			req.Drafts = append(req.Drafts, e.Draft.Key)
		} else {
			req.Logs = append(req.Logs, e.Log.ExecutionID)
		}
	}
	if len(m.selected) == 0 {
		if item, ok := m.list.SelectedItem().(entryItem); ok {
			add(item.entry)
		}
		return req
	}
	for _, e := range m.entries {
		if m.selected[e.id()] {
			add(e)
		}
	}
	return req
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading drafts..."
	}
	if m.err != nil {
		return "\n  " + ui.ErrorText("Error: "+m.err.Error(), 0) + "\n\n  Press r to retry."
	}
	if len(m.entries) == 0 {
		return "\n  No drafts or cached logs.\n\n  Unsaved strike edits and finished execution logs are kept here."
	}

	drafts := 0
	for _, e := range m.entries {
		if e.Draft != nil {
			drafts++
		}
	}
	header := fmt.Sprintf("  %d drafts | %d cached logs | Total: %s | Sort: %s | space: select  s: sort  d: delete  x: clear all",
		drafts, len(m.entries)-drafts, transform.FormatBytes(float64(m.total)), m.sortMode)
	if n := len(m.selected); n > 0 {
		header += fmt.Sprintf(" | %d selected", n)
	}
	return ui.StyleMuted.Render(header) + "\n" + m.list.View()
}

// IsFiltering returns true when the user is actively typing a filter.
func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) SelectionCount() int {
	return len(m.selected)
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{
		ui.Keys.Sort,
		ui.Keys.Delete,
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear all")),
	}
}

func (m *Model) sortEntries() {
	switch m.sortMode {
	case SortByModified:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].modified().After(m.entries[j].modified())
		})
	case SortBySize:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].size() > m.entries[j].size()
		})
	case SortByKind:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].Draft != nil && m.entries[j].Draft == nil
		})
	}
}

func (m Model) buildItems() []list.Item {
	now := m.now()
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = entryItem{entry: e, selected: m.selected[e.id()], now: now}
	}
	return items
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
