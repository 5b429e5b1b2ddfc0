package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Search   key.Binding
	Location key.Binding
	Filter   key.Binding
	Sort     key.Binding
	Reverse  key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Grow     key.Binding
	Shrink   key.Binding
	Cancel   key.Binding
	Requeue  key.Binding
	Log      key.Binding
	Pause    key.Binding
	Edit     key.Binding
	New      key.Binding
	Delete   key.Binding
	Up       key.Binding
	Down     key.Binding
}

var Keys = KeyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-tab", "prev tab")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Location: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "location")),
	Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
	Reverse:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort order")),
	PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev page")),
	NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next page")),
	Grow:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "page size")),
	Shrink:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "page size")),
	Cancel:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "cancel job")),
	Requeue:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "requeue")),
	Log:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log")),
	Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}
