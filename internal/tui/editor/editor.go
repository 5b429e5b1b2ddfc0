// Package editor edits the JSON definition of a Scale record such as a
// strike or a workspace. Edits are kept as a local draft until they are
// saved to the server or discarded.
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
)

const autosaveDelay = 750 * time.Millisecond

// CloseMsg asks the app to leave the editor. Collection is the list the
// closed document belongs to.
type CloseMsg struct {
	Collection string
}

type autosaveMsg struct {
	seq int
}

var (
	keySave     = key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save"))
	keyValidate = key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "validate"))
	keyDiscard  = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "discard draft"))
	keyClose    = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
)

type Options struct {
	Kinds    []Kind
	Drafts   *cache.DraftStore
	ReadOnly bool
	Logger   *zap.Logger
}

type Model struct {
	kinds    map[string]Kind
	drafts   *cache.DraftStore
	readOnly bool
	logger   *zap.Logger

	kind      Kind
	area      textarea.Model
	id        int64
	original  string
	fromDraft bool
	dirty     bool
	seq       int
	loading   bool
	saving    bool
	status    string
	problems  []string
	warnings  []model.ValidationWarning
	err       error
	code      int
	width     int
	height    int
}

func New(opts Options) Model {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	kinds := make(map[string]Kind, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kinds[k.Collection()] = k
	}
	return Model{
		kinds:    kinds,
		drafts:   opts.Drafts,
		readOnly: opts.ReadOnly,
		logger:   logger,
		area:     ta,
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Handles reports whether records of collection can be edited.
func (m Model) Handles(collection string) bool {
	_, ok := m.kinds[collection]
	return ok
}

// Collection is the collection of the open document, or "" before the
// first Open.
func (m Model) Collection() string {
	if m.kind == nil {
		return ""
	}
	return m.kind.Collection()
}

func (m Model) ID() int64       { return m.id }
func (m Model) Text() string    { return m.area.Value() }
func (m Model) Dirty() bool     { return m.dirty }
func (m Model) FromDraft() bool { return m.fromDraft }
func (m Model) Status() string  { return m.status }

// Problems are the local validation failures of the current text.
func (m Model) Problems() []string { return m.problems }

func title(noun string) string {
	if noun == "" {
		return noun
	}
	return strings.ToUpper(noun[:1]) + noun[1:]
}

// Open loads record id of collection, or the kind's template when id is 0.
// A stored draft wins over the server copy.
func (m Model) Open(collection string, id int64) (Model, tea.Cmd) {
	k, ok := m.kinds[collection]
	if !ok {
		m.kind = nil
		m.err = fmt.Errorf("%s cannot be edited", collection)
		return m, nil
	}
	m.kind = k
	m.id = id
	m.loading = true
	m.dirty = false
	m.fromDraft = false
	m.original = ""
	m.err = nil
	m.code = 0
	m.status = ""
	m.problems = nil
	m.warnings = nil
	m.seq++
	m.area.Placeholder = title(k.Noun()) + " JSON"

	if m.drafts != nil {
		var text string
		ok, err := m.drafts.Load(k.DraftKey(id), &text)
		if err != nil {
			m.logger.Warn("draft unreadable", zap.String("key", k.DraftKey(id)), zap.Error(err))
		}
		if ok {
			return m, func() tea.Msg {
				return ui.DocumentLoadedMsg{Collection: collection, ID: id, Text: text, FromDraft: true}
			}
		}
	}
	if id == 0 {
		text := k.Template()
		return m, func() tea.Msg {
			return ui.DocumentLoadedMsg{Collection: collection, Text: text}
		}
	}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		text, err := k.Load(ctx, id)
		return ui.DocumentLoadedMsg{Collection: collection, ID: id, Text: text, Err: err}
	}
}

// check runs local validation and records its problems.
func (m *Model) check() bool {
	m.problems = nil
	if err := m.kind.Check(m.area.Value(), m.id); err != nil {
		m.problems = strings.Split(err.Error(), "\n")
		return false
	}
	return true
}

func (m Model) validate() tea.Cmd {
	k, text, id := m.kind, m.area.Value(), m.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := k.Validate(ctx, text, id)
		return ui.DocumentValidatedMsg{Collection: k.Collection(), Result: res, Err: err}
	}
}

func (m Model) save() tea.Cmd {
	k, text, id := m.kind, m.area.Value(), m.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		out, err := k.Save(ctx, text, id)
		return ui.DocumentSavedMsg{Collection: k.Collection(), ID: out.ID, Name: out.Name, Text: out.Text, Err: err}
	}
}

// storeDraft writes the current text under the document's draft key.
func (m Model) storeDraft() {
	if m.drafts == nil || m.kind == nil {
		return
	}
	if err := m.drafts.Save(m.kind.DraftKey(m.id), m.area.Value()); err != nil {
		m.logger.Warn("draft not saved", zap.String("key", m.kind.DraftKey(m.id)), zap.Error(err))
	}
}

func (m Model) dropDraft() {
	if m.drafts == nil || m.kind == nil {
		return
	}
	if err := m.drafts.Delete(m.kind.DraftKey(m.id)); err != nil {
		m.logger.Warn("draft not deleted", zap.String("key", m.kind.DraftKey(m.id)), zap.Error(err))
	}
}

// Flush writes a pending draft immediately. The app calls it when the
// editor is left.
func (m Model) Flush() Model {
	if m.dirty {
		m.storeDraft()
	}
	m.seq++
	return m
}

func (m Model) current(collection string) bool {
	return m.kind != nil && m.kind.Collection() == collection
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.DocumentLoadedMsg:
		if !m.current(msg.Collection) || msg.ID != m.id {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			return m, nil
		}
		m.fromDraft = msg.FromDraft
		m.area.SetValue(msg.Text)
		if msg.FromDraft {
			m.dirty = true
			m.status = "Restored unsaved draft"
		} else {
			m.original = msg.Text
		}
		if !m.readOnly {
			return m, m.area.Focus()
		}
		return m, nil

	case autosaveMsg:
		if msg.seq == m.seq && m.dirty {
			m.storeDraft()
			m.status = "Draft saved"
		}
		return m, nil

	case ui.DocumentValidatedMsg:
		if !m.current(msg.Collection) {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			m.warnings = api.Warnings(msg.Err)
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.warnings = msg.Result.Warnings
		m.status = "Configuration is valid"
		if n := len(m.warnings); n > 0 {
			m.status = fmt.Sprintf("Valid with %d warning(s)", n)
		}
		return m, nil

	case ui.DocumentSavedMsg:
		if !m.current(msg.Collection) {
			return m, nil
		}
		m.saving = false
		if msg.Err != nil {
			// The draft stays so nothing is lost.
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			m.warnings = api.Warnings(msg.Err)
			m.status = ""
			return m, nil
		}
		m.dropDraft()
		m.err = nil
		m.warnings = nil
		m.id = msg.ID
		m.original = msg.Text
		m.area.SetValue(m.original)
		m.dirty = false
		m.fromDraft = false
		noun := m.kind.Noun()
		m.status = fmt.Sprintf("Saved %s %d", noun, m.id)
		name := msg.Name
		return m, func() tea.Msg {
			return ui.ActionResultMsg{Action: "save", Target: noun + " " + name, Message: title(noun) + " saved"}
		}

	case tea.KeyMsg:
		if key.Matches(msg, keyClose) {
			m = m.Flush()
			collection := m.Collection()
			return m, func() tea.Msg { return CloseMsg{Collection: collection} }
		}
		if m.kind == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keyValidate):
			m.err = nil
			m.warnings = nil
			if !m.check() {
				m.status = ""
				return m, nil
			}
			m.status = "Validating..."
			return m, m.validate()
		case key.Matches(msg, keySave):
			if m.readOnly {
				m.status = "Read-only mode: saving is disabled"
				return m, nil
			}
			m.err = nil
			m.warnings = nil
			if !m.check() {
				return m, nil
			}
			m.saving = true
			m.status = "Saving..."
			return m, m.save()
		case key.Matches(msg, keyDiscard):
			m.dropDraft()
			m.dirty = false
			return m.Open(m.kind.Collection(), m.id)
		}
		if m.readOnly || m.loading {
			return m, nil
		}
		before := m.area.Value()
		var cmd tea.Cmd
		m.area, cmd = m.area.Update(msg)
		if m.area.Value() != before {
			m.dirty = true
			m.seq++
			seq := m.seq
			m.status = ""
			return m, tea.Batch(cmd, tea.Tick(autosaveDelay, func(time.Time) tea.Msg {
				return autosaveMsg{seq: seq}
			}))
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.area.SetWidth(msg.Width - 2)
		m.area.SetHeight(max(msg.Height-6, 3))
	}
	return m, nil
}

func (m Model) View() string {
	if m.kind == nil {
		if m.err != nil {
			return "\n  " + ui.ErrorText("Error: "+m.err.Error(), m.code)
		}
		return ""
	}
	noun := m.kind.Noun()
	if m.loading {
		return "\n  Loading " + noun + "..."
	}
	if m.err != nil && m.original == "" && !m.fromDraft && m.area.Value() == "" {
		return "\n  " + ui.ErrorText("Error: "+m.err.Error(), m.code)
	}

	heading := "New " + noun
	if m.id != 0 {
		heading = fmt.Sprintf("%s #%d", title(noun), m.id)
	}
	flags := ""
	if m.fromDraft || m.dirty {
		flags += ui.StyleWarning.Render(" [draft]")
	}
	if m.readOnly {
		flags += ui.StyleMuted.Render(" [read-only]")
	}

	var b strings.Builder
	b.WriteString("  " + ui.StyleBold.Render(heading) + flags + "\n")
	b.WriteString(m.area.View() + "\n")

	switch {
	case m.err != nil:
		b.WriteString("  " + ui.ErrorText(m.err.Error(), m.code))
		if len(m.warnings) > 0 {
			b.WriteString("\n  " + ui.StyleWarning.Render(m.warnings[0].Details))
		}
	case len(m.problems) > 0:
		b.WriteString("  " + ui.StyleFailure.Render(m.problems[0]))
		if n := len(m.problems) - 1; n > 0 {
			b.WriteString(ui.StyleMuted.Render(fmt.Sprintf(" (+%d more)", n)))
		}
	case len(m.warnings) > 0:
		b.WriteString("  " + ui.StyleWarning.Render(m.status+": "+m.warnings[0].Details))
	case m.status != "":
		b.WriteString("  " + ui.StyleMuted.Render(m.status))
	}
	return b.String()
}

func (m Model) ShortHelp() []key.Binding {
	if m.readOnly {
		return []key.Binding{keyValidate, keyClose}
	}
	return []key.Binding{keySave, keyValidate, keyDiscard, keyClose}
}
