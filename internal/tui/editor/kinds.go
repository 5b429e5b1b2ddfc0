package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/altinukshini/scale-tui/internal/model"
)

// Kind adapts one editable Scale resource to the editor. Documents cross
// this boundary as the JSON text being edited.
type Kind interface {
	// Noun names one record, e.g. "strike".
	Noun() string
	// Collection is the route of the record list, e.g. "strikes".
	Collection() string
	DraftKey(id int64) string
	// Template is the starting text of a new record.
	Template() string
	// Check decodes text as the record with the given id and runs the local
	// validation.
	Check(text string, id int64) error
	Load(ctx context.Context, id int64) (string, error)
	Save(ctx context.Context, text string, id int64) (Saved, error)
	Validate(ctx context.Context, text string, id int64) (*model.ValidationResult, error)
}

// Saved is what the server returned for a saved record.
type Saved struct {
	ID   int64
	Name string
	Text string
}

// StrikeSource is the strike API the editor talks to.
type StrikeSource interface {
	GetStrike(ctx context.Context, id int64) (*model.Strike, error)
	SaveStrike(ctx context.Context, s model.Strike) (*model.Strike, error)
	ValidateStrike(ctx context.Context, s model.Strike) (*model.ValidationResult, error)
}

// WorkspaceSource is the workspace API the editor talks to.
type WorkspaceSource interface {
	GetWorkspace(ctx context.Context, id int64) (*model.Workspace, error)
	SaveWorkspace(ctx context.Context, w model.Workspace) (*model.Workspace, error)
	ValidateWorkspace(ctx context.Context, w model.Workspace) (*model.ValidationResult, error)
}

// StrikeTemplate is the starting point of a new strike.
func StrikeTemplate() model.Strike {
	return model.Strike{
		Name:  "new-strike",
		Title: "New Strike",
		Configuration: model.StrikeConfiguration{
			Version:   model.StrikeConfigurationVersion,
			Workspace: "",
			Monitor:   model.StrikeMonitor{Type: "dir-watcher", TransferSuffix: "_tmp"},
			FilesToIngest: []model.StrikeFile{
				{FilenameRegex: ".*", DataTypes: []string{}},
			},
		},
	}
}

// WorkspaceTemplate is the starting point of a new workspace.
func WorkspaceTemplate() model.Workspace {
	return model.Workspace{
		Name:     "new-workspace",
		Title:    "New Workspace",
		IsActive: true,
		Configuration: model.WorkspaceConfiguration{
			Version: model.WorkspaceConfigurationVersion,
			Broker:  model.WorkspaceBroker{Type: "host"},
		},
	}
}

// Strikes edits strike definitions.
func Strikes(src StrikeSource) Kind {
	return &kind[model.Strike]{
		noun:       "strike",
		collection: "strikes",
		template:   StrikeTemplate,
		draftKey:   func(id int64) string { return model.Strike{ID: id}.DraftKey() },
		setID:      func(s *model.Strike, id int64) { s.ID = id },
		identity:   func(s model.Strike) (int64, string) { return s.ID, s.Name },
		strip: func(s *model.Strike) {
			s.Job = nil
			s.Created = nil
			s.LastModified = nil
		},
		check:    model.Strike.Validate,
		get:      src.GetStrike,
		save:     src.SaveStrike,
		validate: src.ValidateStrike,
	}
}

// Workspaces edits workspace definitions.
func Workspaces(src WorkspaceSource) Kind {
	return &kind[model.Workspace]{
		noun:       "workspace",
		collection: "workspaces",
		template:   WorkspaceTemplate,
		draftKey:   func(id int64) string { return model.Workspace{ID: id}.DraftKey() },
		setID:      func(w *model.Workspace, id int64) { w.ID = id },
		identity:   func(w model.Workspace) (int64, string) { return w.ID, w.Name },
		strip: func(w *model.Workspace) {
			w.Created = nil
			w.LastModified = nil
		},
		check:    model.Workspace.Validate,
		get:      src.GetWorkspace,
		save:     src.SaveWorkspace,
		validate: src.ValidateWorkspace,
	}
}

// kind implements Kind for one record type T.
type kind[T any] struct {
	noun       string
	collection string
	template   func() T
	draftKey   func(id int64) string
	setID      func(*T, int64)
	identity   func(T) (int64, string)
	strip      func(*T)
	check      func(T) error
	get        func(context.Context, int64) (*T, error)
	save       func(context.Context, T) (*T, error)
	validate   func(context.Context, T) (*model.ValidationResult, error)
}

func (k *kind[T]) Noun() string             { return k.noun }
func (k *kind[T]) Collection() string       { return k.collection }
func (k *kind[T]) DraftKey(id int64) string { return k.draftKey(id) }
func (k *kind[T]) Template() string         { return k.render(k.template()) }

// render is the editable text of v. Fields the server owns are left out.
func (k *kind[T]) render(v T) string {
	k.strip(&v)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// decode reads text strictly, keeping the id of the record being edited.
func (k *kind[T]) decode(text string, id int64) (T, error) {
	var v T
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return v, fmt.Errorf("invalid JSON: unexpected text after the %s", k.noun)
	}
	k.setID(&v, id)
	return v, nil
}

func (k *kind[T]) Check(text string, id int64) error {
	v, err := k.decode(text, id)
	if err != nil {
		return err
	}
	return k.check(v)
}

func (k *kind[T]) Load(ctx context.Context, id int64) (string, error) {
	v, err := k.get(ctx, id)
	if err != nil {
		return "", err
	}
	return k.render(*v), nil
}

func (k *kind[T]) Save(ctx context.Context, text string, id int64) (Saved, error) {
	v, err := k.decode(text, id)
	if err != nil {
		return Saved{}, err
	}
	out, err := k.save(ctx, v)
	if err != nil {
		return Saved{}, err
	}
	savedID, name := k.identity(*out)
	return Saved{ID: savedID, Name: name, Text: k.render(*out)}, nil
}

func (k *kind[T]) Validate(ctx context.Context, text string, id int64) (*model.ValidationResult, error) {
	v, err := k.decode(text, id)
	if err != nil {
		return nil, err
	}
	return k.validate(ctx, v)
}
