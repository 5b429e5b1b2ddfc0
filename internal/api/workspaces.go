package api

import (
	"context"
	"fmt"

	"github.com/altinukshini/scale-tui/internal/model"
)

func (c *Client) GetWorkspace(ctx context.Context, id int64) (*model.Workspace, error) {
	var w model.Workspace
	if err := c.Get(ctx, fmt.Sprintf("workspaces/%d/", id), nil, &w); err != nil {
		return nil, fmt.Errorf("get workspace %d: %w", id, err)
	}
	return &w, nil
}

// SaveWorkspace creates the workspace when it has no id and updates it
// otherwise. The name of an existing workspace cannot change.
func (c *Client) SaveWorkspace(ctx context.Context, w model.Workspace) (*model.Workspace, error) {
	var out model.Workspace
	if w.ID == 0 {
		if err := c.Post(ctx, "workspaces/", w, &out); err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
		return &out, nil
	}
	body := struct {
		Title         string                       `json:"title"`
		Description   string                       `json:"description"`
		BaseURL       string                       `json:"base_url,omitempty"`
		IsActive      bool                         `json:"is_active"`
		Configuration model.WorkspaceConfiguration `json:"configuration"`
	}{w.Title, w.Description, w.BaseURL, w.IsActive, w.Configuration}
	if err := c.Patch(ctx, fmt.Sprintf("workspaces/%d/", w.ID), body, &out); err != nil {
		return nil, fmt.Errorf("update workspace %d: %w", w.ID, err)
	}
	return &out, nil
}

// ValidateWorkspace runs server side validation of a workspace definition.
func (c *Client) ValidateWorkspace(ctx context.Context, w model.Workspace) (*model.ValidationResult, error) {
	var out model.ValidationResult
	if err := c.Post(ctx, "workspaces/validation/", w, &out); err != nil {
		return nil, fmt.Errorf("validate workspace: %w", err)
	}
	return &out, nil
}
