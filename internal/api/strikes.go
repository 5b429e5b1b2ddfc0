package api

import (
	"context"
	"fmt"

	"github.com/altinukshini/scale-tui/internal/model"
)

func (c *Client) GetStrike(ctx context.Context, id int64) (*model.Strike, error) {
	var s model.Strike
	if err := c.Get(ctx, fmt.Sprintf("strikes/%d/", id), nil, &s); err != nil {
		return nil, fmt.Errorf("get strike %d: %w", id, err)
	}
	return &s, nil
}

// SaveStrike creates the strike when it has no id and updates it otherwise.
func (c *Client) SaveStrike(ctx context.Context, s model.Strike) (*model.Strike, error) {
	var out model.Strike
	if s.ID == 0 {
		if err := c.Post(ctx, "strikes/", s, &out); err != nil {
			return nil, fmt.Errorf("create strike: %w", err)
		}
		return &out, nil
	}
	body := struct {
		Title         string                    `json:"title"`
		Description   string                    `json:"description"`
		Configuration model.StrikeConfiguration `json:"configuration"`
	}{s.Title, s.Description, s.Configuration}
	if err := c.Patch(ctx, fmt.Sprintf("strikes/%d/", s.ID), body, &out); err != nil {
		return nil, fmt.Errorf("update strike %d: %w", s.ID, err)
	}
	return &out, nil
}

// ValidateStrike runs server side validation. An invalid configuration comes
// back as an *APIError with status 400 and the reason in Detail.
func (c *Client) ValidateStrike(ctx context.Context, s model.Strike) (*model.ValidationResult, error) {
	var out model.ValidationResult
	if err := c.Post(ctx, "strikes/validation/", s, &out); err != nil {
		return nil, fmt.Errorf("validate strike: %w", err)
	}
	return &out, nil
}
