package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/altinukshini/scale-tui/internal/model"
)

// GetNodeStatus returns per-node health over the window in q (started/ended).
func (c *Client) GetNodeStatus(ctx context.Context, q url.Values) (*model.NodeStatusResponse, error) {
	var resp model.NodeStatusResponse
	if err := c.Get(ctx, "nodes/status/", q, &resp); err != nil {
		return nil, fmt.Errorf("node status: %w", err)
	}
	return &resp, nil
}

// UpdateNode pauses or resumes a node.
func (c *Client) UpdateNode(ctx context.Context, nodeID int64, update model.NodeUpdate) (*model.Node, error) {
	var node model.Node
	if err := c.Patch(ctx, fmt.Sprintf("nodes/%d/", nodeID), update, &node); err != nil {
		return nil, fmt.Errorf("update node %d: %w", nodeID, err)
	}
	return &node, nil
}
