package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GetExecutionLog downloads an execution's log as plain text. stream is one
// of stdout, stderr or combined. With a non-zero since only newer lines are
// returned. An execution with no logs yet yields "".
func (c *Client) GetExecutionLog(ctx context.Context, exeID int64, stream string, since time.Time) (string, error) {
	if stream == "" {
		stream = "combined"
	}
	path := fmt.Sprintf("job-executions/%d/logs/%s/", exeID, stream)
	q := url.Values{}
	if !since.IsZero() {
		q.Set("started", since.UTC().Format(time.RFC3339))
	}
	resp, err := c.RawRequest(ctx, http.MethodGet, path, q, nil, http.Header{"Accept": {"text/plain"}})
	if err != nil {
		return "", fmt.Errorf("execution %d log: %w", exeID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return "", nil
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("execution %d log: %w", exeID, newAPIError(http.MethodGet, path, resp))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read execution %d log: %w", exeID, err)
	}
	return string(data), nil
}
