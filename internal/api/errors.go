package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/altinukshini/scale-tui/internal/model"
)

// APIError is a non-2xx response from Scale. Detail carries the "detail"
// message DRF puts in error bodies when there is one. Validation endpoints
// may also list warnings next to the errors.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
	Warnings   []model.ValidationWarning
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e.Body = strings.TrimSpace(string(data))

	var payload struct {
		Detail   string                    `json:"detail"`
		Warnings []model.ValidationWarning `json:"warnings"`
	}
	ok := json.Unmarshal(data, &payload) == nil
	if ok {
		e.Warnings = payload.Warnings
	}
	if ok && payload.Detail != "" {
		e.Detail = payload.Detail
	} else if len(e.Body) > 0 && len(e.Body) < 200 && !strings.HasPrefix(e.Body, "<") {
		e.Detail = e.Body
	}
	return e
}

// StatusCode returns the HTTP status of an API error, or 0 for transport
// errors.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Warnings returns the validation warnings an API error carries.
func Warnings(err error) []model.ValidationWarning {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Warnings
	}
	return nil
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
