// Package index queries the package index ahead of the publish step.
package index

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
)

const defaultBaseURL = "https://pypi.org"

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the package index's JSON API.
type Client struct {
	doer    Doer
	baseURL string
}

// Option for configuring the Client, primarily exists for testing.
type Option func(*Client)

// WithBaseURL overrides the package index base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func New(doer Doer, opts ...Option) *Client {
	c := &Client{
		doer:    doer,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProjectName derives the index project name from a resolved project path:
// the final path segment, with underscores normalized to hyphens the way the
// index normalizes them.
func ProjectName(projectPath string) string {
	return strings.ReplaceAll(path.Base(projectPath), "_", "-")
}

// Exists reports whether the given version of the project is already
// published on the index. The version may carry a 'v' prefix; the index
// stores versions without one.
func (c *Client) Exists(ctx context.Context, projectPath, version string) (bool, error) {
	name := ProjectName(projectPath)
	ver := strings.TrimPrefix(version, "v")

	u := fmt.Sprintf("%s/pypi/%s/%s/json", c.baseURL, name, ver)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("unable to create request: %w", err)
	}

	res, err := c.doer.Do(req)
	if err != nil {
		return false, fmt.Errorf("unable to query index: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unable to query index, status code: %d", res.StatusCode)
	}
}
