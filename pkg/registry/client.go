// File: pkg/registry/client.go
// Brief: Minimal npm registry client for template metadata lookups.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultURL is the public npm registry.
const DefaultURL = "https://registry.npmjs.org"

const maxDocumentSize = 32 << 20

// Document is the subset of a registry package document the tool reads.
type Document struct {
	Name     string            `json:"name"`
	Version  string            `json:"version,omitempty"`
	DistTags map[string]string `json:"dist-tags,omitempty"`
	Latest   string            `json:"latest,omitempty"`
}

// LatestVersion returns the "latest" dist-tag, falling back to a top-level
// "latest" field as served by the dist-tags endpoint.
func (d Document) LatestVersion() string {
	if v := strings.TrimSpace(d.DistTags["latest"]); v != "" {
		return v
	}
	return strings.TrimSpace(d.Latest)
}

// StatusError reports a non-200 registry response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry request %s failed: %s", e.URL, e.Status)
}

// Client talks to a package registry over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient returns a Client rooted at baseURL (DefaultURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = 10 * time.Second
	c := &Client{baseURL: baseURL, http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EscapeName encodes a package name for use as a registry path segment.
// Scoped names keep their leading "@" and escape the separating slash.
func EscapeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "/", "%2f")
}

// Package fetches the package document for name.
func (c *Client) Package(ctx context.Context, name string) (Document, error) {
	var doc Document
	err := c.getJSON(ctx, c.baseURL+"/"+EscapeName(name), &doc)
	return doc, err
}

// DistTags fetches the dist-tags of name.
func (c *Client) DistTags(ctx context.Context, name string) (map[string]string, error) {
	tags := map[string]string{}
	if err := c.getJSON(ctx, c.baseURL+"/-/package/"+EscapeName(name)+"/dist-tags", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Open streams an arbitrary URL, typically a package tarball. The caller
// closes the returned body.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}
