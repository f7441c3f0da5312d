package httpclient

import (
	"io"
	"net/http"
	"time"
)

// Client defines the HTTP calls made to outbound collaborators
// (event triggers, the AI engine) so they can be mocked in tests
type Client interface {
	Post(url, contentType string, body io.Reader) (*http.Response, error)
	Do(req *http.Request) (*http.Response, error)
}

// StandardHTTPClient wraps the standard http.Client
type StandardHTTPClient struct {
	client *http.Client
}

// NewStandardClient creates a client with a 30s timeout
func NewStandardClient() Client {
	return NewClient(30 * time.Second)
}

// NewClient creates a client with the given overall request timeout
func NewClient(timeout time.Duration) Client {
	return &StandardHTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

func (c *StandardHTTPClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	return c.client.Post(url, contentType, body)
}

func (c *StandardHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}
