package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/mbeoliero/parley/pkg/errcode"
)

// Client is the REST collaborator client
type Client struct {
	baseURL    string
	httpClient *client.Client
	token      string

	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// ClientOption is a function to configure the client
type ClientOption func(*Client)

// WithHertzClient sets a custom Hertz client
func WithHertzClient(httpClient *client.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sets the authentication token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeouts sets the transport timeouts used when the client builds
// its own Hertz client
func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = dial
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// NewClient creates a new REST client
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:      baseURL,
		dialTimeout:  10 * time.Second,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		httpClient, err := client.NewClient(
			client.WithDialTimeout(c.dialTimeout),
			client.WithClientReadTimeout(c.readTimeout),
			client.WithWriteTimeout(c.writeTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}
		c.httpClient = httpClient
	}

	return c, nil
}

// MustNewClient creates a new REST client and panics on error
func MustNewClient(baseURL string, opts ...ClientOption) *Client {
	c, err := NewClient(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// SetToken sets the authentication token
func (c *Client) SetToken(token string) {
	c.token = token
}

// do sends a prepared request and decodes the JSON response body into result
func (c *Client) do(ctx context.Context, req *protocol.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp := &protocol.Response{}
	if err := c.httpClient.Do(ctx, req, resp); err != nil {
		return errcode.ErrNetworkFailure.Wrap(err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return errcode.ErrNetworkFailure.Wrap(fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return errcode.ErrNetworkFailure.Wrap(fmt.Errorf("decode response: %w", err))
		}
	}

	return nil
}

// get makes a GET request against a path relative to the base URL
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req := &protocol.Request{}
	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	return c.do(ctx, req, result)
}

// pathEscape escapes a single path segment
func pathEscape(segment string) string {
	return url.PathEscape(segment)
}
