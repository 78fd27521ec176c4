// Package client is a thin typed wrapper around the messaging platform's
// v4 REST API. Every method maps to exactly one endpoint; there is no
// retry, caching or batching here. Failure handling beyond status-code
// decoding belongs to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/l0r3zz/mattermost-webapp/apierror"
	"github.com/trebent/zerologr"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type (
	Opts struct {
		// ServerURL is the platform's root URL, without the API prefix.
		ServerURL string
		Timeout   time.Duration
		// HTTPClient overrides the default instrumented client. Mostly
		// useful in tests.
		HTTPClient *http.Client
	}
	Client struct {
		baseURL    string
		httpClient *http.Client

		// Session token captured from the last Login. The client is
		// meant to be driven sequentially from a single test script, so
		// no locking guards it.
		token string
	}
)

const (
	apiPrefix = "/api/v4"

	// TokenHeader is the response header carrying the session token
	// after a successful login.
	TokenHeader = "Token"

	defaultTimeout = 4 * time.Second
)

func New(opts *Opts) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		baseURL:    opts.ServerURL + apiPrefix,
		httpClient: httpClient,
	}
}

// SetToken installs a previously captured session token, e.g. one served
// from the harness session cache.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

// do performs a single API round trip. A non-nil in is JSON-encoded as
// the request body, a non-nil out receives the decoded response body.
// Non-2xx responses are returned as *apierror.Error.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	in, out any,
) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	zerologr.V(50).Info("API call", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close() // nolint: errcheck

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := apierror.FromResponse(resp)
		zerologr.V(20).Info(
			"API call failed",
			"method", method, "path", path, "status_code", apiErr.StatusCode(),
		)
		return resp, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return resp, nil
}
