package e2etesting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type HTTPClient struct {
	Client  *http.Client
	BaseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: baseURL,
	}
}

type RequestOptions struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) GetJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (r *Response) GetString() string {
	return string(r.Body)
}

func (r *Response) AssertStatus(t *testing.T, expectedStatus int) {
	t.Helper()
	require.Equal(t, expectedStatus, r.StatusCode, "unexpected status code. Response: %s", r.GetString())
}

func (c *HTTPClient) Get(path string) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodGet, Path: path})
}

func (c *HTTPClient) Post(path string, body any) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodPost, Path: path, Body: body})
}

func (c *HTTPClient) Patch(path string, body any) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodPatch, Path: path, Body: body})
}

// Request sends opts.Body as JSON. A json.RawMessage body is sent as is.
func (c *HTTPClient) Request(opts *RequestOptions) (*Response, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(opts.Method, c.BaseURL+opts.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{Response: resp, Body: body}, nil
}

// WithCookieJar returns a client that keeps the admin session cookie
// between requests.
func (c *HTTPClient) WithCookieJar() *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		Client:  &http.Client{Timeout: c.Client.Timeout, Jar: jar},
		BaseURL: c.BaseURL,
	}
}
