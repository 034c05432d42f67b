package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client talks to the generateContent endpoint through a retrying Executor.
type Client struct {
	apiKey   string
	baseURL  string
	model    string
	executor *Executor
}

// Options configures NewClient.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
	// Transport overrides the default *http.Client, mainly for tests.
	Transport Transport
}

// NewClient constructs a Gemini client. The API key is required.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("gemini model cannot be empty")
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	transport := opts.Transport
	if transport == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		transport = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:   opts.APIKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    opts.Model,
		executor: NewExecutor(transport, opts.Retry, logger),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate posts req and returns the raw success body. Failures are always
// *RequestError.
func (c *Client) Generate(ctx context.Context, req GenerateContentRequest) (RawResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return RawResponse{}, fmt.Errorf("encode generate content request: %w", err)
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return c.executor.Execute(ctx, Call{
		Method: http.MethodPost,
		URL:    c.endpoint(),
		Header: header,
		Body:   payload,
	})
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// scrubURL drops the request URL from transport errors so the query-string
// key never reaches logs or responses.
func scrubURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}
