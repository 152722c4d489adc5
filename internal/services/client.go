package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/desertthunder/cardx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	apiPath      = "/api/latest"
	maxErrorBody = 2048
)

// Client is the HTTP [Transport] for one instance.
//
// Requests carry a static bearer token through [oauth2.Client] and are paced by an optional [rate.Limiter].
type Client struct {
	domain     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Transport = (*Client)(nil)

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithBaseURL overrides the API root derived from the domain.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit caps the request rate. Zero or negative disables pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// BaseURL returns the API root of an instance domain.
func BaseURL(domain string) string {
	return "https://" + shared.NormalizeDomain(domain) + apiPath
}

// NewClient creates a client for domain authenticated with token.
//
// ctx supplies the underlying [http.Client] via [oauth2.HTTPClient] when set.
func NewClient(ctx context.Context, domain, token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token for %s", shared.ErrMissingCredentials, domain)
	}
	if domain == "" {
		return nil, fmt.Errorf("%w: domain is required", shared.ErrInvalidConfig)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c := &Client{
		domain:     shared.NormalizeDomain(domain),
		baseURL:    BaseURL(domain),
		httpClient: oauth2.NewClient(ctx, ts),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Domain returns the instance host name.
func (c *Client) Domain() string {
	return c.domain
}

// Do performs an authenticated request to the instance API.
func (c *Client) Do(ctx context.Context, r Request, result any) error {
	apiURL := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		apiURL += "?" + r.Query.Encode()
	}

	body, contentType, err := encodeBody(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, apiURL, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			rc.Close()
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readTransportError(req, resp)
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Download fetches an absolute URL with the client's credentials.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readTransportError(req, resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read download: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if req.Body != nil {
				req.Body.Close()
			}
			return nil, err
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// encodeBody builds a JSON or multipart body. Multipart bodies carry their own boundary content type.
//
// Multipart bodies are streamed from the file contents as the transport reads them; closing the
// returned reader stops the writer.
func encodeBody(r Request) (io.Reader, string, error) {
	if len(r.Files) > 0 {
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		go func() {
			pw.CloseWithError(writeParts(mw, r.Files))
		}()
		return pr, mw.FormDataContentType(), nil
	}

	if r.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func writeParts(mw *multipart.Writer, files []FilePart) error {
	for _, f := range files {
		field := f.Field
		if field == "" {
			field = "file"
		}
		part, err := mw.CreateFormFile(field, f.Filename)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("failed to write form file %s: %w", f.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}
	return nil
}

func readTransportError(req *http.Request, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &TransportError{
		Method: req.Method,
		URL:    req.URL.String(),
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(data)),
	}
}
