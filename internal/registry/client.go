package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

// MaxTarballSize bounds downloaded archives.
const MaxTarballSize = 50 << 20

// searchLimit is the page size sent with search requests.
const searchLimit = 50

// ErrUnauthorized indicates a 401 or 403 from a registry.
var ErrUnauthorized = errors.New("registry rejected credentials")

// API is the registry HTTP surface. token may be empty for anonymous calls.
type API interface {
	Search(ctx context.Context, registryURL, query, token string) ([]ProfileSummary, error)
	Packument(ctx context.Context, registryURL, name, token string) (*Packument, error)
	Tarball(ctx context.Context, registryURL, name, version, token string) ([]byte, error)
	Upload(ctx context.Context, registryURL, name string, req UploadRequest, token string) (*UploadResult, error)
}

// StatusError is a non-2xx registry response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is maps 404 to ErrNotFound and 401/403 to ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	switch target {
	case errors.ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}

// Client implements API over net/http.
type Client struct {
	http      *http.Client
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.http = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) { cl.userAgent = ua }
}

// NewClient returns a registry client with a 30 second timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "nori",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ API = (*Client)(nil)

func endpoint(registryURL string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(registryURL, "/") + "/" + strings.Join(escaped, "/")
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Redacted())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Method: req.Method,
			URL:    req.URL.Redacted(),
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	if int64(len(data)) > limit {
		return nil, errors.Newf("response from %s exceeds %d bytes", req.URL.Redacted(), limit)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, target, token string, v any) error {
	req, err := c.newRequest(ctx, http.MethodGet, target, nil, token)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req, 10<<20)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding response from %s", target)
	}
	return nil
}

// Search calls GET /profiles/search.
func (c *Client) Search(ctx context.Context, registryURL, query, token string) ([]ProfileSummary, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("offset", "0")

	var out []ProfileSummary
	if err := c.getJSON(ctx, endpoint(registryURL, "profiles", "search")+"?"+q.Encode(), token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Packument calls GET /profiles/{name}.
func (c *Client) Packument(ctx context.Context, registryURL, name, token string) (*Packument, error) {
	var p Packument
	if err := c.getJSON(ctx, endpoint(registryURL, "profiles", name), token, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Tarball calls GET /profiles/{name}/tarball/{name}-{version}.tgz.
func (c *Client) Tarball(ctx context.Context, registryURL, name, version, token string) ([]byte, error) {
	target := endpoint(registryURL, "profiles", name, "tarball", name+"-"+version+".tgz")
	req, err := c.newRequest(ctx, http.MethodGet, target, nil, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")
	return c.do(req, MaxTarballSize)
}

// Upload calls PUT /profiles/{name}/profile with a multipart form.
func (c *Client) Upload(ctx context.Context, registryURL, name string, up UploadRequest, token string) (*UploadResult, error) {
	if token == "" {
		return nil, errors.Wrap(ErrUnauthorized, "upload requires registry credentials")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("archive", name+".tgz")
	if err != nil {
		return nil, errors.Wrap(err, "creating multipart form")
	}
	if _, err := part.Write(up.Archive); err != nil {
		return nil, errors.Wrap(err, "writing archive")
	}
	if err := w.WriteField("version", up.Version); err != nil {
		return nil, errors.Wrap(err, "writing version")
	}
	if up.Description != "" {
		if err := w.WriteField("description", up.Description); err != nil {
			return nil, errors.Wrap(err, "writing description")
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart form")
	}

	req, err := c.newRequest(ctx, http.MethodPut, endpoint(registryURL, "profiles", name, "profile"), &body, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req, 1<<20)
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decoding upload response")
	}
	return &res, nil
}
