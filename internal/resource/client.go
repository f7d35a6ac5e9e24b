// Package resource is a small REST client that addresses nested remote
// resources by path segment. Every client derived from a root shares one
// Options value, so credentials installed after construction (a bearer
// token, an OTP header) reach every later request.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single request when Options.HTTPClient is nil.
const DefaultTimeout = 30 * time.Second

// Options is the request configuration shared by a root client and all
// clients derived from it.
type Options struct {
	// Header is sent on every request. Per-call headers win on conflict.
	Header http.Header

	// Username and Password enable HTTP basic auth when Username is set
	// and no Authorization header is.
	Username string
	Password string

	// HTTPClient performs requests. Nil means a client with DefaultTimeout.
	HTTPClient *http.Client
}

// NewOptions returns Options carrying the given headers.
func NewOptions(header map[string]string) *Options {
	h := make(http.Header, len(header))
	for k, v := range header {
		h.Set(k, v)
	}
	return &Options{Header: h}
}

// SetHeader sets a shared header for all subsequent requests.
func (o *Options) SetHeader(name, value string) {
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	o.Header.Set(name, value)
}

// SetBasicAuth installs basic credentials for all subsequent requests.
func (o *Options) SetBasicAuth(username, password string) {
	o.Username = username
	o.Password = password
}

func (o *Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// Client addresses one remote resource. Clients are immutable; WithPath
// returns a new one.
type Client struct {
	url  string
	opts *Options
}

// New creates a root client at baseURL. A nil opts gets an empty Options.
func New(baseURL string, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	return &Client{url: strings.TrimSuffix(baseURL, "/"), opts: opts}
}

// WithPath returns a client for url/segment[/segment...], sharing this
// client's Options.
func (c *Client) WithPath(segments ...string) *Client {
	u := c.url
	for _, s := range segments {
		u += "/" + strings.Trim(s, "/")
	}
	return &Client{url: u, opts: c.opts}
}

// URL returns the resource URL.
func (c *Client) URL() string {
	if c.url == "" {
		return "/"
	}
	return c.url
}

// Options returns the shared options.
func (c *Client) Options() *Options {
	return c.opts
}

// Get issues a GET with params as the query string.
func (c *Client) Get(ctx context.Context, params url.Values) (*Response, error) {
	target := c.URL()
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, target, nil, "")
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, body any) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.URL(), bytes.NewReader(data), "application/json")
}

// PostForm issues a POST with form as an urlencoded body.
func (c *Client) PostForm(ctx context.Context, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.URL(), strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}

	for k, vs := range c.opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.opts.Username != "" && req.Header.Get("Authorization") == "" {
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}

	resp, err := c.opts.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", target, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Message returns the service's error text from a JSON error body, e.g.
// {"message":"Validation Failed","errors":[{"message":"key is already in use"}]}
// gives "Validation Failed: key is already in use". Empty when there is none.
func (r *Response) Message() string {
	if len(r.Body) == 0 || !gjson.ValidBytes(r.Body) {
		return ""
	}

	msg := gjson.GetBytes(r.Body, "message").String()
	if msg == "" {
		msg = gjson.GetBytes(r.Body, "error_description").String()
	}

	var details []string
	for _, d := range gjson.GetBytes(r.Body, "errors.#.message").Array() {
		if s := d.String(); s != "" {
			details = append(details, s)
		}
	}
	switch {
	case len(details) == 0:
		return msg
	case msg == "":
		return strings.Join(details, "; ")
	default:
		return msg + ": " + strings.Join(details, "; ")
	}
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.Status, err)
	}
	return nil
}
