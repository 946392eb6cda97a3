// Package backend talks to the hosted backend-as-a-service: the REST data
// API, the auth service and object storage. Every request carries the
// project API key and a bearer token.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// DefaultTimeout bounds each backend request.
const DefaultTimeout = 10 * time.Second

var (
	errMissingURL    = errors.New("backend: url is required")
	errMissingAPIKey = errors.New("backend: api key is required")
)

// Options configures a Client.
type Options struct {
	URL        string
	APIKey     string
	JWTSecret  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin HTTP client for the hosted backend.
type Client struct {
	base      *url.URL
	apiKey    string
	jwtSecret []byte
	http      *http.Client
}

// NewClient validates the options and builds a client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errMissingURL
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errMissingAPIKey
	}
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var secret []byte
	if opts.JWTSecret != "" {
		secret = []byte(opts.JWTSecret)
	}
	return &Client{base: base, apiKey: opts.APIKey, jwtSecret: secret, http: httpClient}, nil
}

// APIError is a non-2xx backend response. Error returns the service's own
// message so it can be shown verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

type request struct {
	method  string
	path    string
	query   url.Values
	token   string
	body    io.Reader
	headers map[string]string
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = encodeQuery(query)
	}
	return u.String()
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), r.body)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	token := r.token
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// decodeError reads the message fields used across the data, auth and
// storage services.
func decodeError(status int, data []byte) error {
	var body struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	if body.Code != nil {
		apiErr.Code = fmt.Sprint(body.Code)
	}
	apiErr.Details = body.Details
	apiErr.Hint = body.Hint
	for _, msg := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
		if msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}

// encodeQuery keeps filter syntax such as in.(1,2) and eq.5 readable; only
// characters that would break the query string are escaped.
func encodeQuery(query url.Values) string {
	var b strings.Builder
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range query[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(filterEscaper.Replace(v))
		}
	}
	return b.String()
}

var filterEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	"#", "%23",
	"+", "%2B",
	" ", "%20",
	`"`, "%22",
)
