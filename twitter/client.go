package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const (
	DefaultHost       = "https://api.twitter.com/1.1"
	DefaultUploadHost = "https://upload.twitter.com/1.1"
)

type Client struct {
	// Client is an HTTP client to use, which is expected to sign requests. See
	// NewClient for the usual construction.
	Client     *http.Client
	Host       string
	UploadHost string
	UserAgent  *string
	Headers    map[string]string
	// Limiter, if set, is waited on before every request.
	Limiter *rate.Limiter
}

func (c *Client) getClient() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

func (c *Client) host() string {
	if c.Host == "" {
		return DefaultHost
	}
	return strings.TrimSuffix(c.Host, "/")
}

func (c *Client) uploadHost() string {
	if c.UploadHost == "" {
		return DefaultUploadHost
	}
	return strings.TrimSuffix(c.UploadHost, "/")
}

type RequestType int

const (
	Query = RequestType(iota)
	Procedure
)

// APIError is a single entry of the "errors" array in an error response body.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (ae *APIError) Error() string {
	return fmt.Sprintf("code %d: %s", ae.Code, ae.Message)
}

type ErrorBody struct {
	Errors []APIError `json:"errors"`
	// some endpoints return a bare string instead of the array
	Message string `json:"error,omitempty"`
}

func (eb *ErrorBody) err() error {
	if len(eb.Errors) > 0 {
		return &eb.Errors[0]
	}
	if eb.Message != "" {
		return &APIError{Message: eb.Message}
	}
	return nil
}

// well-known codes from the "errors" array
const (
	CodeRateLimited      = 88
	CodeInvalidToken     = 89
	CodeDuplicateStatus  = 187
	CodeAlreadyRetweeted = 327
)

type Error struct {
	StatusCode int
	Wrapped    error
	Ratelimit  *RatelimitInfo
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("twitter API error %d", e.StatusCode)
	}
	if e.IsThrottled() && e.Ratelimit != nil {
		return fmt.Sprintf("twitter API error %d: %s (throttled until %s)", e.StatusCode, e.Wrapped, e.Ratelimit.Reset.Local())
	}
	return fmt.Sprintf("twitter API error %d: %s", e.StatusCode, e.Wrapped)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

func (e *Error) code() int {
	if ae, ok := e.Wrapped.(*APIError); ok {
		return ae.Code
	}
	return 0
}

func (e *Error) IsThrottled() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.code() == CodeRateLimited
}

func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.code() == CodeInvalidToken
}

// IsDuplicate reports whether the request was rejected because the same status was
// already posted or retweeted.
func (e *Error) IsDuplicate() bool {
	c := e.code()
	return c == CodeDuplicateStatus || c == CodeAlreadyRetweeted
}

type RatelimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

func errorFromHTTPResponse(resp *http.Response, err error) error {
	r := &Error{
		StatusCode: resp.StatusCode,
		Wrapped:    err,
	}
	if resp.Header.Get("x-rate-limit-limit") != "" {
		r.Ratelimit = &RatelimitInfo{}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-reset"), 10, 64); err == nil {
			r.Ratelimit.Reset = time.Unix(n, 0)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-limit"), 10, 64); err == nil {
			r.Ratelimit.Limit = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-remaining"), 10, 64); err == nil {
			r.Ratelimit.Remaining = int(n)
		}
	}
	return r
}

// makeParams converts a map of string keys and any values into URL values.
// If a value is a slice of strings, it will be joined with commas, which is how
// list parameters (eg, media_ids) are passed.
func makeParams(p map[string]any) url.Values {
	params := url.Values{}
	for k, v := range p {
		switch v := v.(type) {
		case []string:
			params.Set(k, strings.Join(v, ","))
		case []int64:
			parts := make([]string, len(v))
			for i, n := range v {
				parts[i] = strconv.FormatInt(n, 10)
			}
			params.Set(k, strings.Join(parts, ","))
		default:
			params.Set(k, fmt.Sprint(v))
		}
	}
	return params
}

// Request describes a single REST call.
type Request struct {
	Kind RequestType
	// Path relative to the host, without the ".json" suffix, eg "statuses/update".
	Path   string
	Params map[string]any
	// Body, if set, is sent as-is with ContentType. Otherwise Procedure params are
	// sent as a form body.
	Body        io.Reader
	ContentType string
	// Upload sends the request to UploadHost instead of Host.
	Upload bool
}

func (c *Client) Do(ctx context.Context, r Request, out interface{}) error {
	host := c.host()
	if r.Upload {
		host = c.uploadHost()
	}
	uri := host + "/" + r.Path + ".json"

	var (
		m     string
		body  = r.Body
		ctype = r.ContentType
	)
	switch r.Kind {
	case Query:
		m = http.MethodGet
		if len(r.Params) > 0 {
			uri += "?" + makeParams(r.Params).Encode()
		}
	case Procedure:
		m = http.MethodPost
		if body == nil && len(r.Params) > 0 {
			body = strings.NewReader(makeParams(r.Params).Encode())
			ctype = "application/x-www-form-urlencoded"
		} else if len(r.Params) > 0 {
			uri += "?" + makeParams(r.Params).Encode()
		}
	default:
		return fmt.Errorf("unsupported request kind: %d", r.Kind)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting on rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, m, uri, body)
	if err != nil {
		return err
	}

	if body != nil && ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	if c.UserAgent != nil {
		req.Header.Set("User-Agent", *c.UserAgent)
	} else {
		req.Header.Set("User-Agent", "botweet/"+versioninfo.Short())
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.getClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return errorFromHTTPResponse(resp, fmt.Errorf("failed to decode error body: %w", err))
		}
		return errorFromHTTPResponse(resp, eb.err())
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding twitter response: %w", err)
		}
	}
	return nil
}
