package twitter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/botweet/botweet/util"

	"github.com/carlmjohnson/versioninfo"
	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"
)

var (
	ErrMissingConsumerCredentials = errors.New("config missing CONSUMER_KEY and CONSUMER_SECRET")
	ErrMissingAccessCredentials   = errors.New("config missing ACCESS_TOKEN and ACCESS_SECRET")
)

var Endpoint = oauth1.Endpoint{
	RequestTokenURL: "https://api.twitter.com/oauth/request_token",
	AuthorizeURL:    "https://api.twitter.com/oauth/authorize",
	AccessTokenURL:  "https://api.twitter.com/oauth/access_token",
}

type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

func (cr *Credentials) HasConsumer() bool {
	return cr.ConsumerKey != "" && cr.ConsumerSecret != ""
}

func (cr *Credentials) HasAccess() bool {
	return cr.AccessToken != "" && cr.AccessSecret != ""
}

// OAuthConfig returns the consumer configuration used both for signing requests and
// for the out-of-band PIN authorization flow.
func (cr *Credentials) OAuthConfig() *oauth1.Config {
	cfg := oauth1.NewConfig(cr.ConsumerKey, cr.ConsumerSecret)
	cfg.CallbackURL = "oob"
	cfg.Endpoint = Endpoint
	return cfg
}

// AuthorizePIN runs the interactive PIN flow: it prints the authorization URL to out,
// reads the verifier code from in, and returns the access token pair.
func AuthorizePIN(cfg *oauth1.Config, in io.Reader, out io.Writer) (string, string, error) {
	requestToken, requestSecret, err := cfg.RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("requesting oauth token: %w", err)
	}
	authURL, err := cfg.AuthorizationURL(requestToken)
	if err != nil {
		return "", "", err
	}
	fmt.Fprintln(out, "Authorize the application in this URL:")
	fmt.Fprintln(out, authURL.String())
	fmt.Fprint(out, "Enter the verifier code: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", "", fmt.Errorf("reading verifier: %w", err)
		}
		return "", "", fmt.Errorf("no verifier code entered")
	}
	verifier := strings.TrimSpace(scanner.Text())
	if verifier == "" {
		return "", "", fmt.Errorf("no verifier code entered")
	}

	accessToken, accessSecret, err := cfg.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("exchanging verifier for access token: %w", err)
	}
	return accessToken, accessSecret, nil
}

// ClientOptions are the options for the REST client
type ClientOptions struct {
	Host       string
	UploadHost string
	UserAgent  string
	// RequestsPerSecond throttles all requests made by the client. Zero disables it.
	RequestsPerSecond float64
	Logger            *slog.Logger
	// Transport under the signing layer; defaults to util.NewTransport().
	Transport http.RoundTripper
}

// DefaultClientOptions returns the default options for the REST client
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Host:              DefaultHost,
		UploadHost:        DefaultUploadHost,
		UserAgent:         "botweet/" + versioninfo.Short(),
		RequestsPerSecond: 5,
	}
}

// NewClient returns a REST client which signs every request with the given user
// credentials and retries transient failures.
func NewClient(creds Credentials, opts *ClientOptions) (*Client, error) {
	if !creds.HasConsumer() {
		return nil, ErrMissingConsumerCredentials
	}
	if !creds.HasAccess() {
		return nil, ErrMissingAccessCredentials
	}
	if opts == nil {
		opts = DefaultClientOptions()
	}

	transport := opts.Transport
	if transport == nil {
		transport = util.NewTransport()
	}
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, &http.Client{Transport: transport})
	signed := creds.OAuthConfig().Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessSecret))

	c := &Client{
		Client:     util.RobustHTTPClient(signed, opts.Logger),
		Host:       opts.Host,
		UploadHost: opts.UploadHost,
	}
	if opts.UserAgent != "" {
		ua := opts.UserAgent
		c.UserAgent = &ua
	}
	if opts.RequestsPerSecond > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}
