// Package bot runs reactive polling loops against a Twitter-style API.
//
// Every Start method validates its configuration synchronously, then launches one
// goroutine and returns a [Loop] handle. A loop repeatedly fetches its feed, reacts to
// new events whose text matches an optional pattern, and sleeps. Loops are stopped
// cooperatively: [Loop.Stop] waits for the in-flight fetch-and-react batch to finish,
// so it may block for the duration of one batch (the sleep between batches is cut
// short).
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/botweet/botweet/twitter"
)

type Bot struct {
	logger     *slog.Logger
	creds      twitter.Credentials
	clientOpts *twitter.ClientOptions
	openMedia  MediaOpener

	// mu guards creds and api; api is nil until access credentials are configured
	mu  sync.RWMutex
	api API
}

type Option func(*Bot)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMediaOpener replaces the default resolution of media references (local paths
// and http(s) URLs).
func WithMediaOpener(open MediaOpener) Option {
	return func(b *Bot) {
		b.openMedia = open
	}
}

// New returns a bot over an existing API implementation. A nil api leaves the bot
// unauthorized.
func New(api API, opts ...Option) *Bot {
	b := &Bot{
		logger: slog.Default(),
		api:    api,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.openMedia == nil {
		b.openMedia = DefaultMediaOpener(nil)
	}
	return b
}

// NewFromConfig validates cfg and, if access credentials are present, builds the
// signed REST client. Without access credentials the bot is returned unauthorized.
func NewFromConfig(cfg Config, opts ...Option) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := New(nil, opts...)
	b.creds = cfg.Credentials()
	b.clientOpts = cfg.clientOptions()
	b.clientOpts.Logger = b.logger

	if creds := b.creds; creds.HasAccess() {
		if err := b.SetAccess(creds.AccessToken, creds.AccessSecret); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// SetAccess installs user access credentials. Loops that are already running keep
// the client they started with.
func (b *Bot) SetAccess(accessToken, accessSecret string) error {
	creds := b.Credentials()
	if !creds.HasConsumer() {
		return ErrMissingConsumerCredentials
	}
	creds.AccessToken = accessToken
	creds.AccessSecret = accessSecret

	client, err := twitter.NewClient(creds, b.clientOpts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.creds = creds
	b.api = NewTwitterAPI(client)
	return nil
}

// Authorize runs the interactive PIN flow: prints an authorization URL to out, reads
// the verifier from in, and installs the resulting access credentials.
func (b *Bot) Authorize(in io.Reader, out io.Writer) error {
	creds := b.Credentials()
	if !creds.HasConsumer() {
		return ErrMissingConsumerCredentials
	}
	token, secret, err := twitter.AuthorizePIN(creds.OAuthConfig(), in, out)
	if err != nil {
		return fmt.Errorf("authorizing: %w", err)
	}
	return b.SetAccess(token, secret)
}

// Credentials returns the credentials currently in use, eg for persisting them
// after Authorize.
func (b *Bot) Credentials() twitter.Credentials {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.creds
}

// API returns the configured remote API, or ErrUnauthorized.
func (b *Bot) API() (API, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.api == nil {
		return nil, ErrUnauthorized
	}
	return b.api, nil
}

// PostNow invokes fn once and posts the result, outside of any loop.
func (b *Bot) PostNow(ctx context.Context, fn ReactionFunc) (int64, error) {
	api, err := b.API()
	if err != nil {
		return 0, err
	}
	r := b.reactor(api, "post-now")
	return r.post(ctx, fn, &Trigger{})
}
