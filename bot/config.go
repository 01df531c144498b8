package bot

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/botweet/botweet/twitter"

	"github.com/PuerkitoBio/purell"
	"github.com/joho/godotenv"
)

// Config holds everything needed to construct a Bot. Nothing in this package reads
// the environment; callers populate it explicitly, from a map, or from a file.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	// Optional. Without them the bot must be authorized before use.
	AccessToken  string
	AccessSecret string

	APIHost           string
	UploadHost        string
	UserAgent         string
	RequestsPerSecond float64
}

func (c *Config) Credentials() twitter.Credentials {
	return twitter.Credentials{
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		AccessToken:    c.AccessToken,
		AccessSecret:   c.AccessSecret,
	}
}

func (c *Config) Validate() error {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return ErrMissingConsumerCredentials
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid requests per second: %v", c.RequestsPerSecond)
	}
	for _, h := range []string{c.APIHost, c.UploadHost} {
		if h == "" {
			continue
		}
		if _, err := normalizeHost(h); err != nil {
			return err
		}
	}
	return nil
}

// normalizeHost cleans up a host URL (case, default port, trailing slash) and
// requires an http(s) scheme.
func normalizeHost(raw string) (string, error) {
	clean, err := purell.NormalizeURLString(raw, purell.FlagsSafe|purell.FlagRemoveTrailingSlash|purell.FlagRemoveDuplicateSlashes)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	u, err := url.Parse(clean)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid host %q: need an http(s) URL", raw)
	}
	return clean, nil
}

func (c *Config) clientOptions() *twitter.ClientOptions {
	opts := twitter.DefaultClientOptions()
	if h, err := normalizeHost(c.APIHost); err == nil {
		opts.Host = h
	}
	if h, err := normalizeHost(c.UploadHost); err == nil {
		opts.UploadHost = h
	}
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	if c.RequestsPerSecond > 0 {
		opts.RequestsPerSecond = c.RequestsPerSecond
	}
	return opts
}

// ConfigFromMap reads the upper-case keys CONSUMER_KEY, CONSUMER_SECRET,
// ACCESS_TOKEN, ACCESS_SECRET, API_HOST, UPLOAD_HOST, USER_AGENT and
// REQUESTS_PER_SECOND. Unknown keys are ignored.
func ConfigFromMap(m map[string]string) (Config, error) {
	cfg := Config{
		ConsumerKey:    m["CONSUMER_KEY"],
		ConsumerSecret: m["CONSUMER_SECRET"],
		AccessToken:    m["ACCESS_TOKEN"],
		AccessSecret:   m["ACCESS_SECRET"],
		APIHost:        m["API_HOST"],
		UploadHost:     m["UPLOAD_HOST"],
		UserAgent:      m["USER_AGENT"],
	}
	if v := m["REQUESTS_PER_SECOND"]; v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parsing REQUESTS_PER_SECOND: %w", err)
		}
		cfg.RequestsPerSecond = rps
	}
	return cfg, nil
}

// LoadConfigFile reads a dotenv-style KEY=VALUE file with the keys understood by
// ConfigFromMap.
func LoadConfigFile(path string) (Config, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return ConfigFromMap(m)
}
