package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/botweet/botweet/bot"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func userAgent() string {
	return fmt.Sprintf("botweet/%s", versioninfo.Short())
}

// loadConfig layers the credentials file, then flags and environment, then the saved
// login session for any access credentials still missing.
func loadConfig(cctx *cli.Context) (bot.Config, error) {
	var cfg bot.Config
	if path := cctx.String("config"); path != "" {
		var err error
		cfg, err = bot.LoadConfigFile(path)
		if err != nil {
			return cfg, err
		}
	}

	overlay := func(dst *string, flag string) {
		if v := cctx.String(flag); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.ConsumerKey, "consumer-key")
	overlay(&cfg.ConsumerSecret, "consumer-secret")
	overlay(&cfg.AccessToken, "access-token")
	overlay(&cfg.AccessSecret, "access-secret")
	overlay(&cfg.APIHost, "api-host")
	overlay(&cfg.UploadHost, "upload-host")
	if cctx.IsSet("requests-per-second") || cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = cctx.Float64("requests-per-second")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = userAgent()
	}

	if cfg.AccessToken == "" || cfg.AccessSecret == "" {
		sess, err := loadAuthSession()
		// access tokens are bound to the application that requested them
		if err == nil && (sess.ConsumerKey == "" || sess.ConsumerKey == cfg.ConsumerKey) {
			cfg.AccessToken = sess.AccessToken
			cfg.AccessSecret = sess.AccessSecret
		} else if err != nil && err != ErrNoAuthSession {
			return cfg, err
		}
	}
	return cfg, nil
}

func newBot(cctx *cli.Context, logger *slog.Logger) (*bot.Bot, error) {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return nil, err
	}
	return newBotFromConfig(cfg, logger)
}

func newBotFromConfig(cfg bot.Config, logger *slog.Logger) (*bot.Bot, error) {
	b, err := bot.NewFromConfig(cfg, bot.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("configuring bot: %w", err)
	}
	return b, nil
}
