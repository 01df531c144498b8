package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/botweet/botweet/bot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func captureConfig(t *testing.T, args ...string) bot.Config {
	var cfg bot.Config
	app := cli.App{
		Name:  "botweet",
		Flags: credentialFlags,
		Action: func(cctx *cli.Context) error {
			var err error
			cfg, err = loadConfig(cctx)
			return err
		},
	}
	require.NoError(t, app.Run(append([]string{"botweet"}, args...)))
	return cfg
}

func TestLoadConfigLayering(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(path, []byte("CONSUMER_KEY=file-ck\nCONSUMER_SECRET=file-cs\nACCESS_TOKEN=file-at\nACCESS_SECRET=file-as\nREQUESTS_PER_SECOND=1\n"), 0600))

	cfg := captureConfig(t, "--config", path, "--consumer-key", "flag-ck")
	assert.Equal("flag-ck", cfg.ConsumerKey)
	assert.Equal("file-cs", cfg.ConsumerSecret)
	assert.Equal("file-at", cfg.AccessToken)
	assert.Equal(1.0, cfg.RequestsPerSecond)
	assert.Contains(cfg.UserAgent, "botweet/")

	cfg = captureConfig(t, "--config", path, "--requests-per-second", "9")
	assert.Equal(9.0, cfg.RequestsPerSecond)
}
