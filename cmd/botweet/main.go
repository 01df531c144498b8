package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

var credentialFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "path to a KEY=VALUE credentials file",
		EnvVars: []string{"BOTWEET_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "consumer-key",
		Usage:   "application consumer key",
		EnvVars: []string{"CONSUMER_KEY"},
	},
	&cli.StringFlag{
		Name:    "consumer-secret",
		Usage:   "application consumer secret",
		EnvVars: []string{"CONSUMER_SECRET"},
	},
	&cli.StringFlag{
		Name:    "access-token",
		Usage:   "user access token (defaults to the saved login session)",
		EnvVars: []string{"ACCESS_TOKEN"},
	},
	&cli.StringFlag{
		Name:    "access-secret",
		Usage:   "user access token secret",
		EnvVars: []string{"ACCESS_SECRET"},
	},
	&cli.StringFlag{
		Name:    "api-host",
		Usage:   "method, hostname, and path prefix of the REST API",
		EnvVars: []string{"API_HOST"},
	},
	&cli.StringFlag{
		Name:    "upload-host",
		Usage:   "method, hostname, and path prefix of the media upload API",
		EnvVars: []string{"UPLOAD_HOST"},
	},
	&cli.Float64Flag{
		Name:    "requests-per-second",
		Usage:   "client side rate limit for API requests",
		Value:   5,
		EnvVars: []string{"REQUESTS_PER_SECOND"},
	},
}

func run(args []string) error {

	app := cli.App{
		Name:    "botweet",
		Usage:   "reactive twitter bot runner",
		Version: versioninfo.Short(),
	}
	app.Flags = append(credentialFlags,
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"BOTWEET_LOG_LEVEL", "LOG_LEVEL"},
		},
	)
	app.Commands = []*cli.Command{
		cmdLogin,
		cmdLogout,
		cmdPost,
		cmdRun,
		cmdCheck,
	}
	return app.Run(args)
}
