package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/botweet/botweet/bot"

	"github.com/urfave/cli/v2"
)

var cmdPost = &cli.Command{
	Name:      "post",
	Usage:     "post a single status and exit",
	ArgsUsage: `<text>`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "media",
			Aliases: []string{"m"},
			Usage:   "local path or http(s) URL of an image to attach (up to 4)",
		},
		&cli.Int64Flag{
			Name:  "reply-to",
			Usage: "id of the status to reply to",
		},
	},
	Action: runPost,
}

func runPost(cctx *cli.Context) error {
	ctx := context.Background()
	logger := configLogger(cctx, os.Stderr)

	text := strings.Join(cctx.Args().Slice(), " ")
	media := cctx.StringSlice("media")
	if text == "" && len(media) == 0 {
		return fmt.Errorf("need text or media to post")
	}

	b, err := newBot(cctx, logger)
	if err != nil {
		return err
	}
	id, err := b.PostNow(ctx, bot.StaticContent(bot.Content{
		Text:    text,
		Media:   media,
		ReplyTo: cctx.Int64("reply-to"),
	}))
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}
