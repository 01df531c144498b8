package main

import (
	"fmt"

	"github.com/botweet/botweet/botfile"

	"github.com/urfave/cli/v2"
)

var cmdCheck = &cli.Command{
	Name:      "check",
	Usage:     "validate a botfile and print its behaviors",
	ArgsUsage: `<botfile>`,
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 1 {
			return fmt.Errorf("expected a single botfile argument")
		}
		path := cctx.Args().First()
		bf, err := botfile.Load(path)
		if err != nil {
			return err
		}
		fmt.Println(bf.Tree(path).String())
		return nil
	},
}
