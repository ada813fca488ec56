package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

var flags = []cli.Flag{
	cli.StringFlag{
		Name:  "config",
		Usage: "extra TOML config file, read after the default locations",
	},
	cli.StringFlag{
		EnvVar: "ROOMDJ_ADDR",
		Name:   "addr",
		Usage:  "HTTP listen address",
	},
	cli.StringFlag{
		EnvVar: "ROOMDJ_MODERATOR_TOKEN",
		Name:   "moderator-token",
		Usage:  "token that grants moderator rights to chat connections presenting it",
	},
	cli.StringFlag{
		EnvVar: "YOUTUBE_API_KEY",
		Name:   "youtube-api-key",
		Usage:  "YouTube Data API key used to look up requested songs",
	},
	cli.IntFlag{
		EnvVar: "ROOMDJ_VOTES_TO_SKIP",
		Name:   "votes-to-skip",
		Usage:  "distinct votes needed to skip a song",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "roomdj"
	app.Usage = "collaborative playlists for chat rooms"
	app.Version = version
	app.Action = run
	app.Flags = flags

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
