package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/haikuowuya/jianshu/cmd/jianshu/internal/commands"
	"github.com/haikuowuya/jianshu/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Status  commands.StatusCmd  `cmd:"" help:"Show the login state"`
		Login   commands.LoginCmd   `cmd:"" help:"Store a browser cookie string and log in"`
		Logout  commands.LogoutCmd  `cmd:"" help:"Log out and forget stored cookies"`
		Wait    commands.WaitCmd    `cmd:"" help:"Wait until a login shows up in the cookie store"`
		Get     commands.GetCmd     `cmd:"" help:"GET a URL with the session cookies"`
		Post    commands.PostCmd    `cmd:"" help:"POST to a URL with the session cookies"`
		Cookies commands.CookiesCmd `cmd:"" help:"Manage stored cookie strings"`

		Debug     bool   `help:"Enable debug mode."`
		Config    string `help:"Config file" type:"path" default:"~/.jianshu/config.yaml" env:"JIANSHU_CONFIG"`
		EnvFile   string `help:"Env file loaded before reading JIANSHU_* variables" default:".env"`
		CookieDir string `help:"Cookie store directory (default: ~/.jianshu/cookies/)"`
		Redis     string `help:"Redis address for a shared cookie store"`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("jianshu"),
		kong.Description("Track the jianshu.io login state from stored browser cookies."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Version:   version,
		Config:    cli.Config,
		EnvFile:   cli.EnvFile,
		CookieDir: cli.CookieDir,
		Redis:     cli.Redis,
	})
	cmd.FatalIfErrorf(err)
}
