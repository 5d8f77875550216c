package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/huddlehq/huddle/internal/config"
	"github.com/huddlehq/huddle/internal/session"
)

// cmdInit writes session.toml for sessionName, keeping existing values
// that are not overridden.
func cmdInit(sessionName string, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	name := fs.String("name", "", "display name")
	api := fs.String("api", "", "backend base URL")
	ws := fs.String("ws", "", "presence websocket base URL (derived from --api when empty)")
	domain := fs.String("conference-domain", "", "conference provider domain")
	metrics := fs.String("metrics", "", "metrics listen address, e.g. 127.0.0.1:9464")
	_ = fs.Parse(args)

	path := session.SettingsPath(sessionName)
	_, statErr := os.Stat(path)
	cfg, err := config.LoadSession(path)
	if err != nil {
		fail(err)
	}
	if *api == "" && os.IsNotExist(statErr) {
		global, err := config.LoadOrEmpty(session.ConfigPath())
		if err != nil {
			fail(err)
		}
		if global.DefaultAPI != "" {
			cfg.Server.APIURL = global.DefaultAPI
		}
	}
	if *user != "" {
		cfg.Profile.UserID = *user
	}
	if *name != "" {
		cfg.Profile.DisplayName = *name
	}
	if cfg.Profile.DisplayName == "" {
		cfg.Profile.DisplayName = cfg.Profile.UserID
	}
	if *api != "" {
		cfg.Server.APIURL = *api
	}
	if *ws != "" {
		cfg.Server.WSURL = *ws
	}
	if *domain != "" {
		cfg.Conference.Domain = *domain
	}
	if *metrics != "" {
		cfg.Metrics.Addr = *metrics
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	if err := session.EnsureDir(sessionName); err != nil {
		fail(err)
	}
	if err := config.SaveSession(path, cfg); err != nil {
		fail(err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
}

// cmdUse makes sessionName the default session, optionally recording the
// backend URL new sessions start with.
func cmdUse(args []string) {
	fs := flag.NewFlagSet("use", flag.ExitOnError)
	api := fs.String("api", "", "default backend base URL for new sessions")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: huddlectl use <session> [--api url]")
		os.Exit(1)
	}
	name := fs.Arg(0)
	if err := session.ValidateName(name); err != nil {
		fail(err)
	}

	path := session.ConfigPath()
	cfg, err := config.LoadOrEmpty(path)
	if err != nil {
		fail(err)
	}
	cfg.DefaultSession = name
	if *api != "" {
		cfg.DefaultAPI = *api
	}
	if err := config.Save(path, cfg); err != nil {
		fail(err)
	}
	fmt.Fprintf(os.Stdout, "Default session is now %q\n", name)
}
