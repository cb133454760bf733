// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/thejerf/suture/v4"

	"github.com/bmwcarit/joynr-sub005/internal/accesscontrol"
	"github.com/bmwcarit/joynr-sub005/internal/config"
	"github.com/bmwcarit/joynr-sub005/internal/gcdclient"
	"github.com/bmwcarit/joynr-sub005/internal/lcd"
	"github.com/bmwcarit/joynr-sub005/internal/router"
	"github.com/bmwcarit/joynr-sub005/internal/rpcapi"
	"github.com/bmwcarit/joynr-sub005/internal/timers"
)

// CLI is the top-level command: config.Options' fields plus the Run method
// kong invokes after parsing.
type CLI struct {
	config.Options
}

func (cli *CLI) Run() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	var access accesscontrol.Controller = accesscontrol.AllowAll{}

	core, err := lcd.New(cli.Options, gcdclient.NewHTTPClient(cli.GCDBaseURL), access, router.Noop{})
	if err != nil {
		return err
	}

	main := suture.New("lcdsrv", suture.Spec{PassThroughPanics: true})
	main.Add(rpcapi.New(cli.ListenAddr, core))
	main.Add(timers.NewFreshnessLoop(core, cli.FreshnessInterval()))
	main.Add(timers.NewExpirySweepLoop(core, cli.PurgeExpiredInterval()))
	main.Add(timers.NewReAddLoop(core, cli.ReAddInterval()))

	return main.Serve(context.Background())
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)
	if err := ctx.Run(); err != nil {
		log.Fatalf("%s: %v", ctx.Command(), err)
	}
}
