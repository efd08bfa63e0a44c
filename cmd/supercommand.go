// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cmd holds the parts of the azsm command line shared by all
// commands.
package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/loggo"

	"github.com/juju/azsm/osenv"
	"github.com/juju/azsm/version"
)

func init() {
	// If the environment key is empty, ConfigureLoggers returns nil and does
	// nothing.
	err := loggo.ConfigureLoggers(os.Getenv(osenv.AzsmStartupLoggingConfigEnvKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR parsing %s: %s\n\n", osenv.AzsmStartupLoggingConfigEnvKey, err)
	}
}

var logger = loggo.GetLogger("azsm.cmd")

// NewSuperCommand is like cmd.NewSuperCommand but takes its default
// logging configuration from the environment, reports the azsm version
// and logs each command run.
func NewSuperCommand(p cmd.SuperCommandParams) *cmd.SuperCommand {
	p.Log = &cmd.Log{
		DefaultConfig: os.Getenv(osenv.AzsmLoggingConfigEnvKey),
	}
	p.Version = version.Current
	p.NotifyRun = runNotifier
	return cmd.NewSuperCommand(p)
}

func runNotifier(name string) {
	logger.Infof("running %s [%s %s %s]", name, version.Current, runtime.Compiler, runtime.Version())
}

// Info returns info with its documentation trimmed of the surrounding
// blank lines left by raw string literals.
func Info(info *cmd.Info) *cmd.Info {
	info.Doc = strings.TrimSpace(info.Doc)
	info.Examples = strings.TrimSpace(info.Examples)
	return info
}
