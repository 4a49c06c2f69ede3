// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for mobileshot, which captures mobile
// screenshots and scroll videos of web pages.
package main

import (
	"os"

	"github.com/pdiddy/mediakit/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(cli.NewCaptureCommand(version)); err != nil {
		os.Exit(1)
	}
}
