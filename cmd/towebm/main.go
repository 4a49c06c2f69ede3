// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for towebm, which converts videos to WebM.
package main

import (
	"os"

	"github.com/pdiddy/mediakit/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(cli.NewWebMCommand(version)); err != nil {
		os.Exit(1)
	}
}
