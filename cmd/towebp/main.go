// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for towebp, which converts images to WebP.
package main

import (
	"os"

	"github.com/pdiddy/mediakit/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(cli.NewWebPCommand(version)); err != nil {
		os.Exit(1)
	}
}
