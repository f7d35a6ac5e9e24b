package main

import (
	"github.com/rileyhilliard/ghkey/internal/cli"
)

// Build info set via ldflags at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01 -X main.authFlow=password"
var (
	version  = "dev"
	commit   = "none"
	date     = "unknown"
	authFlow = "device"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.SetDefaultFlow(authFlow)
	cli.Execute()
}
