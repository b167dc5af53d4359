package main

import "github.com/ytget/playlist-bot/internal/cli"

// Set during build via -ldflags "-X main.version=X.Y.Z -X main.commit=..."
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildTime = version, commit, buildTime
	cli.Execute()
}
