package main

import (
	"github.com/Jumpaku/go-drivemap/internal/cli"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
