package main

import (
	"github.com/sparedge/sparedge/internal/cli"
	"github.com/sparedge/sparedge/internal/config"
)

func main() {
	config.ReadConfiguration("")

	// Set defaults
	cli.ServerConfig.Host = "127.0.0.1"
	cli.ServerConfig.Port = config.GetInt(config.API_PORT, 8085)

	cli.Init()
}
