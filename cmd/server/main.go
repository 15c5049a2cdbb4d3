package main

import (
	"github.com/litgraph/backend/internal/server"
	"github.com/litgraph/backend/internal/util"
	"github.com/litgraph/backend/pkg/logger"
	"github.com/litgraph/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	server.Init()
}
