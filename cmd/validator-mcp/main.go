package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"metadata-validator/internal/config"
	"metadata-validator/internal/logger"
	"metadata-validator/internal/mcptools"
	"metadata-validator/internal/service"
)

const serverName = "metadata-validator"

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	cfg, _ := config.Load()

	// stdout carries the protocol
	logger.InitGlobalLogger(logger.Config{Level: cfg.LogLevel, Output: os.Stderr})
	log := logger.GetGlobalLogger().Component("mcp")
	log.Info().Str("version", version).Msg("MCP server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.FromConfig(ctx, cfg, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start validator")
	}
	defer svc.Close()

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)
	if err := mcptools.Register(server, mcptools.New(svc)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register tools")
	}
	log.Info().Int("tools", mcptools.ToolCount).Msg("Server ready and waiting for connections")

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Server error")
	}
}
