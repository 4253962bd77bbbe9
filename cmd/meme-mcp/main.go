package main

import (
	"context"
	"os"
	"time"

	"github.com/fpang/meme-magic/internal/boot"
	"github.com/fpang/meme-magic/internal/logging"
	"github.com/fpang/meme-magic/internal/studio"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is reported to MCP clients during initialization.
const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "meme-mcp",
	Short: "MCP server exposing Meme Magic composition tools",
	Long: `Meme MCP serves the Model Context Protocol over stdio so that assistants
can compose memes: pick a stock template or a local image, supply or generate
a caption, and receive the finished PNG.

Register it with an MCP client as a stdio server:
  meme-mcp

Logs go to stderr; stdout carries the protocol.`,
	Run: runMain,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()
	ctx := context.Background()

	pipeline := boot.InitPipeline()
	chatSvc := boot.InitCaptionServiceOptional(ctx)
	tools := &toolset{pipeline: pipeline, timeout: logging.EnvDuration(boot.EnvServiceTimeout, studio.DefaultServiceTimeout)}
	if chatSvc != nil {
		tools.service = chatSvc
	}

	server := newServer(tools)
	boot.StartupLog("meme-mcp", initStart, pipeline, chatSvc).Config("transport", "stdio").Log()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}
