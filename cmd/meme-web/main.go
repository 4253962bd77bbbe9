package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fpang/meme-magic/internal/boot"
	"github.com/fpang/meme-magic/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	hostFlag      string
	portFlag      int
	publicURLFlag string
	confirmFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "meme-web",
	Short: "HTTP API for the Meme Magic editor",
	Long: `Meme Web starts a local HTTP server exposing the meme editor: upload an
image or pick a template, generate captions with Gemini, style the text,
preview and export the meme, and browse the community feed.

Caption generation and AI edits need GEMINI_API_KEY (or the GPG credentials
file); without it the editor still composes and exports memes.

Examples:
  meme-web
  meme-web --port 9090
  meme-web --public-url https://memes.example.com`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&hostFlag, "host", "127.0.0.1", "Interface to listen on (0.0.0.0 exposes the API to the network)")
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&publicURLFlag, "public-url", "", "Base URL used in feed QR codes (default http://localhost:<port>)")
	rootCmd.Flags().BoolVar(&confirmFlag, "share-confirm", false, "Ask for confirmation in a native dialog before sharing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	pipeline := boot.InitPipeline()
	svc := boot.InitCaptionServiceOptional(ctx)
	st := boot.NewStudio(pipeline, svc, boot.InitSharer(confirmFlag))

	publicURL := publicURLFlag
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", portFlag)
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(hostFlag, strconv.Itoa(portFlag)),
		Handler:      newHandler(&server{studio: st, publicURL: publicURL}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: logging.EnvDuration(boot.EnvServiceTimeout, 120*time.Second) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Shutdown did not complete cleanly")
		}
	}()

	boot.StartupLog("meme-web", initStart, pipeline, svc).
		Config("host", hostFlag).
		Config("port", fmt.Sprint(portFlag)).
		Config("public_url", publicURL).
		Log()
	fmt.Printf("\n  Meme Magic API: http://localhost:%d/api/health\n\n", portFlag)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
