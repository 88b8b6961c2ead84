package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/droste/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP and WebSocket server for transform stacks",
	Long: `Start an HTTP server that computes homographies and transform stacks and
streams animation frames over a WebSocket.

The server provides the following endpoints:
  POST /v1/homography - Base transform for a canvas and quad
  POST /v1/stack      - Transform stack for a canvas, quad and depth
  GET  /v1/depths     - Accepted recursion depths
  GET  /ws            - Interactive session: scene edits in, stacks and frames out
  GET  /health        - Health check endpoint
  GET  /metrics       - Prometheus metrics

Examples:
  droste serve
  droste serve --port 8080
  droste serve --host 0.0.0.0 --port 3000 --requests-per-minute 120`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get configuration from centralized system (includes CLI flags, config file, env vars, and defaults)
		cfg := GetConfig()

		// Command line flags override config values
		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		frameInterval := cfg.ServerFrameInterval()
		if cmd.Flags().Changed("frame-interval-ms") {
			ms, _ := cmd.Flags().GetInt("frame-interval-ms")
			frameInterval = time.Duration(ms) * time.Millisecond
		}

		requestsPerMinute := cfg.Server.RequestsPerMinute
		if cmd.Flags().Changed("requests-per-minute") {
			requestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
		}

		// Validate port number
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}
		// Validate frame period
		if frameInterval <= 0 {
			return fmt.Errorf("invalid frame interval: %v (must be positive)", frameInterval)
		}

		// Initial WebSocket scene and animation come from config
		mode, err := cfg.AnimationMode()
		if err != nil {
			return err
		}
		points, err := cfg.RelativePoints()
		if err != nil {
			return err
		}

		// Create server
		srv, err := server.NewServer(server.Config{
			Host:              host,
			Port:              port,
			CORSOrigin:        corsOrigin,
			FrameInterval:     frameInterval,
			AnimationStep:     cfg.Animation.Step,
			InitialMode:       mode,
			StackCacheSize:    cfg.Cache.StackCacheSize,
			RequestsPerMinute: requestsPerMinute,
			Scene: server.SceneDefaults{
				Width:  cfg.Canvas.Width,
				Height: cfg.Canvas.Height,
				Points: points,
				Depth:  cfg.Scene.Depth,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		// Setup graceful shutdown
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Starting droste server", "host", host, "port", port,
			"frame_interval", frameInterval.String(), "rate_limit", requestsPerMinute)
		return srv.ListenAndRun(ctx, host, port, time.Duration(shutdownTimeout)*time.Second)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	// Server flags
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Int("frame-interval-ms", 16, "animation frame period for WebSocket sessions")
	serveCmd.Flags().Int("requests-per-minute", 0, "maximum compute requests per minute per client (0 = unlimited)")
}
