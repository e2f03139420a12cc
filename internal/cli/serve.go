package cli

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the published dataset as a JSON API",
	Long: `Serve exposes the published dataset to the map frontend:

  GET  /api/laureates/:category   one category, or "all"
  GET  /api/table                 every laureate, newest first
  GET  /api/categories
  POST /api/reload                re-read the dataset file
  GET  /healthz, /readyz, /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := observability.Logger("server")
	srv := server.NewServer(server.NewProvider(cfg.PublishFile, 0), cfg.Server.AllowedOrigins, logger, processMetrics())

	ctx, cancel := signalContext()
	defer cancel()

	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
