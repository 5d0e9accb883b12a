package cli

import (
	"github.com/spf13/cobra"

	"github.com/JoseCortezz25/fact-checking-app/internal/server"
)

var addr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fact-check HTTP API",
	Long: `Serve exposes fact-checking over HTTP:

  POST /v1/factcheck          {"claim": "...", "location": {...}, "date": "2024-05-01", "depth": 2, "breadth": 2, "language": "English"}
  GET  /v1/factchecks         recent results (?limit=20)
  GET  /v1/factchecks/{id}    one stored result
  GET  /healthz
  GET  /readyz                credentials present and the model provider reachable
  GET  /metrics               Prometheus metrics

Example:
  factly serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	addProviderFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	cfg := sess.cfg

	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}

	// a nil *store.Store must not become a non-nil History
	var history server.History
	if st := sess.pipeline.Store(); st != nil {
		history = st
	}

	srv := server.New(cfg.Server, cfg.Research, sess.pipeline.Service(), history, sess.logger.Named("http"))
	return srv.ListenAndServe(sess.ctx)
}
