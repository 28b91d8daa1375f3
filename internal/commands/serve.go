// internal/commands/serve.go
package mneme

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mwiater/mneme/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `The 'serve' command exposes the engine over HTTP: POST /upload to index
a file, POST /ask for a grounded answer, GET /documents for the index
listing, and POST /reset to clear the store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = rt.cfg.ListenAddr()
		}

		// An interrupt drains in-flight requests and flushes the store.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(rt.store, rt.engine, rt.pipeline, rt.cfg.UploadDir())
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to config serverAddr)")
	rootCmd.AddCommand(serveCmd)
}
