package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		addr := d.cfg.HTTP.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		if d.cfg.LogMode != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := httpapi.NewServer(httpapi.RouterConfig{
			Handler: httpapi.NewHandler(d.svc, d.store),
			Logger:  d.log,
		})
		return srv.Run(ctx, addr, 10*time.Second)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides LINGUA_HTTP_ADDR env var)")
}
