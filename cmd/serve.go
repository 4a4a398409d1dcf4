package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/lessondiag/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := server.DefaultConfig()
		cfg.Addr, _ = cmd.Flags().GetString("addr")
		cfg.Release, _ = cmd.Flags().GetBool("release")
		if origins, _ := cmd.Flags().GetStringSlice("allow-origin"); len(origins) > 0 {
			cfg.AllowOrigins = origins
		}

		a, err := newApp(cmd, true, true)
		if err != nil {
			return err
		}
		return server.Run(cmd.Context(), a, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", server.DefaultConfig().Addr, "Listen address")
	serveCmd.Flags().Bool("release", false, "Run gin in release mode")
	serveCmd.Flags().StringSlice("allow-origin", nil, "CORS allowed origins (default *)")
}
