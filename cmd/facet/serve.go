package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/facet/pkg/adapters/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the demo app over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSetup(cmd)
		if err != nil {
			return err
		}
		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = cfg.Listen
		}

		mux := http.NewServeMux()
		mux.Handle("/", httpapi.NewHandler(demoApp(),
			httpapi.WithLogger(logger),
			httpapi.WithMetrics(prometheus.DefaultRegisterer),
		))
		mux.Handle("/metrics", promhttp.Handler())

		logger.Info("serving", "listen", listen)
		return http.ListenAndServe(listen, mux)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}
