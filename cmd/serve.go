package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"docsense/internal/api"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server exposing build and query endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(false, false)
		if err != nil {
			return err
		}
		defer eng.Close()

		srv := &http.Server{
			Addr:              flagAddr,
			Handler:           api.NewServer(eng).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		fmt.Printf("docsense listening on %s\n", flagAddr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "localhost:8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
