package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/ui"
)

var (
	httpURL    string
	grpcAddr   string
	authToken  string
	jsonOutput bool
)

func defaultHTTPURL() string {
	if s := os.Getenv("DATACOL_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:10000"
}

var rootCmd = &cobra.Command{
	Use:          "datacol <command>",
	Short:        "Chat message collector for the Telegram Bot API",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !ui.ColorEnabled(cmd.OutOrStdout()) {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "collector HTTP URL")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc-addr", os.Getenv("DATACOL_GRPC_ADDR"), "collector gRPC address (health checks)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("DATACOL_AUTH_TOKEN"), "bearer token for the stats API")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "service", Title: "Service:"},
		&cobra.Group{ID: "query", Title: "Query:"},
		&cobra.Group{ID: "data", Title: "Data:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Service
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)

	// Query
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)

	// Data
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cursorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
