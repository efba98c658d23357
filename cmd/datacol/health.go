package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/client"
	"github.com/rajuthattil19-prog/datacol/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of a running collector",
	GroupID: "service",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var (
			checker client.HealthChecker
			target  string
		)
		if grpcAddr != "" {
			gc, err := client.NewGRPCClient(grpcAddr)
			if err != nil {
				return err
			}
			defer gc.Close()
			checker, target = gc, grpcAddr
		} else {
			checker, target = client.NewHTTPClient(httpURL, authToken), httpURL
		}
		return runHealth(ctx, cmd.OutOrStdout(), checker, target)
	},
}

func runHealth(ctx context.Context, w io.Writer, checker client.HealthChecker, target string) error {
	status, err := checker.Health(ctx)
	if err != nil {
		return fmt.Errorf("checking health: %w", err)
	}
	ok := healthy(status)

	if jsonOutput {
		if err := printJSON(w, map[string]any{"target": target, "status": status, "healthy": ok}); err != nil {
			return err
		}
	} else {
		label := ui.RenderOK(status)
		if !ok {
			label = ui.RenderFail(status)
		}
		fmt.Fprintf(w, "%s %s\n", ui.RenderMuted(target), label)
	}

	if !ok {
		return fmt.Errorf("unhealthy: %s", status)
	}
	return nil
}

// healthy accepts the HTTP liveness body and the gRPC SERVING status.
func healthy(status string) bool {
	return strings.EqualFold(status, "ok") || status == "SERVING"
}

func init() {
	healthCmd.Flags().Duration("timeout", 5*time.Second, "request timeout")
}
