package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/client"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/query"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show collection statistics",
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var origin *int64
		if cmd.Flags().Changed("origin") {
			id, _ := cmd.Flags().GetInt64("origin")
			origin = &id
		}
		c := client.NewHTTPClient(httpURL, authToken)
		if cmd.Flags().Changed("actor") {
			if origin == nil {
				return fmt.Errorf("--actor requires --origin")
			}
			actor, _ := cmd.Flags().GetInt64("actor")
			return runActorStats(cmd.Context(), cmd.OutOrStdout(), c, *origin, actor)
		}
		return runStats(cmd.Context(), cmd.OutOrStdout(), c, origin)
	},
}

func runStats(ctx context.Context, w io.Writer, c client.StatsClient, origin *int64) error {
	g, err := c.GlobalStats(ctx)
	if err != nil {
		return fmt.Errorf("fetching stats: %w", err)
	}
	var o *model.OriginStats
	if origin != nil {
		if o, err = c.OriginStats(ctx, *origin); err != nil {
			return fmt.Errorf("fetching stats for origin %d: %w", *origin, err)
		}
	}

	if jsonOutput {
		out := struct {
			Global *model.GlobalStats `json:"global"`
			Origin *model.OriginStats `json:"origin,omitempty"`
		}{g, o}
		return printJSON(w, out)
	}
	_, err = fmt.Fprintln(w, query.FormatStats(g, o))
	return err
}

func runActorStats(ctx context.Context, w io.Writer, c client.StatsClient, origin, actor int64) error {
	a, err := c.ActorStats(ctx, origin, actor)
	if err != nil {
		return fmt.Errorf("fetching stats for actor %d in origin %d: %w", actor, origin, err)
	}
	if jsonOutput {
		return printJSON(w, a)
	}
	_, err = fmt.Fprintln(w, query.FormatActor(a))
	return err
}

func init() {
	statsCmd.Flags().Int64("origin", 0, "also show statistics for this origin (chat id)")
	statsCmd.Flags().Int64("actor", 0, "show counters for one actor (user id) in --origin")
}
