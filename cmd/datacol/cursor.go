package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
	"github.com/rajuthattil19-prog/datacol/internal/store/postgres"
	"github.com/rajuthattil19-prog/datacol/internal/store/rediscursor"
)

var cursorCmd = &cobra.Command{
	Use:     "cursor",
	Short:   "Show the persisted delivery cursor",
	GroupID: "data",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		redisURL, _ := cmd.Flags().GetString("redis-url")
		dbURL, _ := cmd.Flags().GetString("database-url")
		name, _ := cmd.Flags().GetString("name")
		ctx := cmd.Context()

		var (
			cursors store.CursorStore
			backend string
		)
		switch {
		case redisURL != "":
			rs, err := rediscursor.New(ctx, redisURL)
			if err != nil {
				return err
			}
			defer rs.Close()
			cursors, backend = rs, "redis"
		case dbURL != "":
			ps, err := postgres.New(dbURL)
			if err != nil {
				return err
			}
			defer ps.Close()
			cursors, backend = ps, "postgres"
		default:
			return fmt.Errorf("no cursor store: set --redis-url or --database-url")
		}
		return runCursor(ctx, cmd.OutOrStdout(), cursors, backend, name)
	},
}

func runCursor(ctx context.Context, w io.Writer, cursors store.CursorStore, backend, name string) error {
	pos, err := cursors.LoadCursor(ctx, name)
	if err != nil {
		return fmt.Errorf("loading cursor %s: %w", name, err)
	}

	if jsonOutput {
		return printJSON(w, struct {
			Name     string `json:"name"`
			Backend  string `json:"backend"`
			Position *int64 `json:"position"`
		}{name, backend, pos})
	}
	if pos == nil {
		_, err = fmt.Fprintf(w, "%s (%s): not set\n", name, backend)
		return err
	}
	_, err = fmt.Fprintf(w, "%s (%s): %d\n", name, backend, *pos)
	return err
}

func init() {
	cursorCmd.Flags().String("redis-url", os.Getenv("DATACOL_REDIS_URL"), "read the cursor from Redis")
	cursorCmd.Flags().String("database-url", os.Getenv("DATACOL_DATABASE_URL"), "read the cursor from PostgreSQL")
	cursorCmd.Flags().String("name", model.CursorTelegram, "cursor name")
}
