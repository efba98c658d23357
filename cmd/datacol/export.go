package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/store/postgres"
	datasync "github.com/rajuthattil19-prog/datacol/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write a JSONL snapshot of events and aggregates",
	GroupID: "data",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, _ := cmd.Flags().GetString("database-url")
		output, _ := cmd.Flags().GetString("output")
		if dbURL == "" {
			return fmt.Errorf("no database URL: set --database-url or DATACOL_DATABASE_URL")
		}

		st, err := postgres.New(dbURL)
		if err != nil {
			return err
		}
		defer st.Close()

		w := cmd.OutOrStdout()
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		if err := datasync.ExportJSONL(cmd.Context(), st, w); err != nil {
			return err
		}
		if f, ok := w.(*os.File); ok && f != os.Stdout {
			return f.Sync()
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("database-url", os.Getenv("DATACOL_DATABASE_URL"), "PostgreSQL connection URL")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}
