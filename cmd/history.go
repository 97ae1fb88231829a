package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/integrity-cli/internal/store"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent comparison runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.Recent(ctx, historyLimit)
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if historyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}
		formatHistory(os.Stdout, runs)
		return nil
	},
}

// formatHistory writes a tabular list of runs to w, newest first.
func formatHistory(out io.Writer, runs []store.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN AT\tTARGET\tSOURCE\tRECORDS\tFIELDS\tMATCH %\tSCORE\tGRADE")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.1f\t%.1f\t%s\n",
			truncateID(r.ID),
			r.RunAt.Format("2006-01-02 15:04"),
			r.TargetName,
			r.SourceName,
			r.TotalRecords,
			r.FieldCount,
			r.MatchRate,
			r.QualityScore,
			r.Grade,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "max runs to display (default: retention limit)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print history as JSON")
	rootCmd.AddCommand(historyCmd)
}
