package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/integrity-cli/internal/dataset"
	"github.com/sells-group/integrity-cli/internal/profile"
)

var profileJSON bool

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile an export and suggest a join key",
	Long:  "Ranks columns by value uniqueness, flags date and account columns, and suggests the best key column for joining.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load(args[0])
		if err != nil {
			return eris.Wrap(err, "load export")
		}

		p := profile.Dataset(ds)

		if profileJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		formatProfile(os.Stdout, ds.Name, ds.Rows(), p)
		return nil
	},
}

func formatProfile(out io.Writer, name string, rows int, p profile.Profile) {
	fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", name, rows, len(p.Ranked))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLUMN\tUNIQUENESS\tDISTINCT\tTIER")
	for _, c := range p.Ranked {
		_, _ = fmt.Fprintf(w, "%s\t%.3f\t%d\t%s\n", c.Name, c.Uniqueness, c.Distinct, tierOf(c.Name, p))
	}
	_ = w.Flush()

	if key := p.SuggestedKey(); key != "" {
		fmt.Fprintf(out, "\nSuggested key: %s\n", key)
	}
	if len(p.DateColumns) > 0 {
		fmt.Fprintf(out, "Date columns: %s\n", strings.Join(p.DateColumns, ", "))
	}
	if len(p.AccountColumns) > 0 {
		fmt.Fprintf(out, "Account columns: %s\n", strings.Join(p.AccountColumns, ", "))
	}
}

func tierOf(name string, p profile.Profile) string {
	for _, c := range p.Primary {
		if c == name {
			return "primary"
		}
	}
	for _, c := range p.Secondary {
		if c == name {
			return "secondary"
		}
	}
	return "tertiary"
}

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "print the profile as JSON")
	rootCmd.AddCommand(profileCmd)
}
