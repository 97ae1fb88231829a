package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/integrity-cli/internal/dataset"
	"github.com/sells-group/integrity-cli/internal/mapping"
	"github.com/sells-group/integrity-cli/internal/model"
	"github.com/sells-group/integrity-cli/internal/notify"
	"github.com/sells-group/integrity-cli/internal/recon"
	"github.com/sells-group/integrity-cli/internal/report"
	"github.com/sells-group/integrity-cli/internal/store"
	"github.com/sells-group/integrity-cli/internal/summary"
)

var (
	compareTarget     string
	compareSource     string
	compareKey        string
	compareFields     []string
	comparePairs      []string
	compareDuplicates string
	compareDateCol    string
	compareFrom       string
	compareTo         string
	compareAccountCol string
	compareAccounts   []string
	compareAlignRows  bool
	compareOutDir     string
	compareJSON       bool
	compareNoStore    bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two exports record by record",
	Long:  "Loads a target and a source export, joins them on a key column, compares the configured fields, and writes report artifacts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("compare"); err != nil {
			return err
		}

		rc, err := buildRunConfig()
		if err != nil {
			return err
		}

		// Load both exports concurrently.
		var target, source *model.Dataset
		var g errgroup.Group
		g.Go(func() error {
			var err error
			target, err = dataset.Load(compareTarget)
			return err
		})
		g.Go(func() error {
			var err error
			source, err = dataset.Load(compareSource)
			return err
		})
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "load exports")
		}

		js, s, filteredTarget, filteredSource, err := executeCompare(target, source, rc)
		if err != nil {
			return err
		}

		outDir := compareOutDir
		if outDir == "" {
			outDir = cfg.Compare.OutDir
		}
		written, err := report.WriteAll(outDir, js, filteredTarget, filteredSource, s)
		if err != nil {
			return err
		}
		zap.L().Info("report written",
			zap.String("dir", outDir),
			zap.Int("files", len(written)),
		)

		summaryJSON, err := json.Marshal(s)
		if err != nil {
			return eris.Wrap(err, "marshal summary")
		}

		if !compareNoStore {
			if err := appendHistory(ctx, s, summaryJSON); err != nil {
				// history is an audit trail, not a gate on the run
				zap.L().Warn("history append failed", zap.Error(err))
			}
		}

		if err := notify.New(cfg.Notify).Send(ctx, s); err != nil {
			zap.L().Warn("webhook notify failed", zap.Error(err))
		}

		if compareJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		formatSummary(os.Stdout, s)
		return nil
	},
}

// executeCompare runs the comparison pipeline on two loaded datasets:
// align columns, filter rows, reconcile, summarize. Shared by the CLI and
// the HTTP server.
func executeCompare(target, source *model.Dataset, rc *model.RunConfig) (*model.JoinedSet, *model.Summary, *model.Dataset, *model.Dataset, error) {
	if err := rc.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	aligned, err := mapping.ForConfig(target, source, rc)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	target = dataset.ApplyFilters(target, rc)
	aligned = dataset.ApplyFilters(aligned, rc)

	if len(rc.CompareFields) == 0 {
		rc.CompareFields = defaultCompareFields(target, aligned, rc.KeyField)
	}

	var js *model.JoinedSet
	if rc.AlignRows {
		zap.L().Warn("positional row alignment enabled; results depend on row order")
		js = recon.AlignByPosition(target, aligned, rc.CompareFields)
	} else {
		js, err = recon.Reconcile(target, aligned, rc)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}

	return js, summary.Summarize(js, target, aligned), target, aligned, nil
}

// defaultCompareFields is every target column present in the aligned source,
// minus the key itself.
func defaultCompareFields(target, aligned *model.Dataset, key string) []string {
	var fields []string
	for _, name := range target.ColumnNames() {
		if name == key {
			continue
		}
		if aligned.HasColumn(name) {
			fields = append(fields, name)
		}
	}
	return fields
}

func buildRunConfig() (*model.RunConfig, error) {
	rc := &model.RunConfig{
		KeyField:      compareKey,
		CompareFields: compareFields,
		Duplicates:    model.DuplicatePolicy(compareDuplicates),
		DateColumn:    compareDateCol,
		AccountColumn: compareAccountCol,
		Accounts:      compareAccounts,
		AlignRows:     compareAlignRows,
	}
	if rc.Duplicates == "" {
		rc.Duplicates = model.DuplicatePolicy(cfg.Compare.DuplicatePolicy)
	}

	if len(comparePairs) > 0 {
		pairs, err := parsePairs(comparePairs)
		if err != nil {
			return nil, err
		}
		rc.Mapping = model.MapByName
		rc.Pairs = pairs
	}

	var err error
	if rc.DateFrom, err = parseDateFlag("from", compareFrom); err != nil {
		return nil, err
	}
	if rc.DateTo, err = parseDateFlag("to", compareTo); err != nil {
		return nil, err
	}

	return rc, nil
}

// parsePairs parses repeated --pair flags of the form "TargetCol=SourceCol".
func parsePairs(raw []string) ([]model.FieldPair, error) {
	pairs := make([]model.FieldPair, 0, len(raw))
	for _, r := range raw {
		target, source, ok := strings.Cut(r, "=")
		if !ok || target == "" || source == "" {
			return nil, eris.Errorf("invalid --pair %q, expected TargetCol=SourceCol", r)
		}
		pairs = append(pairs, model.FieldPair{Target: target, Source: source})
	}
	return pairs, nil
}

func parseDateFlag(name, value string) (t time.Time, err error) {
	if value == "" {
		return t, nil
	}
	parsed, ok := dataset.ParseDate(value)
	if !ok {
		return t, eris.Errorf("invalid --%s date %q", name, value)
	}
	return parsed, nil
}

func appendHistory(ctx context.Context, s *model.Summary, summaryJSON []byte) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	_, err = st.Append(ctx, store.NewRecord(s, summaryJSON))
	return err
}

// formatSummary writes a human-readable run summary to w.
func formatSummary(out io.Writer, s *model.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Target:\t%s (%d rows)\n", s.TargetName, s.TargetRows)
	_, _ = fmt.Fprintf(w, "Source:\t%s (%d rows)\n", s.SourceName, s.SourceRows)
	_, _ = fmt.Fprintf(w, "Matched:\t%d\n", s.Matched)
	_, _ = fmt.Fprintf(w, "Only in target:\t%d\n", s.TargetOnly)
	_, _ = fmt.Fprintf(w, "Only in source:\t%d\n", s.SourceOnly)
	_, _ = fmt.Fprintf(w, "Match rate:\t%.1f%%\n", s.MatchRate)
	_, _ = fmt.Fprintf(w, "Quality score:\t%.1f (%s)\n", s.QualityScore, s.Grade)

	if top := s.TopMismatched(5); len(top) > 0 {
		_, _ = fmt.Fprintln(w, "\nTop mismatched fields:")
		for _, f := range top {
			_, _ = fmt.Fprintf(w, "  %s\t%d mismatch(es)\t%.1f%%\n", f.Field, f.Mismatches, f.MismatchPct)
		}
	}
	for _, in := range s.Insights {
		_, _ = fmt.Fprintf(w, "[%s]\t%s\n", in.Severity, in.Message)
	}
	_ = w.Flush()
}

func init() {
	compareCmd.Flags().StringVar(&compareTarget, "target", "", "target export path, .csv or .xlsx (required)")
	compareCmd.Flags().StringVar(&compareSource, "source", "", "source export path, .csv or .xlsx (required)")
	compareCmd.Flags().StringVar(&compareKey, "key", "", "key column used to join records")
	compareCmd.Flags().StringSliceVar(&compareFields, "fields", nil, "columns to compare (default: all shared columns)")
	compareCmd.Flags().StringArrayVar(&comparePairs, "pair", nil, "explicit column mapping TargetCol=SourceCol (repeatable)")
	compareCmd.Flags().StringVar(&compareDuplicates, "duplicates", "", "duplicate-key policy: cross, first, reject (default from config)")
	compareCmd.Flags().StringVar(&compareDateCol, "date-col", "", "date column for range filtering")
	compareCmd.Flags().StringVar(&compareFrom, "from", "", "keep rows on or after this date")
	compareCmd.Flags().StringVar(&compareTo, "to", "", "keep rows on or before this date")
	compareCmd.Flags().StringVar(&compareAccountCol, "account-col", "", "account column for value filtering")
	compareCmd.Flags().StringSliceVar(&compareAccounts, "accounts", nil, "account values to keep")
	compareCmd.Flags().BoolVar(&compareAlignRows, "align-rows", false, "align rows by position instead of joining on a key")
	compareCmd.Flags().StringVar(&compareOutDir, "out-dir", "", "report output directory (default from config)")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the summary as JSON")
	compareCmd.Flags().BoolVar(&compareNoStore, "no-store", false, "skip recording the run in history")
	_ = compareCmd.MarkFlagRequired("target")
	_ = compareCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(compareCmd)
}
