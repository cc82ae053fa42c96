package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridmeta/cfcheck/internal/checker"
	"github.com/gridmeta/cfcheck/internal/dataset"
)

var checkCmd = &cobra.Command{
	Use:   "check <dataset.yaml> [more...]",
	Short: "Check dataset descriptions against the CF conventions",
	Long:  "Loads one or more dataset description files (YAML or JSON), runs the CF rule suite against each, and prints a scored report.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		save, _ := cmd.Flags().GetBool("save")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Check.MaxConcurrentDatasets
		}
		if v, _ := cmd.Flags().GetString("table-version"); v != "" {
			cfg.Table.Version = v
		}

		suite, err := initSuite(ctx)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		reports := make([]*checker.Report, len(args))
		for i, path := range args {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ds, err := dataset.LoadFile(path)
				if err != nil {
					return err
				}
				reports[i] = suite.Run(ds)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if save {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			for _, rep := range reports {
				run, err := st.SaveReport(ctx, rep)
				if err != nil {
					return eris.Wrap(err, "save report")
				}
				zap.L().Info("saved run",
					zap.String("run_id", run.ID),
					zap.String("dataset", run.Dataset),
				)
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}

		failed := false
		for _, rep := range reports {
			formatReport(os.Stdout, rep, verbose)
			if rep.Summary.Scored < rep.Summary.Possible {
				failed = true
			}
		}
		if failed {
			return eris.New("one or more datasets scored below full compliance")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("json", false, "emit reports as JSON")
	checkCmd.Flags().BoolP("verbose", "v", false, "show every scored section, not just deductions")
	checkCmd.Flags().Bool("save", false, "persist reports to the run-history store")
	checkCmd.Flags().Int("concurrency", 0, "max datasets checked concurrently (default from config)")
	checkCmd.Flags().String("table-version", "", "standard-name table version (default from config)")
	rootCmd.AddCommand(checkCmd)
}

// formatReport writes a human-readable scored report.
func formatReport(out io.Writer, rep *checker.Report, verbose bool) {
	fmt.Fprintf(out, "%s (table v%s): %d/%d\n",
		rep.Dataset, rep.TableVer, rep.Summary.Scored, rep.Summary.Possible)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for name, pair := range groupBySection(rep.Results) {
		if !verbose && pair.scored == pair.possible {
			continue
		}
		fmt.Fprintf(w, "  %s\t%d/%d\n", name, pair.scored, pair.possible)
	}
	_ = w.Flush()

	for _, msg := range rep.Summary.Messages {
		fmt.Fprintf(out, "  - %s\n", msg)
	}
	fmt.Fprintln(out)
}

type scorePair struct {
	scored   int
	possible int
}

// groupBySection aggregates results sharing a section name, preserving first
// appearance order.
func groupBySection(results []checker.Result) func(func(string, scorePair) bool) {
	var order []string
	pairs := make(map[string]*scorePair)
	for _, r := range results {
		p, ok := pairs[r.Name]
		if !ok {
			p = &scorePair{}
			pairs[r.Name] = p
			order = append(order, r.Name)
		}
		s, pos := r.Total()
		p.scored += s
		p.possible += pos
	}
	return func(yield func(string, scorePair) bool) {
		for _, name := range order {
			if !yield(name, *pairs[name]) {
				return
			}
		}
	}
}
