package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridmeta/cfcheck/internal/stdnames"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage the cached standard-name table",
	Long:  "Commands for fetching standard-name table versions and looking up entries.",
}

// -- table fetch --

var tableFetchCmd = &cobra.Command{
	Use:   "fetch [version]",
	Short: "Download a standard-name table version into the cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		version := cfg.Table.Version
		if len(args) == 1 {
			version = args[0]
		}

		f := stdnames.NewFetcher(cfg.Table.CacheDir, stdnames.FetcherOptions{
			BaseURL: cfg.Table.BaseURL,
		})
		table, err := f.Fetch(ctx, version)
		if err != nil {
			return eris.Wrap(err, "table fetch")
		}

		fmt.Printf("standard-name table v%s: %d entries\ncached at %s\n",
			table.Version(), table.Len(), f.CachePath(version))
		return nil
	},
}

// -- table lookup --

var tableLookupCmd = &cobra.Command{
	Use:   "lookup <standard-name>",
	Short: "Look up a standard-name entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "table lookup")
		}

		name := args[0]
		entry, ok := table.Lookup(name)
		if !ok {
			return eris.Errorf("%q is not in standard-name table v%s", name, table.Version())
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "name:\t%s\n", entry.Name)
		if table.IsAlias(name) {
			fmt.Fprintf(w, "alias of:\t%s\n", entry.Name)
		}
		fmt.Fprintf(w, "canonical units:\t%s\n", entry.CanonicalUnits)
		if entry.GRIB != "" {
			fmt.Fprintf(w, "grib:\t%s\n", entry.GRIB)
		}
		if entry.AMIP != "" {
			fmt.Fprintf(w, "amip:\t%s\n", entry.AMIP)
		}
		if len(entry.Aliases) > 0 {
			fmt.Fprintf(w, "aliases:\t%s\n", strings.Join(entry.Aliases, ", "))
		}
		_ = w.Flush()

		if entry.Description != "" {
			fmt.Printf("\n%s\n", entry.Description)
		}
		return nil
	},
}

func init() {
	tableCmd.AddCommand(tableFetchCmd)
	tableCmd.AddCommand(tableLookupCmd)
	rootCmd.AddCommand(tableCmd)
}
