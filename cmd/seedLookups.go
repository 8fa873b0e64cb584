/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"fleetevents/internal/bootstrap"
	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/lookups"
)

var seedCatalogFile string

// seedLookupsCmd loads violations, incident types, equipment damage and document types.
var seedLookupsCmd = &cobra.Command{
	Use:   "seed-lookups",
	Short: "Upsert lookup tables from a TOML catalog",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()

		catalog, err := lookups.LoadCatalog(seedCatalogFile)
		if err != nil {
			return errs.Wrapf(err, "load catalog %s", seedCatalogFile)
		}
		counts, err := lookups.Seed(ctx, app.UnitOfWork, app.Lookups, catalog)
		if err != nil {
			return errs.Wrap(err, "seed lookups")
		}

		tables := make([]ports.LookupTable, 0, len(counts))
		for table := range counts {
			tables = append(tables, table)
		}
		sort.Slice(tables, func(i, j int) bool { return tables[i] < tables[j] })
		for _, table := range tables {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", table, counts[table]); err != nil {
				return errs.Wrap(err, "write seed-lookups output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(seedLookupsCmd)
	seedLookupsCmd.Flags().StringVar(&seedCatalogFile, "catalog", "configs/lookups.toml", "Lookup catalog (TOML)")
}
