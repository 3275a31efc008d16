package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/claims-dashboard/backend/internal/analytics"
	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/exporter"
	"github.com/claims-dashboard/backend/internal/models"
)

var (
	reportOut         string
	reportSheet       string
	reportRegions     []string
	reportSpecialties []string
	reportStart       string
	reportEnd         string
)

var reportCmd = &cobra.Command{
	Use:   "report <claims.csv>",
	Short: "Summarize a claims CSV and optionally export the filtered rows",
	Long: `Report runs the dashboard pipeline on a local file and prints the summary
as JSON.

Example:
  claims-dashboard report claims.csv
  claims-dashboard report claims.csv --region North --region South --out denials
  claims-dashboard report claims.csv --start 2025-01-01 --end 2025-03-31`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportOut, "out", "", "base name for CSV and XLSX exports of the filtered rows (optional)")
	reportCmd.Flags().StringVar(&reportSheet, "sheet", "Filtered Results", "worksheet name of the XLSX export")
	reportCmd.Flags().StringSliceVar(&reportRegions, "region", nil, "keep only these regions (repeatable)")
	reportCmd.Flags().StringSliceVar(&reportSpecialties, "specialty", nil, "keep only these provider specialties (repeatable)")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "first claim date to keep (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "last claim date to keep (YYYY-MM-DD)")
}

func runReport(cmd *cobra.Command, args []string) error {
	sel, err := reportSelection()
	if err != nil {
		return err
	}

	ds, err := claims.LoadFile(args[0])
	if err != nil {
		return err
	}
	filtered := analytics.Apply(ds, sel)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(analytics.Summarize(filtered)); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if reportOut == "" {
		return nil
	}
	payload, err := exporter.Export(filtered, reportSheet)
	if err != nil {
		return err
	}
	csvName, xlsxName := exporter.FileNames(filepath.Base(reportOut))
	dir := filepath.Dir(reportOut)
	if err := os.WriteFile(filepath.Join(dir, csvName), payload.CSV, 0644); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, xlsxName), payload.XLSX, 0644); err != nil {
		return fmt.Errorf("failed to write XLSX export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s and %s\n",
		filtered.Len(), filepath.Join(dir, csvName), filepath.Join(dir, xlsxName))
	return nil
}

// reportSelection builds the filter from flags. Start and end must be given
// together and in order.
func reportSelection() (models.FilterSelection, error) {
	sel := models.FilterSelection{
		Regions:     reportRegions,
		Specialties: reportSpecialties,
	}
	if reportStart == "" && reportEnd == "" {
		return sel, nil
	}
	if reportStart == "" || reportEnd == "" {
		return sel, fmt.Errorf("--start and --end must be used together")
	}
	start, err := time.Parse(models.DateLayout, reportStart)
	if err != nil {
		return sel, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse(models.DateLayout, reportEnd)
	if err != nil {
		return sel, fmt.Errorf("invalid --end: %w", err)
	}
	if start.After(end) {
		return sel, fmt.Errorf("--start %s is after --end %s", reportStart, reportEnd)
	}
	sel.DateRange = &models.DateRange{Start: models.DateOf(start), End: models.DateOf(end)}
	return sel, nil
}
