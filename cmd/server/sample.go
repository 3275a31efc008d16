package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/exporter"
)

var sampleOut string

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write the sample claims CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		if err := exporter.WriteCSV(&buf, claims.SampleDataset()); err != nil {
			return err
		}
		if err := os.WriteFile(sampleOut, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", sampleOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringVarP(&sampleOut, "out", "o", claims.SampleFileName, "output path")
}
