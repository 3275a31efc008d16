package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultConfigName = "claims-dashboard.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "claims-dashboard",
	Short: "Healthcare claims denial dashboard",
	Long: `Claims dashboard loads a claims CSV, validates its schema, and reports
totals, status breakdowns, denied amounts by region, monthly trends and the
top denial reasons. Filtered results export as CSV and Excel.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("claims-dashboard %s (built %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+defaultConfigName+" next to the executable)")
	rootCmd.AddCommand(versionCmd)
}

// configPath resolves the config file location. Without --config the file
// lives next to the executable, falling back to the working directory.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	exePath, err := os.Executable()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(filepath.Dir(exePath), defaultConfigName)
}
