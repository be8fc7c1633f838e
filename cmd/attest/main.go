package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"attest/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "Assertion-rewriting test runner for attest scripts",
	Long: `attest runs .att test scripts. Plain assert statements are rewritten
on load so a failure explains itself with the values that were actually
observed, and compiled modules are cached next to their sources.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable the compiled-module cache")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
