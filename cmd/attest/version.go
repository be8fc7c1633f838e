package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attest/internal/version"
)

var (
	versionShowHash bool
	versionShowDate bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShowHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&versionShowDate, "date", false, "include build timestamp")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show attest build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "attest %s\n", version.Version)
		if versionShowHash && version.GitCommit != "" {
			fmt.Fprintf(out, "commit: %s\n", version.GitCommit)
		}
		if versionShowDate && version.BuildDate != "" {
			fmt.Fprintf(out, "built:  %s\n", version.BuildDate)
		}
		return nil
	},
}
