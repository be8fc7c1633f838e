package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"attest/internal/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path ...]",
	Short: "Remove cached compiled-module artifacts",
	Long:  `Clean deletes every artifact folder found under the given paths (default: the current directory).`,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if len(args) == 0 {
		args = []string{"."}
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	removed := 0
	for _, arg := range args {
		var dirs []string
		err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && d.Name() == cache.DirName {
				dirs = append(dirs, path)
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to remove %s: %w", dir, err)
			}
			removed++
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dir)
			}
		}
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%d artifact folder(s) removed\n", removed)
	}
	return nil
}
