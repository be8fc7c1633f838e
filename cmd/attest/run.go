package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"attest/internal/cache"
	"attest/internal/config"
	"attest/internal/diag"
	"attest/internal/interp"
	"attest/internal/loader"
	"attest/internal/rewrite"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [path ...]",
	Short: "Run attest test files",
	Long: `Run discovers test files under the given paths (default: the current
directory), loads each through the assertion-rewriting pipeline, and
reports every failure with its reconstructed explanation.`,
	RunE: runTests,
}

func init() {
	runCmd.Flags().Int("jobs", runtime.NumCPU(), "number of files to run in parallel")
	runCmd.Flags().Bool("verbose", false, "show loader and cache trace output")
}

type fileResult struct {
	path string
	err  error
}

var (
	failHeader = color.New(color.FgRed, color.Bold)
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func runTests(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	manifest, _, err := config.Load(".")
	if err != nil {
		return err
	}
	cfg := manifest.Config

	if err := setupColor(cmd, cfg); err != nil {
		return err
	}

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	rep := reporter(quiet, verbose)

	noCache, _ := cmd.Root().PersistentFlags().GetBool("no-cache")
	store := &cache.Store{
		Dir:      cfg.Cache.Dir,
		Disabled: noCache || !cfg.Cache.Enabled,
		Reporter: rep,
	}

	files, err := discover(args, cfg.Test.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no test files found")
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}

	var (
		mu      sync.Mutex
		results []fileResult
	)
	var g errgroup.Group
	g.SetLimit(jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			// One interpreter per file keeps module registries isolated;
			// concurrent cache installs are safe via the atomic rename.
			it := interp.New(rep)
			rewrite.Install(it)
			it.AddLoader(&loader.Hook{
				Cache:    store,
				Patterns: cfg.Test.Patterns,
				Roots:    []string{file},
				Reporter: rep,
			})
			_, err := it.Import(file, filepath.Dir(file))
			mu.Lock()
			results = append(results, fileResult{path: file, err: err})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		if res.err == nil {
			continue
		}
		failed++
		failHeader.Fprintf(out, "FAIL %s\n", res.path)
		if r, ok := res.err.(*interp.Raise); ok {
			if where := r.Where(); where != "" {
				fmt.Fprintf(out, "  at %s\n", where)
			}
			fmt.Fprintf(out, "  %s: %s\n\n", r.Kind, indentTail(r.Msg))
		} else {
			fmt.Fprintf(out, "  %v\n\n", res.err)
		}
	}

	passed := len(results) - failed
	summary := passStyle.Render(fmt.Sprintf("%d passed", passed))
	if failed > 0 {
		summary += ", " + failStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	fmt.Fprintln(out, summary)

	if failed > 0 {
		cmd.SilenceErrors = true
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// indentTail keeps multi-line explanations aligned under the failure line.
func indentTail(msg string) string {
	out := ""
	for i, line := range splitLines(msg) {
		if i > 0 {
			out += "\n  "
		}
		out += line
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}

func setupColor(cmd *cobra.Command, cfg config.Config) error {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	if !cmd.Root().PersistentFlags().Changed("color") && cfg.Output.Color != "" {
		mode = cfg.Output.Color
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (must be auto, on or off)", mode)
	}
	return nil
}

func reporter(quiet, verbose bool) diag.Reporter {
	if quiet {
		return diag.Nop{}
	}
	min := diag.SevWarning
	if verbose {
		min = diag.SevTrace
	}
	return diag.Writer{Out: os.Stderr, Min: min}
}

// discover expands the argument paths into test files: explicit files are
// taken as-is, directories are walked for pattern matches. Artifact
// folders are skipped.
func discover(args, patterns []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	if len(patterns) == 0 {
		patterns = loader.DefaultPatterns
	}
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == cache.DirName {
					return filepath.SkipDir
				}
				return nil
			}
			for _, pat := range patterns {
				if ok, _ := filepath.Match(pat, d.Name()); ok {
					add(path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
