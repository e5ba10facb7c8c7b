// Package main provides the CLI entrypoint for tuiorder.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuiorder/internal/config"
	"github.com/verte-zerg/tuiorder/internal/logging"
	"github.com/verte-zerg/tuiorder/internal/model"
	"github.com/verte-zerg/tuiorder/internal/persist"
	"github.com/verte-zerg/tuiorder/internal/problemset"
	"github.com/verte-zerg/tuiorder/internal/session"
	"github.com/verte-zerg/tuiorder/internal/stats"
	"github.com/verte-zerg/tuiorder/internal/statsui"
	"github.com/verte-zerg/tuiorder/internal/store"
	"github.com/verte-zerg/tuiorder/internal/tui"
)

const (
	defaultLogLevel  = "info"
	fetchTimeout     = 30 * time.Second
	statsLoadTimeout = 30 * time.Second
)

//go:embed problems.json
var sampleProblems []byte

var (
	practiceSource    string
	practiceNamespace = persist.DefaultNamespace
	logLevel          = defaultLogLevel
	logPath           string

	statsPlain bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiorder",
		Short:         "TUI word-ordering trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&practiceSource, "source", "", "problem set file or http(s) URL (default: bundled sample)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "log file path (default: XDG data dir)")
	rootCmd.Flags().StringVar(&practiceNamespace, "namespace", persist.DefaultNamespace, "storage namespace for saved sessions")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHashCmd())
	rootCmd.AddCommand(newFetchCmd())

	return rootCmd
}

// env bundles what every command needs once flags and config are resolved.
type env struct {
	cfg    model.Config
	logger *zap.Logger
}

func setup(cmd *cobra.Command) (env, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return env{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "source", &practiceSource, fileCfg.Practice.Source)
	applyStringConfig(cmd, "namespace", &practiceNamespace, fileCfg.Practice.Namespace)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logPath, fileCfg.Log.Path)

	cfg := model.Config{
		Source:    strings.TrimSpace(practiceSource),
		Namespace: strings.TrimSpace(practiceNamespace),
		CacheDir:  config.DefaultCacheDir(),
	}
	if err := validateConfig(cfg); err != nil {
		return env{}, err
	}
	if cfg.Source == "" {
		path, err := ensureSampleProblems()
		if err != nil {
			return env{}, err
		}
		cfg.Source = path
	}

	path := logPath
	if path == "" {
		path = config.DefaultLogPath()
	}
	logger, err := logging.New(logLevel, path)
	if err != nil {
		return env{}, err
	}
	return env{cfg: cfg, logger: logger}, nil
}

func (e env) close() {
	_ = e.logger.Sync()
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	src := problemset.NewSource(e.cfg.Source, e.cfg.CacheDir, e.logger)
	sessions := persist.New(st, e.cfg.Namespace, e.logger)
	ui := tui.NewModel(tui.Options{
		Source: src.String(),
		Load: func(ctx context.Context) (model.ProblemSet, error) {
			return problemset.Load(ctx, src)
		},
		Open: func(ctx context.Context, problems model.ProblemSet) *session.Session {
			return session.Open(ctx, problems, problemset.Hash(problems), session.Options{
				Store:    sessions,
				Attempts: st,
				Logger:   e.logger,
			})
		},
		Logger: e.logger,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-problem attempt stats for a problem set",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain table instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	problems, err := loadProblems(e)
	if err != nil {
		return err
	}
	hash := problemset.Hash(problems)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	load := func(ctx context.Context) (stats.Report, error) {
		ctx, cancel := context.WithTimeout(ctx, statsLoadTimeout)
		defer cancel()
		return stats.BuildReport(ctx, st, problems, hash)
	}
	if statsPlain {
		report, err := load(context.Background())
		if err != nil {
			return err
		}
		return stats.Render(cmd.OutOrStdout(), report)
	}

	ui := statsui.NewModel(load)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the content hash and storage key of a problem set",
		Args:  cobra.NoArgs,
		RunE:  runHashCmd,
	}
	cmd.Flags().StringVar(&practiceNamespace, "namespace", persist.DefaultNamespace, "storage namespace for saved sessions")
	return cmd
}

func runHashCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	problems, err := loadProblems(e)
	if err != nil {
		return err
	}
	hash := problemset.Hash(problems)
	key := persist.New(nil, e.cfg.Namespace, e.logger).Key(hash)
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "problems: %d\nhash: %s\nkey: %s\n", len(problems), hash, key); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download a remote problem set into the offline cache",
		Args:  cobra.NoArgs,
		RunE:  runFetchCmd,
	}
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if !problemset.IsURL(e.cfg.Source) {
		return fmt.Errorf("--source must be an http(s) URL to fetch")
	}
	logErrf("Fetching %s...\n", e.cfg.Source)
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	src := problemset.NewCachedSource(e.cfg.Source, e.cfg.CacheDir, e.logger)
	problems, err := src.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch problems from %s: %w", src, err)
	}
	logErrf("Cached %d problems (hash %s) under %s\n", len(problems), problemset.Hash(problems), e.cfg.CacheDir)
	return nil
}

func loadProblems(e env) (model.ProblemSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	src := problemset.NewSource(e.cfg.Source, e.cfg.CacheDir, e.logger)
	problems, err := problemset.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load problems from %s: %w", src, err)
	}
	return problems, nil
}

// ensureSampleProblems writes the bundled problem set to the default location
// on first use and returns its path.
func ensureSampleProblems() (string, error) {
	path := config.DefaultProblemsPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat problems: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create problems directory: %w", err)
	}
	if err := os.WriteFile(path, sampleProblems, 0o644); err != nil {
		return "", fmt.Errorf("failed to write sample problems: %w", err)
	}
	logErrf("Wrote sample problems to %s\n", path)
	return path, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuiorder configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# source = %q    # Problem set file or http(s) URL
# namespace = %q      # Storage namespace for saved sessions

[log]
# level = %q            # debug, info, warn, error
# path = %q
`,
		config.DefaultProblemsPath(),
		persist.DefaultNamespace,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Namespace == "" {
		return fmt.Errorf("--namespace must not be empty")
	}
	if strings.Contains(cfg.Namespace, ":") {
		return fmt.Errorf("--namespace must not contain ':'")
	}
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
