package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vmks/macsweep/internal/analyzer"
	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/classify"
	"github.com/vmks/macsweep/internal/cleaner"
	"github.com/vmks/macsweep/internal/config"
	"github.com/vmks/macsweep/internal/logging"
	"github.com/vmks/macsweep/internal/platform"
	"github.com/vmks/macsweep/internal/progress"
	"github.com/vmks/macsweep/internal/reporter"
	"github.com/vmks/macsweep/internal/safety"
	"github.com/vmks/macsweep/internal/scanner"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	outputFmt  string
	fullScan   bool
	noDryRun   bool
	confirm    string
	trashDir   string
	underPath  string
	limit      int
	window     int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "macsweep",
	Short: "Disk space manager with a scan catalog and safety-gated cleanup",
	Long: `macsweep scans directory trees in parallel, fingerprints every directory,
keeps the results in a local catalog, and recommends what is safe to clean.
Cleanup always moves to the trash, is dry-run by default, and keeps an
append-only audit history with rollback.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
}

var scanCmd = &cobra.Command{
	Use:   "scan <root>",
	Short: "Scan a directory tree into the catalog",
	Long: `Scans the given root, classifying and fingerprinting every directory.
When a completed scan of the same root exists, directories whose fingerprints
are unchanged reuse their previous file records instead of re-hashing content;
pass --full to ignore previous scans.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := scanner.Options{Exclusions: env.cfg.Exclusions}
		if !fullScan {
			prev, err := env.store.LatestScan(ctx, root)
			if err != nil {
				return err
			}
			opts.Previous = prev
		}

		prog := progress.NewReporter()
		if verbose {
			updates := prog.Subscribe()
			defer prog.Unsubscribe(updates)
			go func() {
				for u := range updates {
					if su, ok := u.(*progress.ScanUpdate); ok {
						fmt.Fprintln(os.Stderr, progress.FormatScan(su))
					}
				}
			}()
		}

		scn := scanner.New(env.store, env.classifier, prog, env.logger, env.cfg.Scanner)
		scan, err := scn.Scan(ctx, root, opts)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		largest, err := env.store.LargestDirectories(ctx, scan.ID, 10)
		if err != nil {
			return err
		}
		usage, err := env.store.DeletableSizeByCategory(ctx, scan.ID)
		if err != nil {
			return err
		}
		return outputReporter().ScanSummary(scan, largest, usage)
	},
}

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List recent scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		ctx := context.Background()
		scans, err := env.store.ListScans(ctx, limit)
		if err != nil {
			return err
		}
		for _, s := range scans {
			fmt.Printf("%s  %-11s %-8s %s  %s\n",
				s.StartedAt.Format("2006-01-02 15:04:05"), s.Kind, s.Status, s.ID, s.RootPath)
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <root>",
	Short: "Rank deletable categories in the latest scan of a root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		ctx := context.Background()
		scan, err := latestScanFor(ctx, env, args[0])
		if err != nil {
			return err
		}

		recs, err := analyzer.New(env.store, env.logger).Recommend(ctx, scan.ID)
		if err != nil {
			return err
		}

		hints := make(map[string]string, len(env.cfg.Categories))
		for _, c := range env.cfg.Categories {
			hints[c.Name] = c.RestorationHint
		}
		return outputReporter().Recommendations(recs, hints)
	},
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <root>",
	Short: "Show duplicate file groups in the latest scan of a root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		ctx := context.Background()
		scan, err := latestScanFor(ctx, env, args[0])
		if err != nil {
			return err
		}

		a := analyzer.New(env.store, env.logger)
		var groups []analyzer.DuplicateGroup
		if underPath != "" {
			prefix, err := filepath.Abs(underPath)
			if err != nil {
				return err
			}
			groups, err = a.FindDuplicatesUnder(ctx, scan.ID, prefix)
			if err != nil {
				return err
			}
		} else {
			groups, err = a.FindDuplicates(ctx, scan.ID)
			if err != nil {
				return err
			}
		}
		return outputReporter().Duplicates(groups)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <old-scan-id> <new-scan-id>",
	Short: "Diff two scans of the same root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		ctx := context.Background()
		oldScan, err := env.store.GetScan(ctx, args[0])
		if err != nil {
			return err
		}
		newScan, err := env.store.GetScan(ctx, args[1])
		if err != nil {
			return err
		}
		if oldScan == nil || newScan == nil {
			return fmt.Errorf("unknown scan id")
		}

		report, err := analyzer.New(env.store, env.logger).Compare(ctx, oldScan, newScan)
		if err != nil {
			return err
		}
		return outputReporter().Changes(report)
	},
}

var growthCmd = &cobra.Command{
	Use:   "growth <path>",
	Short: "Show the growth rate of a directory across recent scans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		rate, err := analyzer.New(env.store, env.logger).GrowthRate(context.Background(), path, window)
		if err != nil {
			return err
		}
		return outputReporter().Growth(path, rate)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean <path>",
	Short: "Move a path to the trash after safety validation",
	Long: `Runs the target through the five-layer safety gate and, if approved,
moves it to the trash and records the action. Dry-run is the default: pass
--no-dry-run and --confirm DELETE to actually move anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		guard := safety.NewGuard(env.info.HomeDir, env.cfg.ProtectedPatterns)
		validator := safety.NewValidator(guard, env.classifier, env.logger)

		decision := validator.Validate(safety.Candidate{
			Path:         path,
			DryRun:       !noDryRun,
			ConfirmToken: confirm,
		})

		if !decision.Approved() {
			rej := decision.Rejection
			if rej.Layer == safety.LayerDryRun {
				fmt.Printf("[dry run] %s would be moved to the trash\n", path)
				if decision.Category != nil {
					fmt.Printf("[dry run] restore with: %s\n", decision.Category.RestorationHint)
				}
				fmt.Println("[dry run] pass --no-dry-run --confirm DELETE to proceed")
				return nil
			}
			return rej
		}

		dir := trashDir
		if dir == "" {
			dir = env.cfg.Trash.Dir
		}
		if dir == "" {
			dir = env.info.TrashDir
		}

		prog, stopProg := cleanProgress()
		defer stopProg()

		exec := cleaner.NewExecutor(env.store, cleaner.NewDirTrash(dir), prog, env.logger)
		entry, err := exec.Execute(context.Background(), decision)
		if err != nil {
			return err
		}
		fmt.Printf("Moved to trash: %s -> %s (entry %s)\n", entry.Path, entry.TrashPath, entry.ID)
		fmt.Printf("Restore with: macsweep rollback %s\n", entry.ID)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <entry-id>",
	Short: "Move a trashed item back to its original path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		ctx := context.Background()
		prior, err := env.store.CleanupEntryByID(ctx, args[0])
		if err != nil {
			return err
		}
		if prior == nil {
			return fmt.Errorf("unknown history entry: %s", args[0])
		}

		dir := trashDir
		if dir == "" {
			dir = env.cfg.Trash.Dir
		}
		if dir == "" {
			dir = env.info.TrashDir
		}

		prog, stopProg := cleanProgress()
		defer stopProg()

		exec := cleaner.NewExecutor(env.store, cleaner.NewDirTrash(dir), prog, env.logger)
		entry, err := exec.Rollback(ctx, prior)
		if err != nil {
			return err
		}
		fmt.Printf("Restored: %s (entry %s)\n", entry.Path, entry.ID)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the cleanup audit history",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		entries, err := env.store.CleanupHistory(context.Background(), limit)
		if err != nil {
			return err
		}
		return outputReporter().History(entries)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories in evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		return outputReporter().Categories(env.classifier.Categories())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "table", "output format (table, json, yaml)")

	scanCmd.Flags().BoolVar(&fullScan, "full", false, "force a full traversal, ignoring previous scans")

	duplicatesCmd.Flags().StringVar(&underPath, "under", "", "only report duplicate groups below this path")

	cleanCmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "actually move files (dry-run is the default)")
	cleanCmd.Flags().StringVar(&confirm, "confirm", "", "explicit confirmation token (DELETE)")
	cleanCmd.Flags().StringVar(&trashDir, "trash-dir", "", "override the trash directory")
	rollbackCmd.Flags().StringVar(&trashDir, "trash-dir", "", "override the trash directory")

	scansCmd.Flags().IntVar(&limit, "limit", 20, "number of scans to list")
	historyCmd.Flags().IntVar(&limit, "limit", 50, "number of entries to show")
	growthCmd.Flags().IntVar(&window, "window", 10, "number of recent scans to consider")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scansCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(growthCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(categoriesCmd)
}

// env bundles everything a command needs.
type env struct {
	cfg        *config.Config
	info       *platform.Info
	store      *catalog.Store
	classifier *classify.Classifier
	logger     *slog.Logger
	logCloser  io.Closer
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.logCloser != nil {
		e.logCloser.Close()
	}
}

// setup loads config, opens the catalog and syncs the configured categories
// and exclusions into it.
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	info, err := platform.GetInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform info: %w", err)
	}

	logCfg := cfg.Logging
	if verbose && logCfg.Level != "debug" {
		logCfg.Level = "debug"
	}
	logger, logCloser := logging.New(logCfg)

	dbPath := cfg.Database.Path
	if dbPath == "" {
		if err := os.MkdirAll(info.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(info.DataDir, "catalog.db")
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		if logCloser != nil {
			logCloser.Close()
		}
		return nil, err
	}

	// The catalog mirrors the configured rule tables so validation reads the
	// same category metadata analysis does.
	ctx := context.Background()
	if err := store.ReplaceCategories(ctx, cfg.Categories); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.ReplaceExclusions(ctx, cfg.Exclusions); err != nil {
		store.Close()
		return nil, err
	}

	return &env{
		cfg:        cfg,
		info:       info,
		store:      store,
		classifier: classify.New(cfg.Categories),
		logger:     logger,
		logCloser:  logCloser,
	}, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(cfgPath)
}

func latestScanFor(ctx context.Context, e *env, rootArg string) (*catalog.Scan, error) {
	root, err := filepath.Abs(rootArg)
	if err != nil {
		return nil, err
	}
	scan, err := e.store.LatestScan(ctx, root)
	if err != nil {
		return nil, err
	}
	if scan == nil {
		return nil, fmt.Errorf("no scan found for %s, run `macsweep scan %s` first", root, root)
	}
	return scan, nil
}

// cleanProgress builds the progress reporter the cleanup executor emits on,
// echoing updates to stderr when verbose.
func cleanProgress() (*progress.Reporter, func()) {
	prog := progress.NewReporter()
	if !verbose {
		return prog, func() {}
	}

	updates := prog.Subscribe()
	go func() {
		for u := range updates {
			if cu, ok := u.(*progress.CleanUpdate); ok {
				fmt.Fprintln(os.Stderr, progress.FormatClean(cu))
			}
		}
	}()
	return prog, func() { prog.Unsubscribe(updates) }
}

func outputReporter() *reporter.Reporter {
	switch outputFmt {
	case "json":
		return reporter.New(os.Stdout, reporter.FormatJSON)
	case "yaml":
		return reporter.New(os.Stdout, reporter.FormatYAML)
	default:
		return reporter.New(os.Stdout, reporter.FormatTable)
	}
}
