// doxgraph reconstructs the declaration ownership hierarchy of a codebase
// from Doxygen XML output and prints the reconciled graph.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"doxgraph/internal/config"
	"doxgraph/internal/doxml"
	"doxgraph/internal/graph"
	"doxgraph/internal/store"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	xmlDir        string
	stripFromPath string
	treeView      bool
	dbPath        string

	// Logger
	logger *zap.Logger
)

// rootCmd reconciles the graph and prints a per-kind summary, or the full
// hierarchy with --tree.
var rootCmd = &cobra.Command{
	Use:   "doxgraph",
	Short: "doxgraph - declaration hierarchy reconciliation for Doxygen XML",
	Long: `doxgraph ingests the cross-referenced records Doxygen writes into its XML
output directory and reconstructs the full ownership hierarchy between the
declared entities: which class owns which nested type, which namespace owns
which function, which file defines what, and which directory holds which file.

The Doxygen index only partially preserves these relationships; doxgraph
repairs them with layered name- and path-structure heuristics and reports any
contradictory evidence it finds.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runReconcile,
}

// checkCmd reconciles the graph and reports diagnostics only, failing when a
// conflict was found. Useful in CI to catch one-refid-two-definitions input.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile and report diagnostics, failing on conflicts",
	RunE:  runCheck,
}

// exportCmd reconciles the graph and writes the snapshot into a SQLite
// database for downstream tooling.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Reconcile and save the hierarchy into a SQLite database",
	RunE:  runExport,
}

// watchCmd re-runs the reconciliation whenever the XML directory changes, so
// the summary tracks a live Doxygen build.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile on every change to the XML directory",
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&xmlDir, "xml-dir", "", "Doxygen XML output directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&stripFromPath, "strip-from-path", "", "path prefix to strip from file locations (overrides config)")
	rootCmd.Flags().BoolVar(&treeView, "tree", false, "print the full hierarchy instead of the summary")
	exportCmd.Flags().StringVar(&dbPath, "db", "doxgraph.db", "SQLite database to write the snapshot to")
	rootCmd.AddCommand(checkCmd, exportCmd, watchCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if xmlDir != "" {
		cfg.XMLDir = xmlDir
	}
	if stripFromPath != "" {
		cfg.StripFromPath = stripFromPath
	}
	if treeView {
		cfg.TreeView = true
	}
	return cfg, nil
}

func reconcile(cfg *config.Config) (*graph.Result, error) {
	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID))
	log.Info("reconciling", zap.String("xml_dir", cfg.XMLDir))

	loader := doxml.New(cfg.XMLDir, log)
	idx, err := loader.Index()
	if err != nil {
		return nil, err
	}

	// warm the record cache; the pipeline itself stays single threaded
	refids := make([]string, 0, len(idx.Compounds))
	for _, c := range idx.Compounds {
		refids = append(refids, c.Refid)
	}
	if err := loader.Preload(context.Background(), refids); err != nil {
		return nil, err
	}

	return graph.Reconcile(loader, graph.Options{StripFromPath: cfg.StripFromPath}, log)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := reconcile(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", cfg.RootTitle)
	if cfg.TreeView {
		printTree(out, res.Registry)
	} else {
		printSummary(out, res.Registry)
	}
	printDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := reconcile(cfg)
	if err != nil {
		return err
	}

	printDiagnostics(cmd.OutOrStdout(), res.Diagnostics)
	for _, d := range res.Diagnostics {
		if d.Severity == graph.SeverityConflict {
			return fmt.Errorf("input contains conflicting definitions")
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "no conflicts found")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := reconcile(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SaveResult(res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d nodes to %s\n", res.Registry.Len(), dbPath)
	printDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)
	return nil
}

// watchDebounce coalesces the burst of writes Doxygen produces into a single
// reconciliation run.
const watchDebounce = 500 * time.Millisecond

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(cfg.XMLDir); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.XMLDir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	run := func() {
		res, err := reconcile(cfg)
		if err != nil {
			logger.Warn("reconciliation failed", zap.Error(err))
			return
		}
		fmt.Fprintf(out, "%s\n\n", cfg.RootTitle)
		printSummary(out, res.Registry)
		printDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)
	}
	run()

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-debounce.C:
			run()
		}
	}
}

func printSummary(out io.Writer, reg *graph.Registry) {
	rows := []struct {
		label string
		nodes []*graph.Node
	}{
		{"namespaces", reg.Namespaces},
		{"classes/structs", reg.ClassLike},
		{"unions", reg.Unions},
		{"enums", reg.Enums},
		{"functions", reg.Functions},
		{"variables", reg.Variables},
		{"typedefs", reg.Typedefs},
		{"defines", reg.Defines},
		{"directories", reg.Dirs},
		{"files", reg.Files},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-16s %d\n", row.label, len(row.nodes))
	}
}

func printTree(out io.Writer, reg *graph.Registry) {
	fmt.Fprintln(out, "Class hierarchy:")
	for _, ns := range reg.Namespaces {
		if ns.InClassHierarchy() {
			ns.WriteTree(out, 1)
		}
	}
	for _, cl := range reg.ClassLike {
		if cl.InClassHierarchy() && cl.Parent == nil {
			cl.WriteTree(out, 1)
		}
	}

	fmt.Fprintln(out, "Directory hierarchy:")
	for _, d := range reg.Dirs {
		if d.InDirectoryHierarchy() {
			d.WriteTree(out, 1)
		}
	}
	for _, f := range reg.Files {
		if f.Parent == nil {
			f.WriteTree(out, 1)
		}
	}
}

func printDiagnostics(out io.Writer, diags []graph.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(out, "[%s] %s: %s\n", d.Severity, d.Refid, d.Message)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
