package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inquisit/internal/api"
	"inquisit/internal/config"
	"inquisit/internal/engine"
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

var (
	// Global flags
	configPath string
	workspace  string
	debugMode  bool

	cfg *config.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "inquisit",
	Short: "inquisit - adaptive Socratic questioning engine",
	Long: `inquisit selects the best Socratic question pattern for each turn of a
guided dialogue, learns which patterns work from recorded outcomes, and
tracks the conversation through five flow phases (exploring, deepening,
clarifying, synthesizing, concluding).

Run without arguments to serve the engine over MCP on stdio.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if workspace != "" {
			cfg.Workspace = workspace
		}
		if debugMode {
			cfg.Logging.DebugMode = true
		}

		if err := logging.Initialize(cfg.Workspace, logging.Options{
			Enabled:    cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			// Logging is best-effort; the engine works without it.
			fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Shutdown()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// serveCmd runs the MCP stdio server explicitly.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over MCP on stdin/stdout",
	Long: `Starts the Model Context Protocol server. Tool calls arrive on stdin and
results go to stdout; logs are written to files under the workspace so they
never corrupt the protocol stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// patternsCmd lists the built-in question pattern catalog.
var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the built-in question patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := pattern.NewCatalog()
		patterns := catalog.All()
		sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID < patterns[j].ID })

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMIN TIER\tMAX DEPTH\tPHASE\tCATEGORIES")
		for _, p := range patterns {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\n",
				p.ID, p.MinExpertise, p.MaxDepth, p.PhaseAffinity, p.Categories)
		}
		return w.Flush()
	},
}

// versionCmd prints the build identity.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the inquisit version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
	},
}

func runServe() error {
	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer eng.Close()

	// Hot-reload scoring weights and flow thresholds on config edits.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
			if err := eng.Reconfigure(newCfg); err != nil {
				fmt.Fprintf(os.Stderr, "warning: config reload rejected: %v\n", err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: config watching unavailable: %v\n", err)
		} else if err := watcher.Start(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: config watching unavailable: %v\n", err)
		} else {
			defer watcher.Stop()
		}
	}

	srv := api.NewServer(cfg.Name, cfg.Version, eng, cfg.Logging.DebugMode)
	return srv.ServeStdio()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace root for logs and the session database")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
