package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/terraria-rag/wikiclean/config"
	"github.com/terraria-rag/wikiclean/internal/batch"
	mcpServer "github.com/terraria-rag/wikiclean/internal/mcp"
	"github.com/terraria-rag/wikiclean/internal/templates"
	"github.com/terraria-rag/wikiclean/internal/tools"
	"github.com/terraria-rag/wikiclean/internal/wiki"
)

var (
	// Global flags
	cfgFile string

	v      = config.New()
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wikiclean",
	Short: "Turn MediaWiki pages into plain text for retrieval",
	Long: `wikiclean strips MediaWiki markup from wiki dumps: links become their
display text, tables become one line per row, templates are rendered by
configurable rules and noise sections are dropped.

Use "clean" for whole dumps and "serve" to expose the engine as MCP tools.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		}
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}

		// Initialize logger
		zapConfig := zap.NewProductionConfig()
		if cfg.Verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug("config loaded", zap.String("file", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a JSON dump of wiki records",
	Example: `  wikiclean clean -i raw.json -o cleaned.json
  wikiclean clean -i raw.json -o cleaned.json --workers 8 --rules rules.yaml --skip-errors`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cleaning engine as MCP tools",
	Long: `Serve the cleaning engine over streamable HTTP (/mcp, /health) or, with
--stdio, over stdin/stdout. Template rules are reloaded when the config file
changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./wikiclean.yaml or ~/.config/wikiclean/wikiclean.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	_ = v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	cleanCmd.Flags().StringP("input", "i", "", "Raw dump (JSON object or array of records)")
	cleanCmd.Flags().StringP("output", "o", "", "Where to write the cleaned dump")
	cleanCmd.Flags().Int("workers", 0, "Concurrent workers")
	cleanCmd.Flags().String("rules", "", "Template rules file (YAML)")
	cleanCmd.Flags().Bool("skip-errors", false, "Log and drop records that fail to clean instead of aborting")
	cleanCmd.Flags().Bool("no-filter", false, "Keep records with excluded titles")
	_ = cleanCmd.MarkFlagRequired("input")
	_ = cleanCmd.MarkFlagRequired("output")
	_ = v.BindPFlag("workers", cleanCmd.Flags().Lookup("workers"))
	_ = v.BindPFlag("rules_file", cleanCmd.Flags().Lookup("rules"))
	_ = v.BindPFlag("skip_errors", cleanCmd.Flags().Lookup("skip-errors"))

	serveCmd.Flags().String("port", "", "HTTP port")
	serveCmd.Flags().Bool("stdio", false, "Serve over stdin/stdout instead of HTTP")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(cleanCmd, serveCmd)
}

func main() {
	rootCmd.Version = mcpServer.Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	noFilter, _ := cmd.Flags().GetBool("no-filter")

	reg, err := templates.Load(cfg.RulesFile)
	if err != nil {
		return err
	}

	recs, err := wiki.ReadDumpFile(input)
	if err != nil {
		return err
	}

	opts := cfg.CleanerOptions()
	opts.Handler = reg

	runner := &batch.Runner{
		Cleaner:    wiki.NewCleaner(opts),
		Workers:    cfg.Workers,
		SkipErrors: cfg.SkipErrors,
		Logger:     logger,
	}
	if !noFilter {
		runner.Filter = cfg.ExcludeFilter()
	}

	cleaned, stats, err := runner.Run(ctx, recs)
	if err != nil {
		return fmt.Errorf("clean %s: %w", input, err)
	}

	if err := wiki.WriteDumpFile(output, cleaned); err != nil {
		return err
	}

	logger.Info("dump written",
		zap.String("run_id", stats.RunID),
		zap.String("output", output),
		zap.Int("records", len(cleaned)))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdio, _ := cmd.Flags().GetBool("stdio")

	reg, err := templates.Load(cfg.RulesFile)
	if err != nil {
		return err
	}

	engine := tools.NewEngine(reg, tools.Config{
		RateLimit: cfg.RateLimit,
		CacheTTL:  cfg.CacheTTL,
		Options:   cfg.CleanerOptions(),
	})
	defer engine.Close()

	server := mcpServer.NewServer(engine, logger)

	if v.ConfigFileUsed() != "" {
		config.Watch(v, func(e fsnotify.Event, next *config.Config, err error) {
			if err != nil {
				logger.Warn("config reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}
			reg, err := templates.Load(next.RulesFile)
			if err != nil {
				logger.Warn("template rules reload failed", zap.String("file", next.RulesFile), zap.Error(err))
				return
			}
			engine.Reload(reg)
			logger.Info("template rules reloaded", zap.String("config", e.Name), zap.Int("rules", len(reg.Names())))
		})
	}

	logger.Info("starting wikiclean MCP server",
		zap.String("version", mcpServer.Version),
		zap.Bool("stdio", stdio),
		zap.Float64("rate_limit", cfg.RateLimit),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("template_rules", len(reg.Names())))

	if stdio {
		if err := server.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil
	}

	if err := server.ListenAndServe(ctx, ":"+cfg.Port); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
