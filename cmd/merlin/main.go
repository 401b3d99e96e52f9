// Command merlin plays the HackMerlin word-guessing challenge: it questions
// the in-game oracle, extracts letter facts from the replies, and
// reconstructs each level's secret word.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"merlinsolver/internal/config"
	"merlinsolver/internal/embedding"
	"merlinsolver/internal/game"
	"merlinsolver/internal/oracle"
	"merlinsolver/internal/reconstruct"
	"merlinsolver/internal/session"
	"merlinsolver/internal/wordstore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Solve flags, overriding the config file
	resourceTier string
	maxLevels    int
	maxQuestions int
	maxRetries   int
	manualMode   bool
	headful      bool

	// Logger
	logger *zap.Logger
)

// rootCmd runs the solver; there is no separate subcommand for the default
// action, matching how the game is actually played.
var rootCmd = &cobra.Command{
	Use:   "merlin",
	Short: "merlin - automated HackMerlin solver",
	Long: `merlin plays hackmerlin.io by interrogating the oracle one question at a
time, merging its evasive answers into a partial word, and reconstructing
the secret with a configurable resource tier:

  low     concatenate confirmed letters only (no guessing)
  medium  rank lexicon candidates against the letter pattern
  high    ask a generative model, validated against the pattern

Runs a real browser by default; use --manual to copy/paste by hand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg = zap.NewDevelopmentConfig()
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
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.Flags().StringVar(&resourceTier, "resource-tier", "", "reconstruction tier: low, medium or high")
	rootCmd.Flags().IntVar(&maxLevels, "max-levels", 0, "levels to attempt (default 6)")
	rootCmd.Flags().IntVar(&maxQuestions, "max-questions", 0, "question budget per level (default 10)")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "guess retries per level (default 10)")
	rootCmd.Flags().BoolVar(&manualMode, "manual", false, "copy/paste mode instead of browser automation")
	rootCmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
}

func runSolve(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch, err := buildChannel(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	rec, cleanup, err := buildReconstructor(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sessCfg := session.Config{
		MaxQuestions: cfg.MaxQuestions,
		MaxRetries:   cfg.MaxRetries,
		MaxLevels:    cfg.MaxLevels,
	}
	ctrl := session.NewController(ch, rec, sessCfg, logger)
	solver := session.NewSolver(ctrl, sessCfg, logger)

	report, err := solver.Run(ctx)
	printReport(report)
	if err != nil && ctx.Err() != nil {
		logger.Info("run interrupted")
		return nil
	}
	return err
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if resourceTier != "" {
		cfg.ResourceTier = resourceTier
	}
	if maxLevels > 0 {
		cfg.MaxLevels = maxLevels
	}
	if maxQuestions > 0 {
		cfg.MaxQuestions = maxQuestions
	}
	if maxRetries > 0 {
		cfg.MaxRetries = maxRetries
	}
	if manualMode {
		cfg.Game.Manual = true
	}
	if headful {
		cfg.Game.Headless = false
	}
	return cfg, cfg.Validate()
}

func buildChannel(cfg config.Config) (game.Channel, error) {
	if cfg.Game.Manual {
		logger.Info("using manual copy/paste channel")
		return game.NewManual(os.Stdin, os.Stdout), nil
	}
	timeout, err := cfg.AskTimeout()
	if err != nil {
		return nil, err
	}
	return game.NewBrowser(game.BrowserConfig{
		URL:        cfg.Game.URL,
		Headless:   cfg.Game.Headless,
		AskTimeout: timeout,
	}, logger)
}

// buildReconstructor assembles the tier chain and the oracles it needs. The
// returned cleanup closes the lexicon store, when one was opened.
func buildReconstructor(ctx context.Context, cfg config.Config) (reconstruct.Reconstructor, func(), error) {
	tier, err := reconstruct.ParseTier(cfg.ResourceTier)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if tier == reconstruct.TierLow {
		return reconstruct.New(tier, nil, nil, logger), cleanup, nil
	}

	// Medium and high both want the lexicon as a similarity fallback.
	var engine embedding.Engine
	if eng, err := embedding.NewEngine(cfg.Embedding, logger); err == nil {
		engine = eng
	} else {
		logger.Warn("embedding engine unavailable, ranking by letter match only", zap.Error(err))
	}
	store, err := wordstore.Open(cfg.Store.Path, engine, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { _ = store.Close() }
	if engine != nil {
		if err := store.Index(ctx); err != nil {
			logger.Warn("lexicon indexing failed, ranking by letter match only", zap.Error(err))
		}
	}

	var gen reconstruct.GenerativeOracle
	if tier == reconstruct.TierHigh {
		g, err := oracle.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		gen = g
	}
	return reconstruct.New(tier, store, gen, logger), cleanup, nil
}

func printReport(report session.RunReport) {
	fmt.Printf("\nSolved %d of %d levels\n", report.Solved, len(report.Levels))
	for _, lvl := range report.Levels {
		status := "failed"
		if lvl.Solved {
			status = fmt.Sprintf("solved: %s (%s)", lvl.Word, lvl.Confidence)
		}
		fmt.Printf("  level %d: %s  [%d questions, %d retries]\n",
			lvl.Level, status, lvl.Questions, lvl.Retries)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
