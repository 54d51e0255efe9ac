package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beemind-ai/beemind/pkg/config"
	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/datasets"
	"github.com/beemind-ai/beemind/pkg/engine"
	"github.com/beemind-ai/beemind/pkg/evaluator"
	"github.com/beemind-ai/beemind/pkg/families"
	"github.com/beemind-ai/beemind/pkg/history"
	"github.com/beemind-ai/beemind/pkg/logging"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an evolution session from a YAML configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvolution(configPath)
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "beemind.yaml", "path to run configuration")
	rootCmd.AddCommand(runCmd)
}

func runEvolution(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	setupLogging(cfg.Logging)
	logger := logging.GetLogger()

	dataset, encoder, err := datasets.Load(cfg.Dataset.Path, cfg.Dataset.Format, cfg.Dataset.LabelColumn)
	if err != nil {
		return err
	}

	session := cfg.Session.EvolutionSession
	eval, err := evaluator.New(dataset, session.Seed,
		evaluator.WithBudget(session.EvalBudget))
	if err != nil {
		return err
	}

	factory := families.NewFactory(families.NewRegistry(), session.FocusWeight)

	opts := []engine.Option{}
	if cfg.Archive.Path != "" {
		archive, err := history.NewSQLiteArchive(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer archive.Close()
		opts = append(opts, engine.WithAuditSink(archive))
	}

	eng, err := engine.New(session, factory, eval, opts...)
	if err != nil {
		return err
	}

	// SIGINT cancels cooperatively: the current generation finishes, then
	// the run terminates with the best seen so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := eng.Run(ctx)
	if err != nil {
		if result != nil {
			printResult(result, encoder)
		}
		return err
	}

	logger.Info(ctx, "run %s finished with status %s", eng.RunID(), result.Status)
	printResult(result, encoder)
	return nil
}

func setupLogging(cfg config.LoggingConfig) {
	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.JSONFile != "" {
		if f, err := os.OpenFile(cfg.JSONFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			outputs = append(outputs, logging.NewJSONOutput(f))
		}
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Level),
		Outputs:  outputs,
	}))
}

func printResult(result *core.EvolutionResult, encoder *datasets.LabelEncoder) {
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("best family: %s\n", result.Best.Family)
	fmt.Printf("best fitness: %.4f", result.BestFitness.Primary)
	if f1, ok := result.BestFitness.Secondary["f1"]; ok {
		fmt.Printf(" (f1 %.4f)", f1)
	}
	fmt.Println()

	fmt.Println("parameters:")
	for name, value := range result.Best.Parameters {
		fmt.Printf("  %s: %v\n", name, value)
	}

	fmt.Printf("classes: %d, generations recorded: %d\n", encoder.NumClasses(), len(result.History))
	for _, record := range result.History {
		fmt.Printf("  gen %3d  best %.4f  mean %.4f  failures %d  (%s)\n",
			record.Generation, record.BestFitness.Primary, record.MeanFitness,
			record.Failures, record.Best.Family)
	}

	if result.FinalFailures > 0 {
		fmt.Printf("note: %d candidates failed in the final generation; confidence reduced\n",
			result.FinalFailures)
	}
}
