package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/di"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the analysis
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(logger *zap.Logger, service *core.AnalysisService, flags *di.CLIFlags) error {
	defer logger.Sync()
	defer func() {
		if err := service.Close(); err != nil {
			logger.Error("Failed to close analysis service", zap.Error(err))
		}
	}()

	ctx := context.Background()

	if flags.BatchFile != "" {
		if err := runBatch(ctx, service, flags, logger); err != nil {
			return err
		}
	} else {
		text, err := readInput(flags, logger)
		if err != nil {
			return err
		}

		verdict, err := service.Analyze(ctx, text)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		if flags.Format == "json" {
			if err := printJSON(verdict); err != nil {
				return err
			}
		} else {
			fmt.Printf("\n=== Verdict ===\n")
			printVerdict(verdict)
		}
	}

	if flags.ShowStats {
		return printStats(ctx, service, flags.Format)
	}
	return nil
}

// readInput resolves the content to analyze from flags, file, or stdin
func readInput(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.Text != "" {
		return flags.Text, nil
	}

	if flags.InputFile != "" {
		data, err := os.ReadFile(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		logger.Info("Read content from file", zap.String("file", flags.InputFile))
		return string(data), nil
	}

	logger.Info("Reading content from stdin")
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// runBatch analyzes one content item per line of the batch file
func runBatch(ctx context.Context, service *core.AnalysisService, flags *di.CLIFlags, logger *zap.Logger) error {
	file, err := os.Open(flags.BatchFile)
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	var texts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		texts = append(texts, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	logger.Info("Analyzing batch", zap.Int("items", len(texts)))
	verdicts, err := service.AnalyzeBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("batch analysis failed: %w", err)
	}

	if flags.Format == "json" {
		return printJSON(verdicts)
	}
	for i, verdict := range verdicts {
		fmt.Printf("\n=== Verdict %d of %d ===\n", i+1, len(verdicts))
		printVerdict(verdict)
	}
	return nil
}

// printVerdict prints one verdict in human-readable form
func printVerdict(v *core.Verdict) {
	fmt.Printf("Decision: %s\n", v.Decision)
	fmt.Printf("Score: %.4f\n", v.Score)
	fmt.Printf("Confidence: %.4f\n", v.Confidence)
	if v.Reason != "" {
		fmt.Printf("Reason: %s\n", v.Reason)
	}
	fmt.Printf("Fingerprint: %s\n", v.Fingerprint)
	fmt.Printf("Cached: %t\n", v.Cached)
	fmt.Printf("Processing time: %.2f ms\n", v.ProcessingTimeMs)

	if len(v.Signals) > 0 {
		fmt.Printf("Signals:\n")
		for _, sig := range v.Signals {
			fmt.Printf("  %s (%s): confidence %.2f, weight %.2f\n",
				sig.Kind, sig.Severity, sig.Confidence, sig.Weight)
			for _, ev := range sig.Evidence {
				fmt.Printf("    - %s\n", ev)
			}
		}
	}
}

// printStats prints the combined service statistics
func printStats(ctx context.Context, service *core.AnalysisService, format string) error {
	stats, err := service.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect statistics: %w", err)
	}

	if format == "json" {
		return printJSON(stats)
	}

	fmt.Printf("\n=== Statistics ===\n")
	fmt.Printf("Uptime: %v\n", time.Since(stats.StartedAt).Round(time.Millisecond))
	fmt.Printf("Analyzed: %d\n", stats.Analyzed)
	fmt.Printf("Short circuits: %d\n", stats.ShortCircuits)
	for _, decision := range []core.Decision{core.DecisionAllow, core.DecisionFlag, core.DecisionUnderReview, core.DecisionReject} {
		if n, ok := stats.ByDecision[decision]; ok {
			fmt.Printf("  %s: %d\n", decision, n)
		}
	}

	fmt.Printf("Cache: %d entries, hit rate %.2f\n", stats.Cache.Entries, stats.Cache.HitRate)
	fmt.Printf("Performance: avg %.2f ms, p95 %.2f ms, p99 %.2f ms\n",
		stats.Performance.AvgMs, stats.Performance.P95Ms, stats.Performance.P99Ms)
	fmt.Printf("Health: %s\n", stats.Performance.Health)
	for _, rec := range stats.Performance.Recommendations {
		fmt.Printf("  [%s] %s: %s\n", rec.Severity, rec.Category, rec.Message)
	}

	if stats.Store != nil {
		fmt.Printf("Store: %s, %d records, %d bytes\n",
			stats.Store.Kind, stats.Store.Records, stats.Store.SizeBytes)
	}
	return nil
}

// printJSON prints any value as indented JSON
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
