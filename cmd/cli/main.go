package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hellboyz13/bankstatement/internal/categorize"
	"github.com/hellboyz13/bankstatement/internal/extractor"
	"github.com/hellboyz13/bankstatement/internal/fallback"
	"github.com/hellboyz13/bankstatement/internal/logger"
	"github.com/hellboyz13/bankstatement/internal/pipeline"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "statementctl",
	Short: "Parse bank statement PDFs into normalized transactions",
	Long: `statementctl extracts transactions from bank statement PDFs.

With a Gemini API key it chunks the statement and extracts transactions
through the model; without one it falls back to deterministic layout
parsers. Output is the normalized statement as JSON.`,
}

var parseCmd = &cobra.Command{
	Use:   "parse <statement.pdf>",
	Short: "Parse a statement PDF and print the transactions as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	parseCmd.Flags().String("gemini-key", "", "Gemini API key (or STMT_GEMINI_API_KEY)")
	parseCmd.Flags().String("model", "gemini-2.5-flash", "Gemini model name")
	parseCmd.Flags().Bool("no-gemini", false, "Skip the extraction backend and use the deterministic parser")
	parseCmd.Flags().String("policy", "best-effort", "Chunk failure policy: best-effort or fail-fast")
	parseCmd.Flags().Int("chunk-size", 2, "Pages per extraction chunk")
	parseCmd.Flags().Duration("job-timeout", 90*time.Second, "Overall parse deadline")
	parseCmd.Flags().String("currency", "SGD", "Default currency for parsed transactions")
	parseCmd.Flags().Bool("progress", false, "Print progress events to stderr")

	viper.SetEnvPrefix("STMT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{"gemini-key", "model", "policy", "chunk-size", "job-timeout", "currency"} {
		_ = viper.BindPFlag(name, parseCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(parseCmd, versionCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.NewWithWriter(os.Stderr)

	pages, err := extractor.ExtractFile(args[0])
	if err != nil {
		return fmt.Errorf("extract %s: %w", args[0], err)
	}

	engine := categorize.NewEngine(categorize.DefaultRules())

	var onProgress pipeline.ProgressFunc
	if ok, _ := cmd.Flags().GetBool("progress"); ok {
		onProgress = func(ev pipeline.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", ev.Progress, ev.Message)
		}
	}

	noGemini, _ := cmd.Flags().GetBool("no-gemini")
	apiKey := viper.GetString("gemini-key")

	var stmt interface{}
	if !noGemini && apiKey != "" {
		pl, err := pipeline.New(
			pipeline.NewGeminiExtractor(viper.GetString("model"), apiKey),
			engine,
			pipeline.Config{
				ChunkSize:  viper.GetInt("chunk-size"),
				JobTimeout: viper.GetDuration("job-timeout"),
				Policy:     pipeline.DispatchPolicy(viper.GetString("policy")),
			},
			log,
		)
		if err != nil {
			return err
		}
		stmt, err = pl.Run(context.Background(), pages, onProgress)
		if err != nil {
			return err
		}
	} else {
		stmt, err = fallback.ParseStatement(pages, fallback.Options{
			DefaultCurrency: viper.GetString("currency"),
			Categorizer:     engine,
		})
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stmt)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
