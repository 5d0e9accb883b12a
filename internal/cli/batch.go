package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/render"
	"github.com/JoseCortezz25/fact-checking-app/internal/worker"
)

var (
	concurrency int
	outputDir   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check claims from a file in parallel",
	Long: `Batch checks many claims concurrently:
- Read claims from input file (one per line, # starts a comment)
- Check claims in parallel with a configurable worker count
- Write a JSON and a Markdown report per claim

Example:
  factly batch claims.txt
  factly batch claims.txt --concurrency 2 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent fact-checks (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factly-reports", "output directory for reports")
	batchCmd.Flags().IntVar(&depth, "depth", 0, "research depth (default from config)")
	batchCmd.Flags().IntVar(&breadth, "breadth", 0, "initial research breadth (default from config)")
	batchCmd.Flags().StringVar(&language, "language", "", "language of the verdict text")
	addProviderFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	cfg := sess.cfg

	workers := cfg.Concurrency.Workers
	if cmd.Flags().Changed("concurrency") {
		workers = concurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Factly Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Research:     depth %d, breadth %d\n", cfg.Research.Depth, cfg.Research.Breadth)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(sess.pipeline, workers)
	results, err := processor.ProcessFile(sess.ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	counts := writeReports(results, cfg, outputDir)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Verified:  %d\n", counts[model.StatusVerified])
	fmt.Fprintf(os.Stderr, "  Fallback:  %d\n", counts[model.StatusFallback])
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", counts[model.StatusFailed])
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeReports renders every result into dir and prints a summary per claim
func writeReports(results []model.Result, cfg *model.Config, dir string) map[model.ResultStatus]int {
	counts := make(map[model.ResultStatus]int)
	for i := range results {
		res := &results[i]
		counts[res.Status]++

		base := filepath.Join(dir, fmt.Sprintf("%03d-%s", i+1, slugify(res.Claim.Text)))
		if err := writeResult(res, cfg, base+".json", base+".md"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Claim.Text, err)
			continue
		}
		render.Summary(os.Stdout, res)
	}
	return counts
}

// slugify turns a claim into a short, filesystem-safe name
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 60 {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "claim"
	}
	return slug
}
