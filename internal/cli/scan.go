package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JoseCortezz25/fact-checking-app/internal/render"
)

var (
	maxClaims     int
	scanOutputDir string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Fact-check the check-worthy sentences of a web page",
	Long: `Scan fetches a web page, picks sentences that state something
verifiable (figures, attributions, records, dates), and fact-checks each.

Example:
  factly scan https://en.wikipedia.org/wiki/Laksa
  factly scan https://example.com/article --max-claims 3 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&maxClaims, "max-claims", 5, "maximum number of claims to check")
	scanCmd.Flags().StringVar(&scanOutputDir, "output-dir", "", "write a JSON and a Markdown report per claim to this directory")
	scanCmd.Flags().IntVar(&depth, "depth", 0, "research depth (default from config)")
	scanCmd.Flags().IntVar(&breadth, "breadth", 0, "initial research breadth (default from config)")
	scanCmd.Flags().StringVar(&language, "language", "", "language of the verdict text")
	addProviderFlags(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	url := args[0]
	if maxClaims < 1 {
		return fmt.Errorf("--max-claims must be at least 1")
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	cfg := sess.cfg

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", url)
		fmt.Fprintf(os.Stderr, "Max claims: %d\n\n", maxClaims)
	}

	result, err := sess.pipeline.ScanURL(sess.ctx, url, maxClaims)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %s: %d check-worthy claims\n\n", result.Title, len(result.Claims))
	if len(result.Claims) == 0 {
		return nil
	}

	if scanOutputDir == "" {
		for i := range result.Results {
			render.Summary(os.Stdout, &result.Results[i])
		}
		return nil
	}

	if err := os.MkdirAll(scanOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	writeReports(result.Results, cfg, scanOutputDir)
	return nil
}
