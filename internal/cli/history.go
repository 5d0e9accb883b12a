package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JoseCortezz25/fact-checking-app/internal/render"
	"github.com/JoseCortezz25/fact-checking-app/internal/store"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List past fact-checks, or show one",
	Long: `History reads the local fact-check database (store.path).

Example:
  factly history
  factly history --limit 50
  factly history 2f1c7c1e-4d0b-4a43-9f59-1f7d2c9b5a10 --md report.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of results to list")
	historyCmd.Flags().StringVar(&outJSON, "json", "", "write the result as JSON to this path")
	historyCmd.Flags().StringVar(&outMD, "md", "", "write the result as Markdown to this path")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return fmt.Errorf("history is disabled (store.enabled is false)")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if len(args) == 1 {
		res, err := st.Get(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no fact-check with id %s", args[0])
		}
		if err != nil {
			return err
		}
		if err := writeResult(res, cfg, outJSON, outMD); err != nil {
			return err
		}
		render.Summary(os.Stdout, res)
		return nil
	}

	items, err := st.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No fact-checks recorded yet.")
		return nil
	}
	for _, it := range items {
		verdict := string(it.Veracity)
		if verdict == "" {
			verdict = "-"
		}
		fmt.Printf("%s  %s  %-8s  %-7s  %.2f  %s\n",
			it.ID, it.StartedAt.Local().Format("2006-01-02 15:04"), it.Status, verdict, it.Confidence, it.Claim)
	}
	return nil
}
