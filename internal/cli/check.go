package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/pipeline"
	"github.com/JoseCortezz25/fact-checking-app/internal/render"
	"github.com/JoseCortezz25/fact-checking-app/internal/research"
)

var (
	depth       int
	breadth     int
	language    string
	city        string
	country     string
	refDate     string
	outJSON     string
	outMD       string
	printJSON   bool
	noFooter    bool
	noCache     bool
	llmProvider string
	llmModel    string
	searchProv  string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Fact-check a single claim",
	Long: `Check researches one claim on the web and prints a verdict.

The research tree is bounded by --depth (follow-up rounds) and --breadth
(queries per round; halved at each level, never below 1).

Example:
  factly check "The Great Wall of China is visible from space"
  factly check "Bogotá has more than 7 million inhabitants" --country Colombia --language Spanish
  factly check "Water boils at 90°C at sea level" --depth 1 --breadth 3 --md report.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVar(&depth, "depth", 0, "research depth (default from config)")
	checkCmd.Flags().IntVar(&breadth, "breadth", 0, "initial research breadth (default from config)")
	checkCmd.Flags().StringVar(&language, "language", "", "language of the verdict text")
	checkCmd.Flags().StringVar(&city, "city", "", "city of the person asking, used as prompt context")
	checkCmd.Flags().StringVar(&country, "country", "", "country of the person asking, used as prompt context")
	checkCmd.Flags().StringVar(&refDate, "date", "", "reference date (YYYY-MM-DD), default today")
	checkCmd.Flags().StringVar(&outJSON, "json", "", "write the result as JSON to this path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "write the result as Markdown to this path")
	checkCmd.Flags().BoolVar(&printJSON, "print-json", false, "print the JSON result to stdout instead of a summary")
	addProviderFlags(checkCmd)
}

// addProviderFlags registers the flags shared by every command that runs fact-checks
func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page and model response cache")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, gemini, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().StringVar(&searchProv, "search-provider", "", "search provider (exa, tavily, brave)")
}

// applyFlags lets explicitly set flags win over config file and environment
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("search-provider") {
		cfg.Search.Provider = searchProv
	}
	if flags.Changed("depth") {
		cfg.Research.Depth = depth
	}
	if flags.Changed("breadth") {
		cfg.Research.Breadth = breadth
	}
	if flags.Changed("language") {
		cfg.Research.Language = language
	}
}

// session holds what a fact-checking command needs for its lifetime
type session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	pipeline *pipeline.Pipeline
	cfg      *model.Config
	logger   *zap.Logger
}

// openSession loads configuration, applies flags, and builds the pipeline.
// Its context is cancelled on interrupt.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	p, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	return &session{ctx: ctx, cancel: cancel, pipeline: p, cfg: cfg, logger: logger}, nil
}

func (s *session) Close() {
	_ = s.pipeline.Close()
	_ = s.logger.Sync()
	s.cancel()
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("claim is empty")
	}

	claim := model.Claim{Text: text}
	if city != "" || country != "" {
		claim.Context.Location = &model.Location{City: city, Country: country}
	}
	if refDate != "" {
		t, err := time.Parse("2006-01-02", refDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", refDate)
		}
		claim.Context.ReferenceDate = t
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	cfg := sess.cfg

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", text)
		fmt.Fprintf(os.Stderr, "Depth: %d  Breadth: %d  LLM: %s/%s  Search: %s\n\n",
			cfg.Research.Depth, cfg.Research.Breadth, cfg.LLM.Provider, cfg.LLM.Model, cfg.Search.Provider)
	}

	res := sess.pipeline.Service().FactCheck(sess.ctx, claim, research.DefaultOptions(cfg.Research))

	if err := writeResult(&res, cfg, outJSON, outMD); err != nil {
		return err
	}
	if printJSON {
		if err := render.WriteJSON(os.Stdout, res); err != nil {
			return err
		}
	} else {
		render.Summary(os.Stdout, &res)
	}

	if !res.Succeeded() {
		return fmt.Errorf("fact-check failed")
	}
	return nil
}

func writeResult(res *model.Result, cfg *model.Config, jsonPath, mdPath string) error {
	renderer := render.NewRenderer(cfg.Output.IncludeFooter)
	if jsonPath != "" {
		if err := renderer.RenderJSON(res, jsonPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if mdPath != "" {
		if err := renderer.RenderMarkdown(res, mdPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	return nil
}
