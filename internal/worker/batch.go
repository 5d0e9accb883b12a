package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// Checker fact-checks a single claim
type Checker interface {
	FactCheck(ctx context.Context, claim model.Claim) model.Result
}

// CheckJob fact-checks one claim
type CheckJob struct {
	Claim   model.Claim
	Checker Checker
}

// Execute executes the fact-check
func (j *CheckJob) Execute(ctx context.Context) Result {
	return &CheckResult{Result: j.Checker.FactCheck(ctx, j.Claim)}
}

// CheckResult wraps a fact-check outcome
type CheckResult struct {
	Result model.Result
}

// GetError reports failed fact-checks as errors
func (r *CheckResult) GetError() error {
	if r.Result.Status == model.StatusFailed {
		return fmt.Errorf("fact-check failed: %s", r.Result.Error)
	}
	return nil
}

// BatchProcessor fact-checks many claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessClaims checks claims concurrently; results follow input order.
// Claims never started because ctx ended are reported as failed.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []model.Result {
	jobs := make([]Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &CheckJob{Claim: claim, Checker: b.checker}
	}

	raw := NewPool(b.concurrency).Run(ctx, jobs)

	results := make([]model.Result, len(claims))
	for i, r := range raw {
		if cr, ok := r.(*CheckResult); ok {
			results[i] = cr.Result
			continue
		}
		results[i] = model.Result{
			Claim:  claims[i],
			Status: model.StatusFailed,
			Error:  "not started: " + errString(ctx.Err()),
		}
	}
	return results
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]model.Result, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file, one per line.
// Blank lines and lines starting with # are skipped; duplicates are dropped.
func ReadClaimsFromFile(filePath string) ([]model.Claim, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []model.Claim
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			claims = append(claims, model.Claim{Text: line})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}

func errString(err error) string {
	if err == nil {
		return "cancelled"
	}
	return err.Error()
}
