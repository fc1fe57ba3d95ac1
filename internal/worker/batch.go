package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// Runner defines the interface for executing one governed statement.
type Runner interface {
	RunSQL(ctx context.Context, conversationID, sql string) (*model.Report, error)
}

// QueryJob represents one statement in a batch run. Each job gets its own
// conversation id so batch queries never supersede one another.
type QueryJob struct {
	Index  int
	SQL    string
	Runner Runner
}

// Execute runs the statement.
func (j *QueryJob) Execute(ctx context.Context) Result {
	conversation := fmt.Sprintf("batch-%d", j.Index)
	report, err := j.Runner.RunSQL(ctx, conversation, j.SQL)
	return &QueryResult{
		Index:  j.Index,
		SQL:    j.SQL,
		Report: report,
		Error:  err,
	}
}

// QueryResult represents the result of a batch statement.
type QueryResult struct {
	Index  int
	SQL    string
	Report *model.Report
	Error  error
}

// GetError returns the error from the query result.
func (r *QueryResult) GetError() error {
	return r.Error
}

// BatchProcessor runs multiple statements concurrently.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessStatements runs the statements through the worker pool.
func (b *BatchProcessor) ProcessStatements(ctx context.Context, statements []string) []*QueryResult {
	if len(statements) == 0 {
		return []*QueryResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for i, sql := range statements {
		pool.Submit(&QueryJob{
			Index:  i,
			SQL:    sql,
			Runner: b.runner,
		})
	}

	results := pool.Wait()

	queryResults := make([]*QueryResult, len(results))
	for i, result := range results {
		queryResults[i] = result.(*QueryResult)
	}
	return queryResults
}

// ProcessFile reads statements from a file and runs them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryResult, error) {
	statements, err := ReadStatementsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}
	return b.ProcessStatements(ctx, statements), nil
}

// ReadStatementsFromFile reads SQL statements from a file, one per line.
// Empty lines and lines starting with -- or # are skipped.
func ReadStatementsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var statements []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
			continue
		}
		statements = append(statements, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return statements, nil
}
