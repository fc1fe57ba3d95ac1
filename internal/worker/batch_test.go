package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// mockRunner implements Runner.
type mockRunner struct {
	mu            sync.Mutex
	conversations []string
	failOn        string
}

func (m *mockRunner) RunSQL(ctx context.Context, conversationID, sql string) (*model.Report, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	m.mu.Lock()
	m.conversations = append(m.conversations, conversationID)
	m.mu.Unlock()
	if m.failOn != "" && strings.Contains(sql, m.failOn) {
		return nil, errors.New("execution error")
	}
	return &model.Report{ConversationID: conversationID, SQL: sql}, nil
}

func TestBatchProcessor_ProcessStatements(t *testing.T) {
	runner := &mockRunner{}
	processor := NewBatchProcessor(runner, 2)

	statements := []string{
		"SELECT 1",
		"SELECT 2",
		"SELECT 3",
	}
	results := processor.ProcessStatements(context.Background(), statements)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("statement %d: unexpected error %v", r.Index, r.Error)
		}
		if r.Report == nil {
			t.Errorf("statement %d: expected a report", r.Index)
		}
	}
}

func TestBatchProcessor_EachJobOwnsConversation(t *testing.T) {
	runner := &mockRunner{}
	processor := NewBatchProcessor(runner, 4)

	processor.ProcessStatements(context.Background(), []string{"SELECT 1", "SELECT 2"})

	seen := make(map[string]bool)
	for _, c := range runner.conversations {
		if seen[c] {
			t.Errorf("conversation %s reused across batch jobs", c)
		}
		seen[c] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 distinct conversations, got %v", runner.conversations)
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	runner := &mockRunner{failOn: "broken"}
	processor := NewBatchProcessor(runner, 2)

	results := processor.ProcessStatements(context.Background(), []string{
		"SELECT 1",
		"SELECT broken",
		"SELECT 3",
	})

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
			if !strings.Contains(r.SQL, "broken") {
				t.Errorf("wrong statement failed: %s", r.SQL)
			}
		}
	}
	if failures != 1 {
		t.Errorf("expected exactly 1 failure, got %d", failures)
	}
}

func TestBatchProcessor_EmptyInput(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2)
	results := processor.ProcessStatements(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results for empty input, got %d", len(results))
	}
}

func TestReadStatementsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.sql")
	content := `# comment line
SELECT country FROM disease_burden

-- another comment
SELECT year FROM immunization_coverage
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	statements, err := ReadStatementsFromFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(statements), statements)
	}
	if statements[0] != "SELECT country FROM disease_burden" {
		t.Errorf("unexpected first statement: %s", statements[0])
	}

	if _, err := ReadStatementsFromFile(filepath.Join(dir, "missing.sql")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.sql")
	if err := os.WriteFile(path, []byte("SELECT 1\nSELECT 2\n"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	processor := NewBatchProcessor(&mockRunner{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("process file failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}
