// Package pipeline orchestrates one analytics turn: translate (optional),
// validate, execute under governance, classify, then derive charts and
// insights from the same immutable result.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manueljhc/healthcare-data-explorer/internal/chart"
	"github.com/manueljhc/healthcare-data-explorer/internal/classify"
	"github.com/manueljhc/healthcare-data-explorer/internal/dictionary"
	"github.com/manueljhc/healthcare-data-explorer/internal/executor"
	"github.com/manueljhc/healthcare-data-explorer/internal/insight"
	"github.com/manueljhc/healthcare-data-explorer/internal/model"
	"github.com/manueljhc/healthcare-data-explorer/internal/sqlcheck"
	"github.com/manueljhc/healthcare-data-explorer/internal/translator"
)

// Pipeline wires the stages together. The validator and the derivation stages
// are pure; only the executor and the dictionary store touch the outside world.
type Pipeline struct {
	exec     *executor.Executor
	store    *dictionary.Store
	provider translator.Provider // Optional, nil when translation is disabled
	config   *model.Config
}

// New creates a pipeline with the given configuration and backends.
func New(cfg *model.Config, exec *executor.Executor, store *dictionary.Store) *Pipeline {
	var provider translator.Provider
	if cfg.LLM.Provider != "" {
		p, err := translator.NewProvider(translator.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Printf("Warning: Failed to initialize translator provider: %v\n", err)
		} else {
			provider = p
		}
	}

	return &Pipeline{
		exec:     exec,
		store:    store,
		provider: provider,
		config:   cfg,
	}
}

// Translates reports whether a translator provider is configured.
func (p *Pipeline) Translates() bool {
	return p.provider != nil
}

// Ask answers a natural-language question: the translator proposes SQL, then
// the statement runs through the same validation and governance as user SQL.
func (p *Pipeline) Ask(ctx context.Context, conversationID, question string) (*model.Report, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("no translator provider configured; supply SQL directly")
	}

	dict, err := p.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}

	resp, err := p.provider.Translate(ctx, translator.Request{
		Question:       question,
		SchemaContext:  dict.LLMContext(),
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("translate question: %w", err)
	}

	report, err := p.run(ctx, dict, conversationID, resp.SQL)
	if report != nil {
		report.Question = question
		report.Explanation = resp.Explanation
		report.TokensUsed = resp.TokensUsed
	}
	return report, err
}

// RunSQL validates and executes a statement supplied directly.
func (p *Pipeline) RunSQL(ctx context.Context, conversationID, sql string) (*model.Report, error) {
	dict, err := p.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return p.run(ctx, dict, conversationID, sql)
}

// Validate checks a statement without executing it.
func (p *Pipeline) Validate(ctx context.Context, sql string) (model.ValidationVerdict, error) {
	dict, err := p.store.Get(ctx)
	if err != nil {
		return model.ValidationVerdict{}, fmt.Errorf("load dictionary: %w", err)
	}
	return p.validator(dict).Validate(sql), nil
}

func (p *Pipeline) validator(dict *dictionary.Dictionary) *sqlcheck.Validator {
	v := sqlcheck.NewValidator(p.config.Database.MaxRows, p.config.Validator.MaxQueryLength)
	v.KnownTable = dict.KnownTable
	return v
}

func (p *Pipeline) run(ctx context.Context, dict *dictionary.Dictionary, conversationID, sql string) (*model.Report, error) {
	report := &model.Report{
		ConversationID: conversationID,
		SQL:            sql,
		GeneratedAt:    time.Now().UTC(),
	}

	report.Verdict = p.validator(dict).Validate(sql)
	if !report.Verdict.Accepted {
		// A rejection is an answer, not a failure.
		return report, nil
	}

	rs, err := p.exec.Execute(ctx, conversationID, report.Verdict.Normalized)
	if err != nil {
		return report, err
	}
	report.Result = rs

	classifyOpts := classify.FromConfig(p.config.Classify)
	classifyOpts.PlaceName = dict.IsPlaceName
	report.Roles = classify.Classify(rs, classifyOpts)

	// Chart selection and insight derivation read the same immutable result;
	// they run concurrently and neither can affect the other.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Charts = chart.Select(rs.Columns, report.Roles, len(rs.Rows), chart.FromConfig(p.config.Chart))
	}()
	go func() {
		defer wg.Done()
		report.Insights = insightRecords(rs, report.Roles, p.config, dict)
	}()
	wg.Wait()

	return report, nil
}

func insightRecords(rs *model.ResultSet, roles []model.ColumnRole, cfg *model.Config, dict *dictionary.Dictionary) []model.InsightRecord {
	opts := insight.FromConfig(cfg.Insight, dict.ReferencePopulation)
	return insight.Derive(rs, roles, opts)
}
