// Package executor runs validated read-only SQL against PostgreSQL under strict
// resource governance: a wall-clock timeout per statement, a hard row ceiling
// with explicit truncation marking, per-conversation rate limiting, and
// supersession of an in-flight query when a newer one arrives for the same
// conversation. Engine errors are sanitized before they leave this package so
// connection strings and credentials never reach an upstream model.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// ErrorKind classifies governed-execution failures.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindEngineRejected ErrorKind = "engine_rejected"
	KindSuperseded     ErrorKind = "superseded"
	KindCanceled       ErrorKind = "canceled"
	KindConnection     ErrorKind = "connection"
)

// Error is a sanitized execution failure safe to surface to users and to the
// upstream language model. It never carries DSNs or server internals.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("query %s: %s", e.Kind, e.Message)
}

var errSuperseded = errors.New("superseded by a newer query")

// Executor executes statements through a pgx connection pool.
type Executor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	maxRows int
	limiter *Limiter

	mu       sync.Mutex
	inflight map[string]*inflightEntry
}

type inflightEntry struct {
	cancel context.CancelCauseFunc
}

// New creates an Executor from an existing pgx pool and the database policy.
func New(pool *pgxpool.Pool, cfg model.DatabaseConfig) *Executor {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 10000
	}
	qpm := cfg.QueriesPerMinute
	if qpm <= 0 {
		qpm = 30
	}
	return &Executor{
		pool:     pool,
		timeout:  timeout,
		maxRows:  maxRows,
		limiter:  NewLimiter(qpm, 5),
		inflight: make(map[string]*inflightEntry),
	}
}

// Execute runs a single validated statement for a conversation. Starting a new
// query cancels any query still running for the same conversation; the older
// caller receives a superseded error. Partial results of a failed query are
// discarded, never returned.
func (e *Executor) Execute(ctx context.Context, conversationID, sql string) (*model.ResultSet, error) {
	if err := e.limiter.Wait(ctx, conversationID); err != nil {
		return nil, classify(ctx, err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	entry := e.register(conversationID, cancel)
	defer e.unregister(conversationID, entry)

	ctx, cancelTimeout := context.WithTimeout(ctx, e.timeout)
	defer cancelTimeout()

	start := time.Now()
	rows, err := e.pool.Query(ctx, sql)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer rows.Close()

	rs := &model.ResultSet{Query: sql}
	for _, fd := range rows.FieldDescriptions() {
		rs.Columns = append(rs.Columns, model.Column{
			Name:     string(fd.Name),
			TypeName: typeName(fd.DataTypeOID),
		})
	}

	if err := collectRows(rs, rows, e.maxRows); err != nil {
		return nil, classify(ctx, err)
	}
	rs.ElapsedMS = time.Since(start).Milliseconds()
	return rs, nil
}

// rowSource is the slice of pgx.Rows the collector needs.
type rowSource interface {
	Next() bool
	Values() ([]any, error)
	Err() error
}

// collectRows drains the iterator into rs, never past maxRows. A result that
// fills the cap exactly is marked truncated even when the engine stopped on
// its own: the validator injects a LIMIT at the same bound, so hitting it
// means more rows likely exist and downstream consumers must not present the
// result as exhaustive.
func collectRows(rs *model.ResultSet, rows rowSource, maxRows int) error {
	for rows.Next() {
		if len(rs.Rows) >= maxRows {
			rs.Truncated = true
			return nil
		}
		vals, err := rows.Values()
		if err != nil {
			return err
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(rs.Rows) >= maxRows {
		rs.Truncated = true
	}
	return nil
}

// Cancel aborts the in-flight query for a conversation, if any.
func (e *Executor) Cancel(conversationID string) {
	e.mu.Lock()
	entry, ok := e.inflight[conversationID]
	delete(e.inflight, conversationID)
	e.mu.Unlock()
	if ok {
		entry.cancel(context.Canceled)
	}
}

// Ping verifies database connectivity.
func (e *Executor) Ping(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// Close releases the underlying pool.
func (e *Executor) Close() {
	e.pool.Close()
}

func (e *Executor) register(conversationID string, cancel context.CancelCauseFunc) *inflightEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.inflight[conversationID]; ok {
		prev.cancel(errSuperseded)
	}
	entry := &inflightEntry{cancel: cancel}
	e.inflight[conversationID] = entry
	return entry
}

func (e *Executor) unregister(conversationID string, entry *inflightEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// Only remove our own registration; a newer query may have replaced it.
	if e.inflight[conversationID] == entry {
		delete(e.inflight, conversationID)
	}
}

// classify maps a raw execution error to a sanitized governed error.
func classify(ctx context.Context, err error) *Error {
	if cause := context.Cause(ctx); errors.Is(cause, errSuperseded) {
		return &Error{Kind: KindSuperseded, Message: "a newer query for this conversation replaced it"}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "query exceeded the execution time limit"}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCanceled, Message: "query was canceled"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// The engine's own message names only SQL constructs, never credentials.
		return &Error{
			Kind:    KindEngineRejected,
			Message: fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code),
		}
	}
	return &Error{Kind: KindConnection, Message: "database connection failed"}
}

// pgTypeNames covers the OIDs the analytics schema actually uses. Unknown OIDs
// fall back to a generic name; classification treats them as untyped values.
var pgTypeNames = map[uint32]string{
	16:   "boolean",
	20:   "bigint",
	21:   "smallint",
	23:   "integer",
	25:   "text",
	700:  "real",
	701:  "double precision",
	1043: "varchar",
	1082: "date",
	1114: "timestamp",
	1184: "timestamptz",
	1700: "numeric",
}

func typeName(oid uint32) string {
	if name, ok := pgTypeNames[oid]; ok {
		return name
	}
	return "unknown"
}
