package dictionary

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	databaseName        = "AHDC (Anthropic Health Data Collaborative)"
	databaseDescription = "Global health database maintained by the Anthropic Health Data Collaborative. " +
		"Contains data on disease burden, intervention effectiveness, health systems, " +
		"immunization, maternal/child health, and infectious disease surveillance " +
		"across 60+ countries from 2015-2023."
)

// Inspector generates the data dictionary from a live database by walking
// information_schema and profiling each column.
type Inspector struct {
	pool *pgxpool.Pool
}

// NewInspector creates an Inspector over an existing pgx pool.
func NewInspector(pool *pgxpool.Pool) *Inspector {
	return &Inspector{pool: pool}
}

// Generate discovers all tables in the public schema and builds the complete
// dictionary, including row counts, sample values, and distinct counts.
// Profiling failures on individual columns are tolerated; the column is kept
// with whatever metadata was gathered.
func (ins *Inspector) Generate(ctx context.Context) (*Dictionary, error) {
	conn, err := ins.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	names, err := ins.tableNames(ctx, conn)
	if err != nil {
		return nil, err
	}

	var tables []TableInfo
	for _, name := range names {
		t, err := ins.inspectTable(ctx, conn, name)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return New(databaseName, databaseDescription, tables), nil
}

func (ins *Inspector) tableNames(ctx context.Context, conn *pgxpool.Conn) ([]string, error) {
	rows, err := conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (ins *Inspector) inspectTable(ctx context.Context, conn *pgxpool.Conn, table string) (TableInfo, error) {
	info := TableInfo{
		Name:        table,
		Description: tableDescriptions[table],
	}

	if err := conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %q`, table)).Scan(&info.RowCount); err != nil {
		return info, fmt.Errorf("row count: %w", err)
	}

	cols, err := ins.columns(ctx, conn, table)
	if err != nil {
		return info, err
	}
	for i := range cols {
		// Best effort: a failed profile leaves the column without samples.
		ins.profileColumn(ctx, conn, table, &cols[i])
	}
	info.Columns = cols
	return info, nil
}

func (ins *Inspector) columns(ctx context.Context, conn *pgxpool.Conn, table string) ([]ColumnInfo, error) {
	rows, err := conn.Query(ctx, `
		SELECT c.column_name,
		       c.data_type,
		       c.is_nullable = 'YES',
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kc
		             ON tc.constraint_name = kc.constraint_name
		          WHERE tc.table_schema = c.table_schema
		            AND tc.table_name = c.table_name
		            AND tc.constraint_type = 'PRIMARY KEY'
		            AND kc.column_name = c.column_name
		       )
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.PrimaryKey); err != nil {
			return nil, err
		}
		c.Description = columnDescriptions[c.Name]
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// profileColumn gathers up to five distinct sample values and the distinct
// count for a column. Identifier quoting keeps discovered names from being
// interpreted as SQL.
func (ins *Inspector) profileColumn(ctx context.Context, conn *pgxpool.Conn, table string, col *ColumnInfo) {
	sampleQuery := fmt.Sprintf(
		`SELECT DISTINCT %q FROM %q WHERE %q IS NOT NULL LIMIT 5`,
		col.Name, table, col.Name)
	rows, err := conn.Query(ctx, sampleQuery)
	if err != nil {
		return
	}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			break
		}
		col.SampleValues = append(col.SampleValues, v)
	}
	rows.Close()

	countQuery := fmt.Sprintf(`SELECT count(DISTINCT %q) FROM %q`, col.Name, table)
	_ = conn.QueryRow(ctx, countQuery).Scan(&col.DistinctCount)
}
