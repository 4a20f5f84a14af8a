package dataclient

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements the capability set against a directly-connected
// database. SQL is generated from the generic record maps; RETURNING *
// fills the envelope so callers see the same shapes the other backends
// produce.
type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres creates a Postgres backend with a connection pool.
func NewPostgres(ctx context.Context, dsn string, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool, log: log}, nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// From starts a query chain against the named table.
func (p *Postgres) From(table string) Query {
	return Query{exec: p, table: table}
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) execute(ctx context.Context, q Query) Result {
	switch q.op {
	case opInsert:
		return p.execInsert(ctx, q)
	case opUpdate:
		return p.execUpdate(ctx, q)
	case opDelete:
		return p.execDelete(ctx, q)
	case opUpsert:
		return p.execUpsert(ctx, q)
	default:
		return p.execSelect(ctx, q)
	}
}

func (p *Postgres) execSelect(ctx context.Context, q Query) Result {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", ident(q.table))
	args := appendWhere(&sb, q.filters, nil)
	if q.orderBy != "" {
		dir := "ASC"
		if q.descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", ident(q.orderBy), dir)
	}
	if q.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.limit)
	}

	records, err := p.queryRecords(ctx, sb.String(), args)
	if err != nil {
		return Result{Error: fmt.Errorf("querying %s: %w", q.table, err)}
	}

	if q.single {
		if len(records) == 0 {
			return Result{}
		}
		return Result{Data: records[0]}
	}
	return Result{Data: records}
}

func (p *Postgres) execInsert(ctx context.Context, q Query) Result {
	inserted := make([]Record, 0, len(q.payload))
	now := time.Now().UTC()

	for _, in := range q.payload {
		rec := cloneRecord(in)
		if id, _ := rec["id"].(string); id == "" {
			rec["id"] = uuid.NewString()
		}
		rec["created_at"] = now.Format(time.RFC3339)

		cols := sortedColumns(rec)
		placeholders := make([]string, len(cols))
		args := make([]any, len(cols))
		quoted := make([]string, len(cols))
		for i, c := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = rec[c]
			quoted[i] = ident(c)
		}

		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			ident(q.table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

		rows, err := p.queryRecords(ctx, sql, args)
		if err != nil {
			return Result{Error: fmt.Errorf("inserting into %s: %w", q.table, err)}
		}
		if len(rows) > 0 {
			inserted = append(inserted, rows[0])
		}
	}

	if q.bulk {
		return Result{Data: inserted}
	}
	if len(inserted) == 0 {
		return Result{}
	}
	return Result{Data: inserted[0]}
}

func (p *Postgres) execUpdate(ctx context.Context, q Query) Result {
	patch := q.patch()
	cols := sortedColumns(patch)

	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET ", ident(q.table))
	args := make([]any, 0, len(cols)+len(q.filters))
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, patch[c])
		fmt.Fprintf(&sb, "%s = $%d", ident(c), len(args))
	}
	if len(cols) > 0 {
		sb.WriteString(", ")
	}
	sb.WriteString("updated_at = NOW()")
	args = appendWhere(&sb, q.filters, args)
	sb.WriteString(" RETURNING *")

	records, err := p.queryRecords(ctx, sb.String(), args)
	if err != nil {
		return Result{Error: fmt.Errorf("updating %s: %w", q.table, err)}
	}
	if len(records) == 0 {
		return Result{}
	}
	if len(records) == 1 {
		return Result{Data: records[0]}
	}
	return Result{Data: records}
}

func (p *Postgres) execDelete(ctx context.Context, q Query) Result {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s", ident(q.table))
	args := appendWhere(&sb, q.filters, nil)

	if _, err := p.pool.Exec(ctx, sb.String(), args...); err != nil {
		return Result{Error: fmt.Errorf("deleting from %s: %w", q.table, err)}
	}
	return Result{}
}

func (p *Postgres) execUpsert(ctx context.Context, q Query) Result {
	rec := cloneRecord(q.patch())
	if id, _ := rec["id"].(string); id == "" && q.conflictKey != "id" {
		rec["id"] = uuid.NewString()
	}
	rec["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	cols := sortedColumns(rec)
	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = ident(c)
		args[i] = rec[c]
		if c != q.conflictKey && c != "id" && c != "created_at" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c)))
		}
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING *",
		ident(q.table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
		ident(q.conflictKey), strings.Join(updates, ", "))

	records, err := p.queryRecords(ctx, sql, args)
	if err != nil {
		return Result{Error: fmt.Errorf("upserting into %s: %w", q.table, err)}
	}
	if len(records) == 0 {
		return Result{}
	}
	return Result{Data: records[0]}
}

// queryRecords runs a query and maps every row to a Record keyed by the
// result's column names.
func (p *Postgres) queryRecords(ctx context.Context, sql string, args []any) ([]Record, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := []Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec := make(Record, len(fields))
		for i, f := range fields {
			rec[f.Name] = normalizeValue(values[i], f.DataTypeOID)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// normalizeValue converts driver types to the JSON-shaped values the other
// backends produce, so callers decode all three identically. DATE columns
// scan as midnight time.Time values; they must keep the bare YYYY-MM-DD
// shape or date strings would differ between backends.
func normalizeValue(v any, oid uint32) any {
	switch t := v.(type) {
	case time.Time:
		if oid == pgtype.DateOID {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// appendWhere renders the accumulated filters as an AND-composed WHERE
// clause, appending bind arguments to args.
func appendWhere(sb *strings.Builder, filters []Filter, args []any) []any {
	for i, f := range filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		switch f.Kind {
		case filterEq:
			args = append(args, f.Value)
			fmt.Fprintf(sb, "%s = $%d", ident(f.Column), len(args))
		case filterIn:
			args = append(args, f.Values)
			fmt.Fprintf(sb, "%s = ANY($%d)", ident(f.Column), len(args))
		}
	}
	return args
}

// sortedColumns returns the record's keys in a stable order for SQL
// generation.
func sortedColumns(rec Record) []string {
	cols := make([]string, 0, len(rec))
	for c := range rec {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// ident sanitizes an identifier for interpolation into generated SQL.
func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
