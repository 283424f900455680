// Package sqlexec implements driver.Executor over database/sql for the
// engines that ship a Go driver (PostgreSQL, SQL Server, MySQL, SQLite, DuckDB).
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/logging"
)

// Config describes one database/sql connection pool.
type Config struct {
	// Engine names the engine in errors and logs.
	Engine string

	// DriverName is the name registered with database/sql ("pgx", "sqlserver", ...).
	DriverName string

	// DSN is passed to sql.Open unchanged.
	DSN string

	// MaxConns bounds the pool. Values below 1 mean 1.
	MaxConns int

	// ConnMaxLifetime recycles connections; zero keeps them forever,
	// which in-memory databases require.
	ConnMaxLifetime time.Duration

	// Settings are applied to the session before every statement.
	Settings map[string]string

	// SetStatement renders one session setting. Nil means the engine has
	// no session settings and any requested setting is ignored.
	SetStatement func(key, value string) string
}

// Executor runs statements on a pooled *sql.DB.
type Executor struct {
	cfg Config
	db  *sql.DB
}

// Open creates the pool and verifies the engine is reachable.
// An unknown database/sql driver wraps apperrors.ErrToolUnavailable; a failed
// ping wraps apperrors.ErrConnectionFailure.
func Open(ctx context.Context, cfg Config) (*Executor, error) {
	db, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s connection: %v", apperrors.ErrToolUnavailable, cfg.Engine, err)
	}

	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	idle := maxConns / 4
	if idle < 1 {
		idle = 1
	}
	db.SetMaxIdleConns(idle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	e := &Executor{cfg: cfg, db: db}
	if err := e.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logging.Debug("Connected to %s (pool size %d)", cfg.Engine, maxConns)
	return e, nil
}

// DB returns the underlying pool.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Execute runs query and returns every row with values rendered as text.
// Session settings, when any, are applied on a dedicated connection first.
func (e *Executor) Execute(ctx context.Context, query string, opts ...driver.Option) (*driver.Result, error) {
	o := driver.ApplyOptions(opts)
	stmts := e.settingStatements(o.Settings)
	logging.Debug("%s: %s", e.cfg.Engine, query)

	if len(stmts) == 0 {
		rows, err := e.db.QueryContext(ctx, query)
		if err != nil {
			return nil, e.engineError(err)
		}
		return e.collect(rows)
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrConnectionFailure, e.cfg.Engine, err)
	}
	defer conn.Close()

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return nil, e.engineError(err)
		}
	}
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, e.engineError(err)
	}
	return e.collect(rows)
}

// Ping checks that a connection can be established.
func (e *Executor) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: pinging %s: %v", apperrors.ErrConnectionFailure, e.cfg.Engine, err)
	}
	return nil
}

// Close closes the pool.
func (e *Executor) Close() error {
	return e.db.Close()
}

func (e *Executor) settingStatements(extra map[string]string) []string {
	if e.cfg.SetStatement == nil {
		return nil
	}
	merged := make(map[string]string, len(e.cfg.Settings)+len(extra))
	for k, v := range e.cfg.Settings {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stmts := make([]string, len(keys))
	for i, k := range keys {
		stmts[i] = e.cfg.SetStatement(k, merged[k])
	}
	return stmts
}

func (e *Executor) collect(rows *sql.Rows) (*driver.Result, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, e.engineError(err)
	}

	res := &driver.Result{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, e.engineError(err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.engineError(err)
	}
	return res, nil
}

func (e *Executor) engineError(err error) error {
	return &driver.EngineError{Engine: e.cfg.Engine, Message: err.Error(), Err: err}
}

// FormatValue renders a scanned database/sql value as text.
// SQL NULL becomes driver.NullValue.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return driver.NullValue
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05.999999999")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Literal renders a session setting value: numbers and booleans verbatim,
// anything else as a single-quoted string.
func Literal(v string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	switch strings.ToLower(v) {
	case "true", "false", "on", "off":
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
