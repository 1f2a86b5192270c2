// Package db owns a single database connection and the helpers that run
// statements on it.
//
// A Manager is not safe for concurrent statement execution: every call goes
// through the same underlying connection and no lock guards it. Whether that
// works depends on the driver; callers sharing a Manager across goroutines
// must serialize access themselves.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/madinamutiyeva/SingletonPattern/internal/config"
	"github.com/madinamutiyeva/SingletonPattern/internal/logging"
)

const (
	opQuery     = "query"
	opUpdate    = "update"
	opQueryRows = "query rows"

	resourceConnection = "connection"
	resourceResultSet  = "result set"
	resourceStatement  = "statement"
)

type Manager struct {
	db         *sql.DB
	conn       *sql.Conn
	driver     string
	configPath string
	closed     atomic.Bool

	// base is cancelled by CloseConnection. Every statement context derives
	// from it so that outstanding cursors are torn down instead of blocking
	// the close.
	base    context.Context
	cancel  context.CancelFunc
	cursors sync.Map // *sql.Rows -> cursor

	log *slog.Logger
}

type cursor struct {
	ctx  context.Context
	stop context.CancelFunc
}

type Opener func(driverName, dsn string) (*sql.DB, error)

type options struct {
	log  *slog.Logger
	open Opener
}

type Option func(*options)

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithOpener replaces sql.Open, e.g. to hand in a mock or an already
// configured *sql.DB.
func WithOpener(open Opener) Option {
	return func(o *options) {
		o.open = open
	}
}

// OpenFile loads the configuration at path and opens a Manager from it.
func OpenFile(ctx context.Context, path string, opts ...Option) (*Manager, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	m, err := Open(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	m.configPath = path
	return m, nil
}

// Open resolves the driver for cfg.URL and pins a single connection to it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Manager, error) {
	o := options{
		log:  logging.New("db"),
		open: sql.Open,
	}
	for _, opt := range opts {
		opt(&o)
	}

	src, err := resolveDataSource(cfg.URL, cfg.Username, cfg.Password)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	sqlDB, err := o.open(src.driver, src.dsn)
	if err != nil {
		return nil, &ConnectionError{Driver: src.driver, Err: fmt.Errorf("open database: %w", err)}
	}
	sqlDB.SetMaxOpenConns(1)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, &ConnectionError{Driver: src.driver, Err: fmt.Errorf("acquire connection: %w", err)}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = sqlDB.Close()
		return nil, &ConnectionError{Driver: src.driver, Err: fmt.Errorf("ping: %w", err)}
	}

	o.log.DebugContext(ctx, "database connection established", "driver", src.driver)
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		db:     sqlDB,
		conn:   conn,
		driver: src.driver,
		base:   base,
		cancel: cancel,
		log:    o.log,
	}, nil
}

// statementContext tags ctx with a query id and ties it to the lifetime of
// the connection.
func (m *Manager) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = logging.PopulateContextID(ctx, "query_id")
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Connection returns the underlying connection. It is returned as is, even
// after CloseConnection, in which case using it fails with sql.ErrConnDone.
func (m *Manager) Connection() *sql.Conn {
	return m.conn
}

func (m *Manager) Driver() string {
	return m.driver
}

// ConfigPath is the file the Manager was opened from, empty for Open.
func (m *Manager) ConfigPath() string {
	return m.configPath
}

// ExecuteQuery runs a read query. The caller owns the returned rows and must
// release them with CloseResultSet. Rows still open when the connection is
// closed are closed with it and report context.Canceled.
func (m *Manager) ExecuteQuery(ctx context.Context, query string) (*sql.Rows, error) {
	ctx, stop := m.statementContext(ctx)
	start := time.Now()

	rows, err := m.conn.QueryContext(ctx, query)
	observe(opQuery, start, err)
	if err != nil {
		stop()
		m.log.DebugContext(ctx, "query failed", "query", query, "error", err)
		return nil, &QueryError{Op: opQuery, Query: query, Err: err}
	}

	m.cursors.Store(rows, cursor{ctx: ctx, stop: stop})
	m.log.DebugContext(ctx, "query executed", "query", query, "duration", time.Since(start))
	return rows, nil
}

// ExecuteUpdate runs a mutating statement and returns the number of affected
// rows.
func (m *Manager) ExecuteUpdate(ctx context.Context, query string) (int64, error) {
	ctx, stop := m.statementContext(ctx)
	defer stop()
	start := time.Now()

	affected, err := m.executeUpdate(ctx, query)
	observe(opUpdate, start, err)
	if err != nil {
		m.log.DebugContext(ctx, "update failed", "query", query, "error", err)
		return 0, &QueryError{Op: opUpdate, Query: query, Err: err}
	}

	m.log.DebugContext(ctx, "update executed", "query", query, "affected", affected, "duration", time.Since(start))
	return affected, nil
}

func (m *Manager) executeUpdate(ctx context.Context, query string) (int64, error) {
	res, err := m.conn.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// ExecuteQueryAndReturnRows runs query and reads the whole result into
// memory. A failure at any point discards the rows read so far.
func (m *Manager) ExecuteQueryAndReturnRows(ctx context.Context, query string) ([]Row, error) {
	ctx, stop := m.statementContext(ctx)
	defer stop()
	start := time.Now()

	result, err := m.queryRows(ctx, query)
	observe(opQueryRows, start, err)
	if err != nil {
		m.log.DebugContext(ctx, "query failed", "query", query, "error", err)
		return nil, &QueryError{Op: opQueryRows, Query: query, Err: err}
	}

	m.log.DebugContext(ctx, "query executed", "query", query, "rows", len(result), "duration", time.Since(start))
	return result, nil
}

func (m *Manager) queryRows(ctx context.Context, query string) ([]Row, error) {
	rows, err := m.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.release(ctx, resourceResultSet, rows.Close()) }()

	scanner, err := newRowScanner(rows)
	if err != nil {
		return nil, err
	}

	result := []Row{}
	for rows.Next() {
		row, err := scanner.scan()
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// CloseConnection closes the connection. Calling it on an unopened or already
// closed Manager does nothing. Cursors the caller has not released yet are
// closed first, so this never waits on them. A close failure is logged and
// returned as a *ReleaseError.
func (m *Manager) CloseConnection() error {
	if m == nil || m.conn == nil || !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	m.cancel()
	err := errors.Join(m.conn.Close(), m.db.Close())
	m.cursors.Clear()
	return m.release(m.base, resourceConnection, err)
}

// CloseResultSet releases rows obtained from ExecuteQuery. nil is ignored.
func (m *Manager) CloseResultSet(rows *sql.Rows) error {
	if rows == nil {
		return nil
	}

	ctx := context.Background()
	err := rows.Close()
	if v, ok := m.cursors.LoadAndDelete(rows); ok {
		c := v.(cursor)
		c.stop()
		ctx = c.ctx
	}
	return m.release(ctx, resourceResultSet, err)
}

// CloseStatement releases a statement prepared on Connection(). nil is
// ignored.
func (m *Manager) CloseStatement(stmt *sql.Stmt) error {
	if stmt == nil {
		return nil
	}
	return m.release(context.Background(), resourceStatement, stmt.Close())
}

func (m *Manager) release(ctx context.Context, resource string, err error) error {
	if err == nil {
		return nil
	}

	releaseFailures.WithLabelValues(resource).Inc()
	m.log.ErrorContext(ctx, "failed to release resource", "resource", resource, "error", err)
	return &ReleaseError{Resource: resource, Err: err}
}
