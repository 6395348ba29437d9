package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB bundles the ent SQL driver with the pgx pool behind it (nil for SQLite).
type DB struct {
	drv  *entsql.Driver
	pool *pgxpool.Pool
}

// Driver returns the ent driver used by every repository.
func (db *DB) Driver() *entsql.Driver { return db.drv }

// Dialect returns the SQL dialect name.
func (db *DB) Dialect() string { return db.drv.Dialect() }

// Open creates a pgx pool and wraps it for ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "jurisprudence"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool}, nil
}

// OpenSQLite opens an embedded database. An empty dsn gives a private
// in-memory database with foreign keys on.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if dsn == "" {
		dsn = fmt.Sprintf("file:jurisprudence-%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	}
	logger.Info("opening sqlite database", "dsn", dsn)
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite", "error", err)
		return nil, err
	}
	// a single connection keeps the in-memory database alive and serialises writers
	sdb.SetMaxOpenConns(1)
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		logger.Error("failed to ping sqlite", "error", err)
		return nil, err
	}
	return &DB{drv: entsql.OpenDB(dialect.SQLite, sdb)}, nil
}

// Close closes the database connections gracefully.
func (db *DB) Close(logger *slog.Logger) {
	logger.Info("closing database connections")
	if db.drv != nil {
		if err := db.drv.Close(); err != nil {
			logger.Error("failed to close database driver", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if db.pool != nil {
		err = db.pool.Ping(ctx)
	} else {
		err = db.drv.DB().PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// dialectTx is the transaction handle passed to WithTx callbacks.
type dialectTx = dialect.Tx

// WithTx runs fn inside a transaction. fn's error, or a panic, rolls it back.
func (db *DB) WithTx(ctx context.Context, fn func(tx dialect.Tx) error) (err error) {
	tx, err := db.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func execResult(ctx context.Context, eq dialect.ExecQuerier, query string, args []any) (sql.Result, error) {
	var res sql.Result
	if err := eq.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func queryRows(ctx context.Context, eq dialect.ExecQuerier, query string, args []any) (*entsql.Rows, error) {
	rows := &entsql.Rows{}
	if err := eq.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// queryInt runs a single-column integer query such as COUNT(*).
func queryInt(ctx context.Context, eq dialect.ExecQuerier, query string, args []any) (int, error) {
	rows, err := queryRows(ctx, eq, query, args)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// dbError wraps a storage failure so callers can match ErrDatabase.
func dbError(err error) error {
	return common.NewAppError("DATABASE_ERROR", err.Error(), errors.Join(common.ErrDatabase, err))
}
