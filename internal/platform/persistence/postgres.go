package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sheetApplicationName tags endpoint sessions in pg_stat_activity
const sheetApplicationName = "fahrtenbuch-sheet-endpoint"

// Querier is the subset of pgx shared by the pool and a transaction, so sheet
// repositories can run inside or outside ExecuteTx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// PostgresDB holds the rows of the reference sheet endpoint. Schema migrations are
// applied by the caller (RunMigrations) before the pool is opened.
type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresDB opens the sheet pool and verifies the server answers
func NewPostgresDB(ctx context.Context, logger *slog.Logger, cfg *config.PostgresConfig) (*PostgresDB, error) {
	poolCfg, err := sheetPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet pool: %w", err)
	}

	db := &PostgresDB{pool: pool, logger: logger}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Sheet database ready",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	)
	return db, nil
}

func sheetPoolConfig(cfg *config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = sheetApplicationName
	}

	return poolCfg, nil
}

// Pool exposes the pool as the default Querier for sheet repositories
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("sheet database unreachable: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() {
	db.pool.Close()
	db.logger.Info("Sheet database pool closed")
}

// ExecuteTx runs fn in one transaction. The sheet lock taken inside fn is released on
// commit or rollback.
func (db *PostgresDB) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, db.pool, fn)
	if err != nil {
		db.logger.Debug("Sheet transaction rolled back", "error", err)
	}
	return err
}
