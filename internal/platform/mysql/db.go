// Package mysql implements the ledger repositories on MySQL through
// database/sql and go-sql-driver/mysql. Every repository is a method set
// of Store so one connection pool serves them all.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// Store implements the source, rule, importer, ledger and account
// repositories on one *sql.DB
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// ParseDSN parses a driver DSN and forces the settings the store relies on:
// DATETIME columns scan into time.Time in UTC and UPDATE reports matched
// rather than changed rows
func ParseDSN(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, commonErrors.NewInvalidInputError("invalid MySQL DSN", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["time_zone"] = "'+00:00'"
	return cfg, nil
}

// Open connects to MySQL, checks the connection and creates missing tables
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, commonErrors.NewStorageError("failed to create MySQL connector", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, commonErrors.NewStorageError("failed to reach MySQL", err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("mysql store ready", "addr", cfg.Addr, "database", cfg.DBName)
	return store, nil
}

// Migrate creates the ledger tables when they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return commonErrors.NewStorageError("failed to migrate schema", err)
		}
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// translate maps driver errors onto the error taxonomy
func translate(err error, action, conflictMessage string) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return commonErrors.NewConflictError(conflictMessage)
	}
	return storageError(action, err)
}

// storageError wraps a failure that can never be a conflict
func storageError(action string, err error) error {
	return commonErrors.NewStorageError("failed to "+action, err)
}

// inTx runs fn inside a transaction, rolling back when fn fails
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageError("commit transaction", err)
	}
	return nil
}
