package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	commonErrors "github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

const accountColumns = `path, name, account_type, parent_path, currency, created_at`

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		a       account.Account
		acctTyp string
	)
	if err := row.Scan(&a.Path, &a.Name, &acctTyp, &a.ParentPath, &a.Currency, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Type = account.AccountType(acctTyp)
	return &a, nil
}

// escapeLike escapes the LIKE wildcards of s
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// accountQuery builds the listing query for a filter
func accountQuery(filter account.Filter) (string, []interface{}) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if filter.Type != "" {
		conditions = append(conditions, "account_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Under != "" {
		conditions = append(conditions, "(path = ? OR path LIKE ?)")
		args = append(args, filter.Under, escapeLike(filter.Under+account.PathSeparator)+"%")
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY path"
	return query, args
}

// CreateAccount stores an account unless its path is taken
func (s *Store) CreateAccount(ctx context.Context, a *account.Account) (*account.Account, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Path, a.Name, string(a.Type), a.ParentPath, a.Currency, a.CreatedAt)
	if err != nil {
		return nil, translate(err, "insert account", fmt.Sprintf("account %s already exists", a.Path))
	}
	return a, nil
}

// GetAccount retrieves an account by path
func (s *Store) GetAccount(ctx context.Context, path string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE path = ?`, path)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", path))
	}
	if err != nil {
		return nil, storageError("get account", err)
	}
	return a, nil
}

// ListAccounts lists accounts passing the filter in path order
func (s *Store) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	query, args := accountQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list accounts", err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storageError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list accounts", err)
	}
	return accounts, nil
}

// AccountExists reports whether an account with the path exists
func (s *Store) AccountExists(ctx context.Context, path string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM accounts WHERE path = ?`, path).Scan(&n); err != nil {
		return false, storageError("check account", err)
	}
	return n > 0, nil
}
