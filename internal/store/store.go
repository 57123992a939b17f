package store

import "database/sql"

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods take a Querier so the course sync can run its upserts, link
// replacement and alert appends inside one caller-owned transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. The connection is back in auto-commit mode when
// WithTx returns, whatever the outcome.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
