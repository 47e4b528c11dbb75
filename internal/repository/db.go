// Package repository contains the database access layer.
//
// Queries are written against database/sql in the shape sqlc generates:
// a DBTX interface satisfied by both *sql.DB and *sql.Tx, a Queries struct,
// and per-entity query files with params structs. WithTx rebinds a Queries
// onto a transaction so multi-statement invariants (receipt confirmation
// plus order advancement) execute as one atomic unit.
package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql operations the queries need. Both
// *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New creates a Queries bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the database handle for all query methods.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to the transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
