package types

import "errors"

// Session lifecycle errors.
var (
	ErrClosed            = errors.New("database is closed")
	ErrAlreadyOpen       = errors.New("database is already open")
	ErrTransactionActive = errors.New("a transaction is already active")
	ErrNoTransaction     = errors.New("no active transaction")
	ErrTemplate          = errors.New("cannot materialize template file")
)
