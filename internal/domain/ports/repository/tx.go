package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres); repositories must gracefully accept nil (the
// non-transactional path).
type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn within a database transaction, passing the
// underlying handle via tx, so use-case interfaces stay free of storage types.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
