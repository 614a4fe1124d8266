package repositories

import "context"

// TxFn is a function executed within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a single database transaction.
// Repositories called with the transactional context automatically
// participate in it. The request workflow engine relies on this to keep
// state transitions and their side effects atomic: if the side effect
// fails, the claimed transition rolls back and the request stays pending.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
