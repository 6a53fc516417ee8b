package shared

import "context"

// TransactionManager runs a function within a single storage transaction.
// Everything persisted through the derived context commits or rolls back
// as one unit; returning an error rolls back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
