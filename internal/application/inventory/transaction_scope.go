package inventory

import (
	"context"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the core repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. The ledger mutation and its transaction log append always
// run inside one scope so a crash cannot separate them.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the core repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	// LedgerRepo returns the ledger entry repository scoped to the current transaction
	LedgerRepo() ledger.EntryRepository
	// TransactionLogRepo returns the append-only transaction log repository scoped to the current transaction
	TransactionLogRepo() ledger.TransactionRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() fulfillment.OrderRepository
	// ClaimRepo returns the claim repository scoped to the current transaction
	ClaimRepo() fulfillment.ClaimRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	ledgerRepo ledger.EntryRepository
	txLogRepo  ledger.TransactionRepository
	orderRepo  fulfillment.OrderRepository
	claimRepo  fulfillment.ClaimRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	ledgerRepo ledger.EntryRepository,
	txLogRepo ledger.TransactionRepository,
	orderRepo fulfillment.OrderRepository,
	claimRepo fulfillment.ClaimRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		ledgerRepo: ledgerRepo,
		txLogRepo:  txLogRepo,
		orderRepo:  orderRepo,
		claimRepo:  claimRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LedgerRepo returns the ledger entry repository
func (s *NoOpTransactionScope) LedgerRepo() ledger.EntryRepository {
	return s.ledgerRepo
}

// TransactionLogRepo returns the transaction log repository
func (s *NoOpTransactionScope) TransactionLogRepo() ledger.TransactionRepository {
	return s.txLogRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() fulfillment.OrderRepository {
	return s.orderRepo
}

// ClaimRepo returns the claim repository
func (s *NoOpTransactionScope) ClaimRepo() fulfillment.ClaimRepository {
	return s.claimRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
