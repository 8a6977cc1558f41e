package persistence

import (
	"context"

	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It is the atomicity boundary the services lean on: a ledger mutation and
// its log append either both commit or neither does.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside a database transaction. An error from fn rolls the
// transaction back; success commits it.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides transaction-scoped repositories
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LedgerRepo returns the ledger entry repository scoped to the transaction
func (r *gormTransactionalRepositories) LedgerRepo() ledger.EntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// TransactionLogRepo returns the transaction log repository scoped to the transaction
func (r *gormTransactionalRepositories) TransactionLogRepo() ledger.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the transaction
func (r *gormTransactionalRepositories) OrderRepo() fulfillment.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// ClaimRepo returns the claim repository scoped to the transaction
func (r *gormTransactionalRepositories) ClaimRepo() fulfillment.ClaimRepository {
	return NewGormClaimRepository(r.tx)
}

// Ensure implementations
var (
	_ appinventory.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinventory.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
