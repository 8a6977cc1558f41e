package catalog

import (
	"context"

	"github.com/google/uuid"
)

// StockedItemRepository defines read access to stocked item identities.
// Item lifecycle is owned by the external catalog; the core only reads.
type StockedItemRepository interface {
	// FindByID finds a stocked item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockedItem, error)

	// FindBySKU finds a stocked item by its canonical SKU
	FindBySKU(ctx context.Context, sku string) (*StockedItem, error)

	// FindByIDs finds multiple stocked items by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]StockedItem, error)

	// Save creates or updates a stocked item (used by intake/seeding only)
	Save(ctx context.Context, item *StockedItem) error
}

// StorageBinRepository defines read access to storage bin identities.
// Bin lifecycle is owned by the external location management; the core only
// reads, ordered along the pick path.
type StorageBinRepository interface {
	// FindByID finds a storage bin by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StorageBin, error)

	// FindByCode finds a storage bin by its code
	FindByCode(ctx context.Context, code string) (*StorageBin, error)

	// FindByZone finds all bins in a zone ordered by pick sequence
	FindByZone(ctx context.Context, zone string) ([]StorageBin, error)

	// Save creates or updates a storage bin (used by intake/seeding only)
	Save(ctx context.Context, bin *StorageBin) error
}
