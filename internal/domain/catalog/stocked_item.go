package catalog

import (
	"strings"

	"github.com/wms/backend/internal/domain/shared"
)

// StockedItem is a sellable/trackable unit identity. Items are managed by the
// external catalog; the fulfillment core references them and never mutates
// them once a ledger row or order line points at one.
type StockedItem struct {
	shared.BaseEntity
	SKU          string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(255);not null"`
	UnitsPerPack int    `gorm:"not null;default:1"` // units per pack where applicable
}

// TableName returns the table name for GORM
func (StockedItem) TableName() string {
	return "stocked_items"
}

// NewStockedItem creates a new stocked item identity
func NewStockedItem(sku, name string, unitsPerPack int) (*StockedItem, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if unitsPerPack < 1 {
		unitsPerPack = 1
	}
	return &StockedItem{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          strings.ToUpper(strings.TrimSpace(sku)),
		Name:         name,
		UnitsPerPack: unitsPerPack,
	}, nil
}

// scanSeparators are characters workers commonly key in or scanners embed
// that are not part of the canonical SKU.
const scanSeparators = "-_ ./"

// NormalizeScanCode case-folds a worker-entered code and strips separator
// characters so it can be compared against the canonical SKU.
func NormalizeScanCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		if strings.ContainsRune(scanSeparators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizedSKU returns the item's SKU in scan-comparable form
func (i *StockedItem) normalizedSKU() string {
	return NormalizeScanCode(i.SKU)
}

// VerifyScan compares a worker-entered code against the canonical SKU.
// An exact match after normalization confirms the pick. A mismatch longer
// than the SKU is treated as a wrong-item scan; shorter input is treated the
// same way, since a partial code never confirms anything.
func (i *StockedItem) VerifyScan(code string) error {
	if NormalizeScanCode(code) == i.normalizedSKU() {
		return nil
	}
	return shared.ErrWrongItemScan
}
