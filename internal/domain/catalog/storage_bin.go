package catalog

import (
	"github.com/wms/backend/internal/domain/shared"
)

// StorageBin is a physical pick location. Bins are created and edited by the
// external location management workflows; the fulfillment core only reads
// them. PickSequence orders bins along the pick path: lower sequence numbers
// are visited first and preferred by the allocator.
type StorageBin struct {
	shared.BaseEntity
	Code         string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Zone         string `gorm:"type:varchar(64);not null;index"`
	PickSequence int    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StorageBin) TableName() string {
	return "storage_bins"
}

// NewStorageBin creates a new storage bin identity
func NewStorageBin(code, zone string, pickSequence int) (*StorageBin, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_BIN_CODE", "Bin code cannot be empty")
	}
	if zone == "" {
		return nil, shared.NewDomainError("INVALID_ZONE", "Zone cannot be empty")
	}
	if pickSequence < 0 {
		return nil, shared.NewDomainError("INVALID_PICK_SEQUENCE", "Pick sequence cannot be negative")
	}
	return &StorageBin{
		BaseEntity:   shared.NewBaseEntity(),
		Code:         code,
		Zone:         zone,
		PickSequence: pickSequence,
	}, nil
}
