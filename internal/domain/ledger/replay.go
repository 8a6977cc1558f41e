package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// ReplayState holds the recomputed counters for one (item, bin) pair
type ReplayState struct {
	ItemID   uuid.UUID
	BinID    uuid.UUID
	OnHand   decimal.Decimal
	Reserved decimal.Decimal
	Picked   decimal.Decimal
}

// Available returns the recomputed available quantity
func (s *ReplayState) Available() decimal.Decimal {
	return s.OnHand.Sub(s.Reserved).Sub(s.Picked)
}

// replayKey identifies one (item, bin) pair in the fold
type replayKey struct {
	itemID uuid.UUID
	binID  uuid.UUID
}

// Replayer folds the append-only transaction log back into ledger counters.
// It is the crash-consistency anchor: when a ledger write and its log append
// could not be confirmed as one atomic unit, reconciliation recomputes the
// ledger from the log rather than trusting a possibly-incomplete ledger row.
type Replayer struct {
	states map[replayKey]*ReplayState
}

// NewReplayer creates an empty replayer
func NewReplayer() *Replayer {
	return &Replayer{states: make(map[replayKey]*ReplayState)}
}

// Apply folds one transaction entry into the accumulated state.
// Per-type semantics of the signed delta:
//
//	RESERVE    reserved += delta (delta > 0)
//	UNRESERVE  reserved += delta (delta < 0)
//	PICK       reserved -= delta, picked += delta (delta > 0)
//	SHORT      reserved += delta (delta < 0)
//	RECEIVE    on_hand += delta (delta > 0)
//	ADJUST     on_hand += delta (signed)
func (r *Replayer) Apply(tx *TransactionEntry) error {
	if !tx.TransactionType.IsValid() {
		return shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Cannot replay unknown transaction type "+string(tx.TransactionType))
	}

	key := replayKey{itemID: tx.ItemID, binID: tx.BinID}
	state, ok := r.states[key]
	if !ok {
		state = &ReplayState{
			ItemID:   tx.ItemID,
			BinID:    tx.BinID,
			OnHand:   decimal.Zero,
			Reserved: decimal.Zero,
			Picked:   decimal.Zero,
		}
		r.states[key] = state
	}

	switch tx.TransactionType {
	case TransactionTypeReserve, TransactionTypeUnreserve, TransactionTypeShort:
		state.Reserved = state.Reserved.Add(tx.Delta)
	case TransactionTypePick:
		state.Reserved = state.Reserved.Sub(tx.Delta)
		state.Picked = state.Picked.Add(tx.Delta)
	case TransactionTypeReceive, TransactionTypeAdjust:
		state.OnHand = state.OnHand.Add(tx.Delta)
	}

	return nil
}

// ApplyAll folds a batch of entries in the order given
func (r *Replayer) ApplyAll(txs []TransactionEntry) error {
	for i := range txs {
		if err := r.Apply(&txs[i]); err != nil {
			return err
		}
	}
	return nil
}

// State returns the recomputed counters for one (item, bin) pair, or nil if
// the log contains no entries for it
func (r *Replayer) State(itemID, binID uuid.UUID) *ReplayState {
	return r.states[replayKey{itemID: itemID, binID: binID}]
}

// States returns all recomputed states in a stable order
func (r *Replayer) States() []ReplayState {
	out := make([]ReplayState, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID.String() < out[j].ItemID.String()
		}
		return out[i].BinID.String() < out[j].BinID.String()
	})
	return out
}

// Drift describes a divergence between a stored ledger entry and the state
// recomputed from the transaction log
type Drift struct {
	ItemID        uuid.UUID
	BinID         uuid.UUID
	Stored        ReplayState
	Recomputed    ReplayState
	OnHandDelta   decimal.Decimal
	ReservedDelta decimal.Decimal
	PickedDelta   decimal.Decimal
}

// Compare checks a stored ledger entry against the replayed state and returns
// a Drift when they diverge, or nil when the entry is consistent
func (r *Replayer) Compare(entry *LedgerEntry) *Drift {
	state := r.State(entry.ItemID, entry.BinID)
	if state == nil {
		state = &ReplayState{
			ItemID:   entry.ItemID,
			BinID:    entry.BinID,
			OnHand:   decimal.Zero,
			Reserved: decimal.Zero,
			Picked:   decimal.Zero,
		}
	}

	if entry.OnHand.Equal(state.OnHand) &&
		entry.Reserved.Equal(state.Reserved) &&
		entry.Picked.Equal(state.Picked) {
		return nil
	}

	return &Drift{
		ItemID: entry.ItemID,
		BinID:  entry.BinID,
		Stored: ReplayState{
			ItemID:   entry.ItemID,
			BinID:    entry.BinID,
			OnHand:   entry.OnHand,
			Reserved: entry.Reserved,
			Picked:   entry.Picked,
		},
		Recomputed:    *state,
		OnHandDelta:   state.OnHand.Sub(entry.OnHand),
		ReservedDelta: state.Reserved.Sub(entry.Reserved),
		PickedDelta:   state.Picked.Sub(entry.Picked),
	}
}
