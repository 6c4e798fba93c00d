/*
inventory.go - Two-pool stock counters under the conservation invariant

PURPOSE:
  Applies stock-movement events to the godown (bulk reserve) and
  available (sellable) counters. Adding to godown is raw intake; adding
  to available is a TRANSFER out of godown, never creation of stock.

INVARIANTS:
  - availableStock >= 0 and godownStock >= 0 at all times; any call that
    would violate this is rejected before anything is mutated.
  - Movements are an append-only audit log. The incremental counters are
    the fast-read cache; Reconcile() folds the movement + sale log into
    derived counters so drift can be detected and repaired instead of
    silently accumulating.

SEE ALSO:
  - ledger.go: Sale-induced available-pool adjustments
*/
package engine

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// INVENTORY
// =============================================================================

// Inventory applies stock movements to the store's counters.
type Inventory struct {
	Store *Store
}

func NewInventory(store *Store) *Inventory {
	return &Inventory{Store: store}
}

// AddStock records an inbound or reallocation event.
//
//   - PoolGodown: godown += quantity (raw intake from the farm)
//   - PoolAvailable: available += quantity AND godown -= quantity.
//     A transfer that would drive godown negative fails with
//     ErrInsufficientStock and mutates nothing.
//
// The movement may be backdated; the log is sorted by date on retrieval.
func (inv *Inventory) AddStock(pool PoolType, quantity int, date time.Time) (StockMovement, error) {
	if quantity <= 0 {
		return StockMovement{}, &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if date.IsZero() {
		return StockMovement{}, &ValidationError{Field: "date", Message: "is required"}
	}
	if pool != PoolGodown && pool != PoolAvailable {
		return StockMovement{}, &ValidationError{Field: "type", Message: "must be godown or available"}
	}

	s := inv.Store
	s.mu.Lock()
	defer s.mu.Unlock()

	switch pool {
	case PoolGodown:
		s.godownStock += quantity
	case PoolAvailable:
		if quantity > s.godownStock {
			return StockMovement{}, &InsufficientStockError{
				Pool:      PoolGodown,
				Requested: quantity,
				Available: s.godownStock,
			}
		}
		s.availableStock += quantity
		s.godownStock -= quantity
	}

	seq := s.seqLocked()
	m := StockMovement{
		ID:       MovementID(fmt.Sprintf("mv-%d", seq)),
		Type:     pool,
		Quantity: quantity,
		Date:     date,
		Seq:      seq,
	}
	s.movements = append(s.movements, m)
	return m, nil
}

// Levels returns the current counter values.
func (inv *Inventory) Levels() StockLevels {
	s := inv.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StockLevels{Available: s.availableStock, Godown: s.godownStock}
}

// Movements returns the audit log sorted by date ascending, ties by
// insertion order.
func (inv *Inventory) Movements() []StockMovement {
	s := inv.Store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]StockMovement(nil), s.movements...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// =============================================================================
// RECONCILIATION - counters derived from the log
// =============================================================================

// ReconciliationReport compares the incremental counters against the
// fold of the movement + sale/replacement log.
type ReconciliationReport struct {
	Counters StockLevels `json:"counters"`
	Derived  StockLevels `json:"derived"`
	InSync   bool        `json:"inSync"`
}

// Reconcile folds the full event history into derived counter values and
// reports any drift. If repair is true and drift is found, the counters
// are reset to the derived values.
//
// Derivation: godown gains every godown movement and loses every
// available transfer; available gains every transfer and replacement and
// loses every unit sold. Counter history before the first recorded
// movement (an opening balance) is outside the log, so derived values
// assume a zero start.
func (inv *Inventory) Reconcile(repair bool) ReconciliationReport {
	s := inv.Store
	s.mu.Lock()
	defer s.mu.Unlock()

	var derived StockLevels
	for _, m := range s.movements {
		switch m.Type {
		case PoolGodown:
			derived.Godown += m.Quantity
		case PoolAvailable:
			derived.Godown -= m.Quantity
			derived.Available += m.Quantity
		}
	}
	for _, tx := range s.transactions {
		derived.Available -= tx.FlowersSold
		derived.Available += tx.ReplacedFlowers
	}

	report := ReconciliationReport{
		Counters: StockLevels{Available: s.availableStock, Godown: s.godownStock},
		Derived:  derived,
	}
	report.InSync = report.Counters == report.Derived

	if repair && !report.InSync {
		s.availableStock = derived.Available
		s.godownStock = derived.Godown
	}
	return report
}
