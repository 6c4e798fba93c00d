/*
store.go - The Entity Store: explicit owner of all engine state

PURPOSE:
  Holds the four collections (shops, transactions, stock movements) plus
  the two inventory counters behind one mutex. The store has no business
  rules of its own beyond shop validation; the Ledger, Inventory and
  Aggregator types carry the rules and mutate the store under its lock.

CONCURRENCY:
  Single logical writer. Mutations take the write lock, queries the read
  lock, so read-only Ledger and Aggregation queries running concurrently
  see a consistent snapshot. Nothing here blocks on I/O - loading and
  saving the snapshot document is the persistence collaborator's job,
  invoked around (not inside) these operations.

SNAPSHOT:
  Snapshot() and Restore() convert the whole store to and from a single
  JSON-serializable document so the external persistence collaborator
  can replace it wholesale (last-writer-wins).

SEE ALSO:
  - ledger.go, inventory.go, aggregate.go: The engines over this state
  - store/sqlite: SQLite-backed snapshot persistence
*/
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	shops        []Shop
	transactions []Transaction
	movements    []StockMovement

	availableStock int
	godownStock    int

	// balances caches the latest outstanding balance per shop. It is
	// rebuilt by the ledger on every mutation of that shop's chain and
	// is never authoritative on its own.
	balances map[ShopID]decimal.Decimal

	// nextSeq numbers entities in insertion order. Used for id
	// generation and as the stable tiebreak for equal dates.
	nextSeq int64
}

func NewStore() *Store {
	return &Store{balances: make(map[ShopID]decimal.Decimal)}
}

// NewStoreWithStock creates a store with opening counter values, for
// callers migrating an existing book.
func NewStoreWithStock(available, godown int) *Store {
	s := NewStore()
	s.availableStock = available
	s.godownStock = godown
	return s
}

func (s *Store) seqLocked() int64 {
	s.nextSeq++
	return s.nextSeq
}

// =============================================================================
// SHOP REGISTRY
// =============================================================================

// AddShop validates and registers a new shop, assigning its id.
func (s *Store) AddShop(shop Shop) (Shop, error) {
	if err := shop.Validate(); err != nil {
		return Shop{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seqLocked()
	shop.ID = ShopID(fmt.Sprintf("shop-%d", seq))
	shop.Name = strings.TrimSpace(shop.Name)
	shop.Owner = strings.TrimSpace(shop.Owner)
	shop.Phone = strings.TrimSpace(shop.Phone)
	shop.Address = strings.TrimSpace(shop.Address)
	s.shops = append(s.shops, shop)
	return shop, nil
}

// EditShop replaces the mutable fields of an existing shop by id match.
func (s *Store) EditShop(shop Shop) error {
	if err := shop.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.shops {
		if s.shops[i].ID == shop.ID {
			s.shops[i] = shop
			return nil
		}
	}
	return &NotFoundError{Kind: "shop", ID: string(shop.ID)}
}

// GetShop returns the shop with the given id.
func (s *Store) GetShop(id ShopID) (Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getShopLocked(id)
}

func (s *Store) getShopLocked(id ShopID) (Shop, error) {
	for _, shop := range s.shops {
		if shop.ID == id {
			return shop, nil
		}
	}
	return Shop{}, &NotFoundError{Kind: "shop", ID: string(id)}
}

// Shops returns all shops sorted by name ascending.
func (s *Store) Shops() []Shop {
	return s.SearchShops("")
}

// SearchShops returns shops whose name contains the query
// (case-insensitive), sorted by name ascending.
func (s *Store) SearchShops(query string) []Shop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var out []Shop
	for _, shop := range s.shops {
		if q == "" || strings.Contains(strings.ToLower(shop.Name), q) {
			out = append(out, shop)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// =============================================================================
// SNAPSHOT - Whole-store document for the persistence collaborator
// =============================================================================

// Snapshot is the JSON-serializable document the external persistence
// collaborator loads at boot and replaces wholesale after mutations.
type Snapshot struct {
	Shops          []Shop          `json:"shops"`
	Transactions   []Transaction   `json:"transactions"`
	StockMovements []StockMovement `json:"stockMovements"`
	AvailableStock int             `json:"availableStock"`
	GodownStock    int             `json:"godownStock"`
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Shops:          append([]Shop(nil), s.shops...),
		Transactions:   append([]Transaction(nil), s.transactions...),
		StockMovements: append([]StockMovement(nil), s.movements...),
		AvailableStock: s.availableStock,
		GodownStock:    s.godownStock,
	}
	return snap
}

// Restore replaces the whole store state from a snapshot document and
// rebuilds the derived balance cache and sequence counter.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shops = append([]Shop(nil), snap.Shops...)
	s.transactions = append([]Transaction(nil), snap.Transactions...)
	s.movements = append([]StockMovement(nil), snap.StockMovements...)
	s.availableStock = snap.AvailableStock
	s.godownStock = snap.GodownStock

	s.nextSeq = 0
	for _, tx := range s.transactions {
		if tx.Seq > s.nextSeq {
			s.nextSeq = tx.Seq
		}
	}
	for _, m := range s.movements {
		if m.Seq > s.nextSeq {
			s.nextSeq = m.Seq
		}
	}
	for _, shop := range s.shops {
		var n int64
		if _, err := fmt.Sscanf(string(shop.ID), "shop-%d", &n); err == nil && n > s.nextSeq {
			s.nextSeq = n
		}
	}

	s.balances = make(map[ShopID]decimal.Decimal)
	for _, shop := range s.shops {
		s.recomputeShopLocked(shop.ID)
	}
}
