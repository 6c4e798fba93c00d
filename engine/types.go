/*
Package engine provides the ledger and inventory bookkeeping core.

PURPOSE:
  This package contains the domain types and algorithms that turn a
  sequence of dated sale and stock-movement events into a consistent
  per-shop running balance, a two-pool inventory that survives
  retroactive edits, and on-demand windowed summaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shop: A customer account receiving flower deliveries on credit
  - Transaction: A dated sale event with a derived outstanding balance
  - StockMovement: A logged event changing the inventory counters
  - Money: decimal currency amounts (rate, cash, outstanding)

DESIGN PRINCIPLES:
  1. Derivation: OutstandingBalance is a cache of the ledger fold,
     never independently authoritative
  2. Precision: Uses decimal.Decimal for money, never float64
  3. Explicit state: All entities live in an explicit Store passed by
     reference - no ambient globals
  4. Append-only audit: StockMovements are never edited or deleted

SEE ALSO:
  - store.go: The Entity Store owning all entities
  - ledger.go: Balance chain maintenance
  - inventory.go: Counter updates under the conservation invariant
  - aggregate.go: Windowed summaries and filters
*/
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ShopID string
type TransactionID string
type MovementID string

// =============================================================================
// SHOP - Customer account
// =============================================================================

// Contact is a labeled alternate phone number for a shop.
type Contact struct {
	Label string `json:"label"`
	Phone string `json:"phone"`
}

type Shop struct {
	ID               ShopID    `json:"id"`
	Name             string    `json:"name"`
	Owner            string    `json:"owner"`
	Phone            string    `json:"phone"`
	AlternateNumbers []Contact `json:"alternateNumbers,omitempty"`
	Address          string    `json:"address"`

	// Optional "latitude,longitude" string captured by the UI.
	Location string `json:"location,omitempty"`
}

// Validate checks the required fields after trimming whitespace.
func (s Shop) Validate() error {
	missing := func(field, value string) *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "must not be blank"}
		}
		return nil
	}
	for _, err := range []*ValidationError{
		missing("name", s.Name),
		missing("owner", s.Owner),
		missing("phone", s.Phone),
		missing("address", s.Address),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSACTION - One dated sale event
// =============================================================================

type Transaction struct {
	ID     TransactionID `json:"id"`
	ShopID ShopID        `json:"shopId"`

	FlowersSold     int             `json:"flowersSold"`
	Rate            decimal.Decimal `json:"rate"`
	CashReceived    decimal.Decimal `json:"cashReceived"`
	ReplacedFlowers int             `json:"replacedFlowers"`
	Date            time.Time       `json:"date"`

	// OutstandingBalance is DERIVED: the running fold of
	// flowersSold*rate - cashReceived over this shop's transactions
	// sorted by date. It is recomputed on every ledger mutation and
	// must always equal the fold result.
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`

	// Seq is the insertion order, used to break date ties so the sort
	// stays stable across recomputations.
	Seq int64 `json:"seq"`
}

// Amount is the monetary value of the sale (flowersSold * rate).
// Replaced flowers never contribute to money owed.
func (t Transaction) Amount() decimal.Decimal {
	return t.Rate.Mul(decimal.NewFromInt(int64(t.FlowersSold)))
}

// Delta is this transaction's contribution to the outstanding balance.
func (t Transaction) Delta() decimal.Decimal {
	return t.Amount().Sub(t.CashReceived)
}

// TransactionPatch carries the mutable fields of an edit. Nil fields are
// left unchanged; ShopID is immutable and deliberately absent.
type TransactionPatch struct {
	FlowersSold     *int
	Rate            *decimal.Decimal
	CashReceived    *decimal.Decimal
	ReplacedFlowers *int
	Date            *time.Time
}

// =============================================================================
// STOCK MOVEMENT - Append-only inventory event
// =============================================================================

type PoolType string

const (
	// PoolGodown is the bulk reserve not yet allocated for sale.
	PoolGodown PoolType = "godown"

	// PoolAvailable is inventory eligible to be sold. Adding to it
	// transfers stock out of the godown pool, it never creates stock.
	PoolAvailable PoolType = "available"
)

type StockMovement struct {
	ID       MovementID `json:"id"`
	Type     PoolType   `json:"type"`
	Quantity int        `json:"quantity"`
	Date     time.Time  `json:"date"`

	// Seq is the insertion order, mirroring Transaction.Seq.
	Seq int64 `json:"seq"`
}

// =============================================================================
// STOCK LEVELS
// =============================================================================

// StockLevels is a read-only view of the two inventory counters.
type StockLevels struct {
	Available int `json:"availableStock"`
	Godown    int `json:"godownStock"`
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// MustMoney parses a decimal string, returning zero on failure. Intended
// for literals in tests and seed data, not for user input.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
