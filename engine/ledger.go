/*
ledger.go - Per-shop running balance maintenance

PURPOSE:
  The ledger turns the transaction history into a monotonically
  consistent running balance per shop. Balances are a pure fold over the
  shop's transactions sorted by date (ties broken by insertion order):

    running += flowersSold*rate - cashReceived

CRITICAL INVARIANT:
  Every stored OutstandingBalance must equal the fold result at that
  row. Appending out of chronological order (backdating is allowed) or
  editing an early transaction shifts every later balance, so there is
  exactly ONE maintenance routine - recomputeShopLocked - and both
  RecordSale and EditTransaction go through it. The naive "append and
  keep old balances" approach is wrong the moment dates are not
  non-decreasing in insertion order.

ATOMICITY:
  RecordSale checks stock BEFORE touching anything: a rejected sale
  leaves no transaction, no counter change, no cache change.

SEE ALSO:
  - inventory.go: The counter side of a sale
  - aggregate.go: Windowed read models over the same history
*/
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger maintains the per-shop balance chain over the store.
type Ledger struct {
	Store *Store
}

func NewLedger(store *Store) *Ledger {
	return &Ledger{Store: store}
}

// SaleInput carries the caller-supplied fields of RecordSale.
type SaleInput struct {
	ShopID          ShopID
	FlowersSold     int
	Rate            decimal.Decimal
	CashReceived    decimal.Decimal
	ReplacedFlowers int
	Date            time.Time
}

func (in SaleInput) validate() error {
	switch {
	case in.FlowersSold < 0:
		return &ValidationError{Field: "flowersSold", Message: "must be non-negative"}
	case in.Rate.IsNegative():
		return &ValidationError{Field: "rate", Message: "must be non-negative"}
	case in.CashReceived.IsNegative():
		return &ValidationError{Field: "cashReceived", Message: "must be non-negative"}
	case in.ReplacedFlowers < 0:
		return &ValidationError{Field: "replacedFlowers", Message: "must be non-negative"}
	case in.Date.IsZero():
		return &ValidationError{Field: "date", Message: "is required"}
	}
	return nil
}

// RecordSale appends a sale transaction for the shop and debits the
// available pool. The sale may be backdated; the whole balance chain for
// the shop is recomputed so earlier-dated inserts shift later balances.
//
// Fails with ErrNotFound for an unknown shop, ErrValidation for negative
// inputs, and ErrInsufficientStock when flowersSold exceeds the
// available pool. On failure nothing is mutated.
func (l *Ledger) RecordSale(in SaleInput) (Transaction, error) {
	if err := in.validate(); err != nil {
		return Transaction{}, err
	}

	s := l.Store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getShopLocked(in.ShopID); err != nil {
		return Transaction{}, err
	}
	if in.FlowersSold > s.availableStock {
		return Transaction{}, &InsufficientStockError{
			Pool:      PoolAvailable,
			Requested: in.FlowersSold,
			Available: s.availableStock,
		}
	}

	seq := s.seqLocked()
	tx := Transaction{
		ID:              TransactionID(fmt.Sprintf("tx-%d", seq)),
		ShopID:          in.ShopID,
		FlowersSold:     in.FlowersSold,
		Rate:            in.Rate,
		CashReceived:    in.CashReceived,
		ReplacedFlowers: in.ReplacedFlowers,
		Date:            in.Date,
		Seq:             seq,
	}
	s.transactions = append(s.transactions, tx)
	s.recomputeShopLocked(in.ShopID)

	// Replacements are free extra units handed back to the shop,
	// netted against stock, not money.
	s.availableStock -= in.FlowersSold
	s.availableStock += in.ReplacedFlowers

	return s.findTransactionLocked(tx.ID)
}

// EditTransaction replaces the mutable fields of a transaction and
// recomputes the entire balance chain for its shop. ShopID is immutable.
func (l *Ledger) EditTransaction(id TransactionID, patch TransactionPatch) error {
	s := l.Store
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "transaction", ID: string(id)}
	}

	updated := s.transactions[idx]
	if patch.FlowersSold != nil {
		updated.FlowersSold = *patch.FlowersSold
	}
	if patch.Rate != nil {
		updated.Rate = *patch.Rate
	}
	if patch.CashReceived != nil {
		updated.CashReceived = *patch.CashReceived
	}
	if patch.ReplacedFlowers != nil {
		updated.ReplacedFlowers = *patch.ReplacedFlowers
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}

	if err := (SaleInput{
		ShopID:          updated.ShopID,
		FlowersSold:     updated.FlowersSold,
		Rate:            updated.Rate,
		CashReceived:    updated.CashReceived,
		ReplacedFlowers: updated.ReplacedFlowers,
		Date:            updated.Date,
	}).validate(); err != nil {
		return err
	}

	s.transactions[idx] = updated
	s.recomputeShopLocked(updated.ShopID)
	return nil
}

// BalanceOf returns the chronologically-last outstanding balance for the
// shop, or zero if it has no transactions. Served from the cache the
// recompute routine maintains.
func (l *Ledger) BalanceOf(shopID ShopID) decimal.Decimal {
	s := l.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[shopID]
}

// TotalOutstanding sums BalanceOf over all shops.
func (l *Ledger) TotalOutstanding() decimal.Decimal {
	s := l.Store
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, shop := range s.shops {
		total = total.Add(s.balances[shop.ID])
	}
	return total
}

// ShopBalance pairs a shop with its outstanding balance.
type ShopBalance struct {
	Shop    Shop
	Balance decimal.Decimal
}

// ShopsWithOutstanding returns shops with a positive balance, sorted by
// balance descending.
func (l *Ledger) ShopsWithOutstanding() []ShopBalance {
	s := l.Store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ShopBalance
	for _, shop := range s.shops {
		if b := s.balances[shop.ID]; b.IsPositive() {
			out = append(out, ShopBalance{Shop: shop, Balance: b})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance.GreaterThan(out[j].Balance)
	})
	return out
}

// ShopTransactions returns the shop's transactions sorted by date
// ascending, ties by insertion order.
func (l *Ledger) ShopTransactions(shopID ShopID) []Transaction {
	s := l.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shopTransactionsLocked(shopID)
}

// LastSaleRate returns the rate of the shop's most recent sale, or false
// if it has none. The UI pre-fills the next sale with it.
func (l *Ledger) LastSaleRate(shopID ShopID) (decimal.Decimal, bool) {
	last, ok := l.lastTransaction(shopID)
	if !ok {
		return decimal.Zero, false
	}
	return last.Rate, true
}

// Delivery describes the most recent sale to a shop.
type Delivery struct {
	Date        time.Time
	FlowersSold int
	Rate        decimal.Decimal
}

// LastDelivery returns the shop's most recent sale details, or false if
// it has none.
func (l *Ledger) LastDelivery(shopID ShopID) (Delivery, bool) {
	last, ok := l.lastTransaction(shopID)
	if !ok {
		return Delivery{}, false
	}
	return Delivery{Date: last.Date, FlowersSold: last.FlowersSold, Rate: last.Rate}, true
}

func (l *Ledger) lastTransaction(shopID ShopID) (Transaction, bool) {
	s := l.Store
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := s.shopTransactionsLocked(shopID)
	if len(txs) == 0 {
		return Transaction{}, false
	}
	return txs[len(txs)-1], true
}

// =============================================================================
// INVARIANT MAINTENANCE - the single recompute routine
// =============================================================================

// recomputeShopLocked rebuilds the whole balance chain for one shop:
// sort by date ascending (stable on insertion order), fold left, assign
// the running total at each row, refresh the cached latest balance.
// Chains are small; full recomputation on every mutation is the
// correctness-preserving strategy.
func (s *Store) recomputeShopLocked(shopID ShopID) {
	idxs := make([]int, 0, 8)
	for i := range s.transactions {
		if s.transactions[i].ShopID == shopID {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		ta, tb := s.transactions[idxs[a]], s.transactions[idxs[b]]
		if !ta.Date.Equal(tb.Date) {
			return ta.Date.Before(tb.Date)
		}
		return ta.Seq < tb.Seq
	})

	running := decimal.Zero
	for _, i := range idxs {
		running = running.Add(s.transactions[i].Delta())
		s.transactions[i].OutstandingBalance = running
	}

	if len(idxs) == 0 {
		delete(s.balances, shopID)
		return
	}
	s.balances[shopID] = running
}

// shopTransactionsLocked returns a sorted copy of one shop's chain.
func (s *Store) shopTransactionsLocked(shopID ShopID) []Transaction {
	var out []Transaction
	for _, tx := range s.transactions {
		if tx.ShopID == shopID {
			out = append(out, tx)
		}
	}
	sortTransactionsByDate(out)
	return out
}

func (s *Store) findTransactionLocked(id TransactionID) (Transaction, error) {
	for _, tx := range s.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return Transaction{}, &NotFoundError{Kind: "transaction", ID: string(id)}
}

func sortTransactionsByDate(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].Seq < txs[j].Seq
	})
}
