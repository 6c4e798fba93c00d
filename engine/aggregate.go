/*
aggregate.go - Windowed summaries and filters over the transaction log

PURPOSE:
  Read-only reporting queries: period totals, per-shop delivery trends,
  and predicate filtering. Everything here is recomputed on demand from
  the store under its read lock - nothing is incrementally maintained,
  so repeated calls without mutation return identical results.

NOTE ON AVERAGE PRICE:
  averagePrice = totalAmount / (totalSold + totalReplaced) when anything
  was sold, else 0. Replaced units are free stock handed back, so they
  dilute the average price per unit actually handled.

SEE ALSO:
  - window.go: Trailing and explicit time windows
  - ledger.go: The running balance these summaries do NOT include
    (Summary.Balance is window-local, not the ledger balance)
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes windowed read models over the store.
type Aggregator struct {
	Store *Store

	// Now is the clock used to resolve trailing windows. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
}

func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{Store: store, Now: time.Now}
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// =============================================================================
// PERIOD SUMMARY
// =============================================================================

// Summary is the windowed aggregate over a set of transactions.
type Summary struct {
	TotalSold     int             `json:"totalSold"`
	TotalReplaced int             `json:"totalReplaced"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalReceived decimal.Decimal `json:"totalReceived"`

	// Balance is the window-local figure totalAmount - totalReceived,
	// NOT the running ledger balance.
	Balance decimal.Decimal `json:"balance"`

	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// PeriodSummary aggregates the transactions inside the window,
// optionally restricted to one shop (empty shopID means all shops).
func (a *Aggregator) PeriodSummary(w Window, shopID ShopID) Summary {
	s := a.Store
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		TotalAmount:   decimal.Zero,
		TotalReceived: decimal.Zero,
		Balance:       decimal.Zero,
		AveragePrice:  decimal.Zero,
	}
	for _, tx := range s.transactions {
		if shopID != "" && tx.ShopID != shopID {
			continue
		}
		if !w.Contains(tx.Date) {
			continue
		}
		sum.TotalSold += tx.FlowersSold
		sum.TotalReplaced += tx.ReplacedFlowers
		sum.TotalAmount = sum.TotalAmount.Add(tx.Amount())
		sum.TotalReceived = sum.TotalReceived.Add(tx.CashReceived)
	}

	sum.Balance = sum.TotalAmount.Sub(sum.TotalReceived)
	if sum.TotalSold > 0 {
		handled := decimal.NewFromInt(int64(sum.TotalSold + sum.TotalReplaced))
		sum.AveragePrice = sum.TotalAmount.Div(handled)
	}
	return sum
}

// NamedSummary resolves a trailing window name (day, week, month) against
// the aggregator's clock and summarizes it.
func (a *Aggregator) NamedSummary(period string, shopID ShopID) (Summary, error) {
	w, err := ParseWindow(period, a.now())
	if err != nil {
		return Summary{}, err
	}
	return a.PeriodSummary(w, shopID), nil
}

// =============================================================================
// DELIVERY TREND
// =============================================================================

// TrendPoint is one sale in a shop's delivery trend series.
type TrendPoint struct {
	Date               time.Time       `json:"date"`
	FlowersSold        int             `json:"flowersSold"`
	CumulativeQuantity int             `json:"cumulativeQuantity"`
	Amount             decimal.Decimal `json:"amount"`
}

// DeliveryTrend returns the shop's sales inside the window sorted by
// date ascending, with a running cumulative quantity. The cumulative sum
// restarts at zero on every call; it is not persisted.
func (a *Aggregator) DeliveryTrend(shopID ShopID, w Window) []TrendPoint {
	s := a.Store
	s.mu.RLock()
	txs := s.shopTransactionsLocked(shopID)
	s.mu.RUnlock()

	var points []TrendPoint
	cumulative := 0
	for _, tx := range txs {
		if !w.Contains(tx.Date) {
			continue
		}
		cumulative += tx.FlowersSold
		points = append(points, TrendPoint{
			Date:               tx.Date,
			FlowersSold:        tx.FlowersSold,
			CumulativeQuantity: cumulative,
			Amount:             tx.Amount(),
		})
	}
	return points
}

// =============================================================================
// FILTERED TRANSACTIONS
// =============================================================================

// Filter selects transactions. Nil bounds are open; an explicit From/To
// range overrides the named Window. Pure filter + sort, no side effects.
type Filter struct {
	Window Window
	From   *time.Time
	To     *time.Time

	ShopID ShopID

	MinRate        *decimal.Decimal
	MaxRate        *decimal.Decimal
	MinOutstanding *decimal.Decimal
	MaxOutstanding *decimal.Decimal
}

func (f Filter) window() Window {
	if f.From == nil && f.To == nil {
		return f.Window
	}
	w := Window{}
	if f.From != nil {
		w.From = *f.From
	}
	if f.To != nil {
		w.To = *f.To
	}
	return w
}

func (f Filter) matches(tx Transaction) bool {
	if f.ShopID != "" && tx.ShopID != f.ShopID {
		return false
	}
	if !f.window().Contains(tx.Date) {
		return false
	}
	if f.MinRate != nil && tx.Rate.LessThan(*f.MinRate) {
		return false
	}
	if f.MaxRate != nil && tx.Rate.GreaterThan(*f.MaxRate) {
		return false
	}
	if f.MinOutstanding != nil && tx.OutstandingBalance.LessThan(*f.MinOutstanding) {
		return false
	}
	if f.MaxOutstanding != nil && tx.OutstandingBalance.GreaterThan(*f.MaxOutstanding) {
		return false
	}
	return true
}

// FilteredTransactions returns the matching transactions sorted by date
// ascending, ties by insertion order.
func (a *Aggregator) FilteredTransactions(f Filter) []Transaction {
	s := a.Store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Transaction
	for _, tx := range s.transactions {
		if f.matches(tx) {
			out = append(out, tx)
		}
	}
	sortTransactionsByDate(out)
	return out
}

// TransactionsOn returns the transactions dated on the given calendar
// day, sorted by date ascending.
func (a *Aggregator) TransactionsOn(day time.Time) []Transaction {
	return a.FilteredTransactions(Filter{Window: OnDay(day)})
}

// =============================================================================
// COMPARATORS - the closed sort set
// =============================================================================

// Comparator orders two transactions. The field set is fixed and known,
// so sorting is a closed set of explicit comparators rather than a
// dynamically-keyed one.
type Comparator func(a, b Transaction) bool

func ByDate(a, b Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.Seq < b.Seq
}

func ByRate(a, b Transaction) bool { return a.Rate.LessThan(b.Rate) }

func ByOutstanding(a, b Transaction) bool {
	return a.OutstandingBalance.LessThan(b.OutstandingBalance)
}

// SortTransactions sorts a copy of txs with the given comparator,
// descending when desc is set.
func SortTransactions(txs []Transaction, cmp Comparator, desc bool) []Transaction {
	out := append([]Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i])
		}
		return cmp(out[i], out[j])
	})
	return out
}
