package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florade/flower-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal { return engine.MustMoney(s) }

// newTestBook returns a store seeded with one shop and plenty of
// available stock, plus the engines over it.
func newTestBook(t *testing.T) (*engine.Store, *engine.Ledger, engine.ShopID) {
	t.Helper()
	store := engine.NewStoreWithStock(1000, 0)
	shop, err := store.AddShop(engine.Shop{
		Name: "Murugan Stores", Owner: "Murugan", Phone: "9943000001", Address: "Main Road",
	})
	if err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	return store, engine.NewLedger(store), shop.ID
}

func sale(shopID engine.ShopID, sold int, rate, cash string, at time.Time) engine.SaleInput {
	return engine.SaleInput{
		ShopID:       shopID,
		FlowersSold:  sold,
		Rate:         money(rate),
		CashReceived: money(cash),
		Date:         at,
	}
}

func mustSale(t *testing.T, l *engine.Ledger, in engine.SaleInput) engine.Transaction {
	t.Helper()
	tx, err := l.RecordSale(in)
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	return tx
}

// assertChainInvariant refolds a shop's chain and checks every stored
// outstanding balance against the fold result.
func assertChainInvariant(t *testing.T, l *engine.Ledger, shopID engine.ShopID) {
	t.Helper()
	running := decimal.Zero
	for i, tx := range l.ShopTransactions(shopID) {
		running = running.Add(tx.Delta())
		if !tx.OutstandingBalance.Equal(running) {
			t.Errorf("row %d: stored balance %s != fold %s", i, tx.OutstandingBalance, running)
		}
	}
}

func assertBalance(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(money(want)) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

// =============================================================================
// RECORD SALE
// =============================================================================

func TestRecordSale_FirstSale_StartsChainAtDelta(t *testing.T) {
	// GIVEN: A shop with no history
	// WHEN: Selling 10 @ 40 with 100 received
	// THEN: Outstanding is 10*40 - 100 = 300

	_, ledger, shopID := newTestBook(t)

	tx := mustSale(t, ledger, sale(shopID, 10, "40", "100", day(1)))

	assertBalance(t, tx.OutstandingBalance, "300")
	assertBalance(t, ledger.BalanceOf(shopID), "300")
}

func TestRecordSale_SequentialSales_AccumulateBalance(t *testing.T) {
	_, ledger, shopID := newTestBook(t)

	mustSale(t, ledger, sale(shopID, 10, "40", "0", day(1)))
	tx := mustSale(t, ledger, sale(shopID, 5, "40", "200", day(2)))

	// 400 + (200 - 200) = 400... second delta is 5*40-200 = 0
	assertBalance(t, tx.OutstandingBalance, "400")
	assertChainInvariant(t, ledger, shopID)
}

func TestRecordSale_BackdatedNeutral_LeavesLaterBalancesUnchanged(t *testing.T) {
	// GIVEN: Day 2 (sold 10 @ 40, recv 0 -> 400), day 3 (sold 5 @ 40, recv 200 -> 600)
	// WHEN: Inserting a day-1 sale that contributes 0 (sold 10 @ 40, recv 400)
	// THEN: Day-1 balance 0, day-2 still 400, day-3 still 600

	_, ledger, shopID := newTestBook(t)
	mustSale(t, ledger, sale(shopID, 10, "40", "0", day(2)))
	mustSale(t, ledger, sale(shopID, 5, "40", "200", day(3)))

	mustSale(t, ledger, sale(shopID, 10, "40", "400", day(1)))

	txs := ledger.ShopTransactions(shopID)
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	assertBalance(t, txs[0].OutstandingBalance, "0")
	assertBalance(t, txs[1].OutstandingBalance, "400")
	assertBalance(t, txs[2].OutstandingBalance, "600")
}

func TestRecordSale_BackdatedDebt_ShiftsAllLaterBalances(t *testing.T) {
	// GIVEN: The same day-2/day-3 history
	// WHEN: The day-1 sale instead received nothing (contributes 400)
	// THEN: Day-2 becomes 800 and day-3 becomes 1000

	_, ledger, shopID := newTestBook(t)
	mustSale(t, ledger, sale(shopID, 10, "40", "0", day(2)))
	mustSale(t, ledger, sale(shopID, 5, "40", "200", day(3)))

	mustSale(t, ledger, sale(shopID, 10, "40", "0", day(1)))

	txs := ledger.ShopTransactions(shopID)
	assertBalance(t, txs[0].OutstandingBalance, "400")
	assertBalance(t, txs[1].OutstandingBalance, "800")
	assertBalance(t, txs[2].OutstandingBalance, "1000")
	assertBalance(t, ledger.BalanceOf(shopID), "1000")
}

func TestRecordSale_SameDate_TiesKeepInsertionOrder(t *testing.T) {
	_, ledger, shopID := newTestBook(t)

	first := mustSale(t, ledger, sale(shopID, 1, "40", "0", day(5)))
	second := mustSale(t, ledger, sale(shopID, 2, "40", "0", day(5)))

	txs := ledger.ShopTransactions(shopID)
	if txs[0].ID != first.ID || txs[1].ID != second.ID {
		t.Errorf("tie on date should keep insertion order, got %v then %v", txs[0].ID, txs[1].ID)
	}
	assertChainInvariant(t, ledger, shopID)
}

func TestRecordSale_InsufficientStock_NoMutation(t *testing.T) {
	// GIVEN: availableStock = 5
	// WHEN: recordSale(flowersSold = 10)
	// THEN: InsufficientStock, stock still 5, no transaction created

	store := engine.NewStoreWithStock(5, 0)
	shop, _ := store.AddShop(engine.Shop{Name: "S", Owner: "O", Phone: "1", Address: "A"})
	ledger := engine.NewLedger(store)
	inv := engine.NewInventory(store)

	_, err := ledger.RecordSale(sale(shop.ID, 10, "40", "0", day(1)))

	if !errors.Is(err, engine.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var stockErr *engine.InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.Available != 5 || stockErr.Requested != 10 {
		t.Errorf("unexpected error detail: %+v", stockErr)
	}
	if got := inv.Levels().Available; got != 5 {
		t.Errorf("availableStock = %d, want 5 (unchanged)", got)
	}
	if txs := ledger.ShopTransactions(shop.ID); len(txs) != 0 {
		t.Errorf("expected no transactions, got %d", len(txs))
	}
}

func TestRecordSale_UnknownShop_NotFound(t *testing.T) {
	store := engine.NewStoreWithStock(10, 0)
	ledger := engine.NewLedger(store)

	_, err := ledger.RecordSale(sale("shop-999", 1, "40", "0", day(1)))
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordSale_NegativeInputs_Validation(t *testing.T) {
	_, ledger, shopID := newTestBook(t)

	cases := []struct {
		name string
		in   engine.SaleInput
	}{
		{"negative sold", engine.SaleInput{ShopID: shopID, FlowersSold: -1, Date: day(1)}},
		{"negative rate", engine.SaleInput{ShopID: shopID, Rate: money("-1"), Date: day(1)}},
		{"negative cash", engine.SaleInput{ShopID: shopID, CashReceived: money("-1"), Date: day(1)}},
		{"negative replaced", engine.SaleInput{ShopID: shopID, ReplacedFlowers: -1, Date: day(1)}},
		{"zero date", engine.SaleInput{ShopID: shopID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ledger.RecordSale(tc.in); !errors.Is(err, engine.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRecordSale_DebitsAndReplacementsAdjustStock(t *testing.T) {
	store := engine.NewStoreWithStock(50, 0)
	shop, _ := store.AddShop(engine.Shop{Name: "S", Owner: "O", Phone: "1", Address: "A"})
	ledger := engine.NewLedger(store)
	inv := engine.NewInventory(store)

	in := sale(shop.ID, 10, "40", "400", day(1))
	in.ReplacedFlowers = 2
	mustSale(t, ledger, in)

	// 50 - 10 sold + 2 replaced back
	if got := inv.Levels().Available; got != 42 {
		t.Errorf("availableStock = %d, want 42", got)
	}
}

// =============================================================================
// EDIT TRANSACTION
// =============================================================================

func TestEditTransaction_EarlyEdit_RecomputesWholeChain(t *testing.T) {
	// GIVEN: Three sales building to a balance of 1000
	// WHEN: The first sale's cash received is corrected upward by 400
	// THEN: Every later balance drops by 400

	_, ledger, shopID := newTestBook(t)
	first := mustSale(t, ledger, sale(shopID, 10, "40", "0", day(1)))
	mustSale(t, ledger, sale(shopID, 10, "40", "0", day(2)))
	mustSale(t, ledger, sale(shopID, 5, "40", "200", day(3)))

	cash := money("400")
	if err := ledger.EditTransaction(first.ID, engine.TransactionPatch{CashReceived: &cash}); err != nil {
		t.Fatalf("EditTransaction: %v", err)
	}

	txs := ledger.ShopTransactions(shopID)
	assertBalance(t, txs[0].OutstandingBalance, "0")
	assertBalance(t, txs[1].OutstandingBalance, "400")
	assertBalance(t, txs[2].OutstandingBalance, "400")
	assertChainInvariant(t, ledger, shopID)
}

func TestEditTransaction_DateChange_ReordersChain(t *testing.T) {
	_, ledger, shopID := newTestBook(t)
	a := mustSale(t, ledger, sale(shopID, 10, "40", "0", day(1)))
	mustSale(t, ledger, sale(shopID, 5, "40", "0", day(2)))

	// Move the first sale after the second.
	newDate := day(3)
	if err := ledger.EditTransaction(a.ID, engine.TransactionPatch{Date: &newDate}); err != nil {
		t.Fatalf("EditTransaction: %v", err)
	}

	txs := ledger.ShopTransactions(shopID)
	if txs[1].ID != a.ID {
		t.Errorf("moved transaction should now be last, got order %v, %v", txs[0].ID, txs[1].ID)
	}
	assertChainInvariant(t, ledger, shopID)
}

func TestEditTransaction_Unknown_NotFound(t *testing.T) {
	_, ledger, _ := newTestBook(t)
	if err := ledger.EditTransaction("tx-999", engine.TransactionPatch{}); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEditTransaction_NegativePatch_RejectedWithoutMutation(t *testing.T) {
	_, ledger, shopID := newTestBook(t)
	tx := mustSale(t, ledger, sale(shopID, 10, "40", "0", day(1)))

	bad := -5
	err := ledger.EditTransaction(tx.ID, engine.TransactionPatch{FlowersSold: &bad})
	if !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := ledger.ShopTransactions(shopID)[0].FlowersSold; got != 10 {
		t.Errorf("flowersSold mutated to %d on failed edit", got)
	}
}

// =============================================================================
// BALANCE QUERIES
// =============================================================================

func TestBalanceOf_NoTransactions_Zero(t *testing.T) {
	_, ledger, shopID := newTestBook(t)
	assertBalance(t, ledger.BalanceOf(shopID), "0")
}

func TestBalanceOf_RepeatedCalls_Idempotent(t *testing.T) {
	_, ledger, shopID := newTestBook(t)
	mustSale(t, ledger, sale(shopID, 10, "40", "100", day(1)))

	first := ledger.BalanceOf(shopID)
	for i := 0; i < 5; i++ {
		if got := ledger.BalanceOf(shopID); !got.Equal(first) {
			t.Fatalf("call %d: balance drifted from %s to %s without mutation", i, first, got)
		}
	}
}

func TestTotalOutstanding_SumsAllShops(t *testing.T) {
	store := engine.NewStoreWithStock(100, 0)
	ledger := engine.NewLedger(store)
	a, _ := store.AddShop(engine.Shop{Name: "A", Owner: "O", Phone: "1", Address: "X"})
	b, _ := store.AddShop(engine.Shop{Name: "B", Owner: "O", Phone: "2", Address: "Y"})

	mustSale(t, ledger, sale(a.ID, 10, "40", "0", day(1)))   // 400
	mustSale(t, ledger, sale(b.ID, 5, "40", "100", day(1)))  // 100
	mustSale(t, ledger, sale(b.ID, 5, "40", "300", day(2)))  // 100 + (200-300) = 0

	assertBalance(t, ledger.TotalOutstanding(), "400")
}

func TestShopsWithOutstanding_PositiveOnly_SortedDescending(t *testing.T) {
	store := engine.NewStoreWithStock(100, 0)
	ledger := engine.NewLedger(store)
	a, _ := store.AddShop(engine.Shop{Name: "A", Owner: "O", Phone: "1", Address: "X"})
	b, _ := store.AddShop(engine.Shop{Name: "B", Owner: "O", Phone: "2", Address: "Y"})
	c, _ := store.AddShop(engine.Shop{Name: "C", Owner: "O", Phone: "3", Address: "Z"})

	mustSale(t, ledger, sale(a.ID, 5, "40", "0", day(1)))    // 200
	mustSale(t, ledger, sale(b.ID, 10, "40", "0", day(1)))   // 400
	mustSale(t, ledger, sale(c.ID, 5, "40", "200", day(1)))  // 0, excluded

	got := ledger.ShopsWithOutstanding()
	if len(got) != 2 {
		t.Fatalf("expected 2 shops with outstanding, got %d", len(got))
	}
	if got[0].Shop.ID != b.ID || got[1].Shop.ID != a.ID {
		t.Errorf("expected order [B, A], got [%s, %s]", got[0].Shop.Name, got[1].Shop.Name)
	}
}

// =============================================================================
// LAST SALE HELPERS
// =============================================================================

func TestLastSaleRate_ReturnsMostRecentByDate(t *testing.T) {
	_, ledger, shopID := newTestBook(t)

	if _, ok := ledger.LastSaleRate(shopID); ok {
		t.Fatal("expected no last rate for empty history")
	}

	mustSale(t, ledger, sale(shopID, 5, "45", "0", day(2)))
	mustSale(t, ledger, sale(shopID, 5, "40", "0", day(1))) // backdated

	rate, ok := ledger.LastSaleRate(shopID)
	if !ok || !rate.Equal(money("45")) {
		t.Errorf("last rate = %s, want 45 (the chronologically-last sale)", rate)
	}
}

func TestLastDelivery_ReturnsDetails(t *testing.T) {
	_, ledger, shopID := newTestBook(t)
	mustSale(t, ledger, sale(shopID, 7, "45", "0", day(4)))

	d, ok := ledger.LastDelivery(shopID)
	if !ok || d.FlowersSold != 7 || !d.Rate.Equal(money("45")) || !d.Date.Equal(day(4)) {
		t.Errorf("unexpected last delivery: %+v", d)
	}
}

// =============================================================================
// FOLD INVARIANT UNDER MIXED SEQUENCES
// =============================================================================

func TestLedger_MixedRecordAndEditSequence_HoldsInvariant(t *testing.T) {
	// GIVEN: An arbitrary mix of in-order, backdated and edited sales
	// THEN: The stored chain always equals the fold

	_, ledger, shopID := newTestBook(t)

	a := mustSale(t, ledger, sale(shopID, 10, "40", "100", day(5)))
	mustSale(t, ledger, sale(shopID, 3, "45", "0", day(2)))
	mustSale(t, ledger, sale(shopID, 8, "40", "500", day(9)))
	assertChainInvariant(t, ledger, shopID)

	rate := money("50")
	if err := ledger.EditTransaction(a.ID, engine.TransactionPatch{Rate: &rate}); err != nil {
		t.Fatalf("EditTransaction: %v", err)
	}
	assertChainInvariant(t, ledger, shopID)

	mustSale(t, ledger, sale(shopID, 2, "40", "0", day(1)))
	assertChainInvariant(t, ledger, shopID)
}
