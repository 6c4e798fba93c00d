package engine_test

import (
	"errors"
	"testing"

	"github.com/florade/flower-engine/engine"
)

// =============================================================================
// STOCK MOVEMENTS
// =============================================================================

func TestAddStock_Godown_RawIntake(t *testing.T) {
	store := engine.NewStore()
	inv := engine.NewInventory(store)

	m, err := inv.AddStock(engine.PoolGodown, 100, day(1))
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if m.Type != engine.PoolGodown || m.Quantity != 100 {
		t.Errorf("unexpected movement: %+v", m)
	}

	levels := inv.Levels()
	if levels.Godown != 100 || levels.Available != 0 {
		t.Errorf("levels = %+v, want godown 100, available 0", levels)
	}
}

func TestAddStock_Available_TransfersFromGodown(t *testing.T) {
	// GIVEN: godownStock = 100, availableStock = 0
	// WHEN: addStock(type = available, quantity = 30)
	// THEN: availableStock = 30, godownStock = 70

	store := engine.NewStore()
	inv := engine.NewInventory(store)
	if _, err := inv.AddStock(engine.PoolGodown, 100, day(1)); err != nil {
		t.Fatalf("seed godown: %v", err)
	}

	if _, err := inv.AddStock(engine.PoolAvailable, 30, day(2)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	levels := inv.Levels()
	if levels.Available != 30 || levels.Godown != 70 {
		t.Errorf("levels = %+v, want available 30, godown 70", levels)
	}
}

func TestAddStock_TransferExceedingGodown_RejectedWithoutMutation(t *testing.T) {
	store := engine.NewStore()
	inv := engine.NewInventory(store)
	inv.AddStock(engine.PoolGodown, 20, day(1))

	_, err := inv.AddStock(engine.PoolAvailable, 30, day(2))

	if !errors.Is(err, engine.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	levels := inv.Levels()
	if levels.Godown != 20 || levels.Available != 0 {
		t.Errorf("levels mutated on rejected transfer: %+v", levels)
	}
	if got := len(inv.Movements()); got != 1 {
		t.Errorf("rejected transfer should not be logged, have %d movements", got)
	}
}

func TestAddStock_InvalidInputs_Validation(t *testing.T) {
	store := engine.NewStore()
	inv := engine.NewInventory(store)

	if _, err := inv.AddStock(engine.PoolGodown, 0, day(1)); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("zero quantity: expected ErrValidation, got %v", err)
	}
	if _, err := inv.AddStock("freezer", 5, day(1)); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("unknown pool: expected ErrValidation, got %v", err)
	}
}

func TestMovements_SortedByDate_BackdatingAllowed(t *testing.T) {
	store := engine.NewStore()
	inv := engine.NewInventory(store)

	inv.AddStock(engine.PoolGodown, 10, day(5))
	inv.AddStock(engine.PoolGodown, 20, day(2)) // backdated
	inv.AddStock(engine.PoolGodown, 30, day(8))

	moves := inv.Movements()
	if moves[0].Quantity != 20 || moves[1].Quantity != 10 || moves[2].Quantity != 30 {
		t.Errorf("movements not sorted by date: %+v", moves)
	}
}

// =============================================================================
// CONSERVATION ACROSS SALES AND MOVEMENTS
// =============================================================================

func TestStockConservation_CountersNeverNegative(t *testing.T) {
	// GIVEN: A stream of intakes, transfers and sales
	// THEN: Both counters stay >= 0; violating calls are rejected

	store := engine.NewStore()
	inv := engine.NewInventory(store)
	ledger := engine.NewLedger(store)
	shop, _ := store.AddShop(engine.Shop{Name: "S", Owner: "O", Phone: "1", Address: "A"})

	inv.AddStock(engine.PoolGodown, 50, day(1))
	inv.AddStock(engine.PoolAvailable, 40, day(2))
	mustSale(t, ledger, sale(shop.ID, 25, "40", "0", day(3)))

	// 15 available left: selling 20 must fail and change nothing.
	if _, err := ledger.RecordSale(sale(shop.ID, 20, "40", "0", day(4))); !errors.Is(err, engine.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	levels := inv.Levels()
	if levels.Available != 15 || levels.Godown != 10 {
		t.Errorf("levels = %+v, want available 15, godown 10", levels)
	}
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconcile_CleanHistory_InSync(t *testing.T) {
	store := engine.NewStore()
	inv := engine.NewInventory(store)
	ledger := engine.NewLedger(store)
	shop, _ := store.AddShop(engine.Shop{Name: "S", Owner: "O", Phone: "1", Address: "A"})

	inv.AddStock(engine.PoolGodown, 100, day(1))
	inv.AddStock(engine.PoolAvailable, 60, day(2))
	in := sale(shop.ID, 30, "40", "0", day(3))
	in.ReplacedFlowers = 5
	mustSale(t, ledger, in)

	report := inv.Reconcile(false)
	if !report.InSync {
		t.Errorf("expected in-sync report, got %+v", report)
	}
	if report.Derived.Available != 35 || report.Derived.Godown != 40 {
		t.Errorf("derived = %+v, want available 35, godown 40", report.Derived)
	}
}

func TestReconcile_OpeningBalanceDrift_RepairResetsCounters(t *testing.T) {
	// An opening balance set outside the movement log shows up as drift;
	// repair trusts the log.
	store := engine.NewStoreWithStock(10, 0)
	inv := engine.NewInventory(store)

	report := inv.Reconcile(true)
	if report.InSync {
		t.Fatal("expected drift against the empty log")
	}
	if got := inv.Levels(); got.Available != 0 || got.Godown != 0 {
		t.Errorf("repair should reset counters to derived values, got %+v", got)
	}
}
