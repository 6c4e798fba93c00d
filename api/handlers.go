/*
handlers.go - HTTP handlers for the flower distribution book

PURPOSE:
  Exposes the bookkeeping engine over REST. Handlers parse HTTP, call
  the engine, map errors to status codes and persist the snapshot after
  every successful mutation.

ENDPOINTS:
  Shops:
    GET    /api/shops                    List shops (?q= name search)
    POST   /api/shops                    Create shop
    GET    /api/shops/{id}               Get shop
    PUT    /api/shops/{id}               Edit shop
    GET    /api/shops/{id}/balance       Outstanding balance
    GET    /api/shops/{id}/transactions  Transaction history
    GET    /api/shops/{id}/trend         Delivery trend (?window=)

  Sales & transactions:
    POST   /api/sales                    Record a sale (returns receipt)
    GET    /api/transactions             Filtered history
    PUT    /api/transactions/{id}        Edit transaction

  Stock:
    GET    /api/stock                    Current counters
    GET    /api/stock/movements          Movement log
    POST   /api/stock/movements          Add stock / transfer
    POST   /api/stock/reconcile          Fold log vs counters (?repair=)

  Reporting:
    GET    /api/summary                  Period summary (?window= or ?from=&to=, ?shop_id=)
    GET    /api/outstanding              Total + shops with outstanding

ERROR HANDLING:
  - 400: validation failures, malformed input
  - 404: unknown shop/transaction
  - 409: insufficient stock
  - 500: internal failures (persistence)

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/florade/flower-engine/engine"
	"github.com/florade/flower-engine/receipt"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Persister saves the whole snapshot after a mutation. Nil disables
// persistence (tests, ephemeral runs).
type Persister interface {
	Save(ctx context.Context, snap engine.Snapshot) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *engine.Store
	Ledger    *engine.Ledger
	Inventory *engine.Inventory
	Agg       *engine.Aggregator

	Business  receipt.Business
	Persister Persister
}

// NewHandler wires the engines over one store.
func NewHandler(store *engine.Store, business receipt.Business, p Persister) *Handler {
	return &Handler{
		Store:     store,
		Ledger:    engine.NewLedger(store),
		Inventory: engine.NewInventory(store),
		Agg:       engine.NewAggregator(store),
		Business:  business,
		Persister: p,
	}
}

// persist replaces the stored snapshot after a successful mutation.
// Persistence failure is logged, not surfaced: the in-memory book is
// already consistent and the next mutation retries the whole document.
func (h *Handler) persist(ctx context.Context) {
	if h.Persister == nil {
		return
	}
	if err := h.Persister.Save(ctx, h.Store.Snapshot()); err != nil {
		log.Printf("snapshot save failed: %v", err)
	}
}

// =============================================================================
// SHOP HANDLERS
// =============================================================================

func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops := h.Store.SearchShops(r.URL.Query().Get("q"))
	dtos := make([]ShopDTO, len(shops))
	for i, s := range shops {
		dtos[i] = toShopDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req ShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	shop, err := h.Store.AddShop(fromShopRequest(req))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusCreated, toShopDTO(shop))
}

func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Store.GetShop(engine.ShopID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShopDTO(shop))
}

func (h *Handler) EditShop(w http.ResponseWriter, r *http.Request) {
	var req ShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	shop := fromShopRequest(req)
	shop.ID = engine.ShopID(chi.URLParam(r, "id"))
	if err := h.Store.EditShop(shop); err != nil {
		writeEngineError(w, err)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toShopDTO(shop))
}

func (h *Handler) GetShopBalance(w http.ResponseWriter, r *http.Request) {
	id := engine.ShopID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetShop(id); err != nil {
		writeEngineError(w, err)
		return
	}
	balance, _ := h.Ledger.BalanceOf(id).Float64()
	writeJSON(w, http.StatusOK, BalanceDTO{ShopID: string(id), Balance: balance})
}

func (h *Handler) GetShopTransactions(w http.ResponseWriter, r *http.Request) {
	id := engine.ShopID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetShop(id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Ledger.ShopTransactions(id)))
}

func (h *Handler) GetShopTrend(w http.ResponseWriter, r *http.Request) {
	id := engine.ShopID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetShop(id); err != nil {
		writeEngineError(w, err)
		return
	}

	window, err := engine.ParseWindow(r.URL.Query().Get("window"), time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	trend := h.Agg.DeliveryTrend(id, window)
	dtos := make([]TrendPointDTO, len(trend))
	for i, p := range trend {
		amount, _ := p.Amount.Float64()
		dtos[i] = TrendPointDTO{
			Date:               p.Date.Format(time.RFC3339),
			FlowersSold:        p.FlowersSold,
			CumulativeQuantity: p.CumulativeQuantity,
			Amount:             amount,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date (use ISO-8601)", err)
		return
	}

	shopID := engine.ShopID(req.ShopID)
	shop, err := h.Store.GetShop(shopID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// Receipt context must be captured before the sale mutates it.
	previous := h.Ledger.BalanceOf(shopID)
	var lastDelivery *engine.Delivery
	if d, ok := h.Ledger.LastDelivery(shopID); ok {
		lastDelivery = &d
	}

	tx, err := h.Ledger.RecordSale(engine.SaleInput{
		ShopID:          shopID,
		FlowersSold:     req.FlowersSold,
		Rate:            decimal.NewFromFloat(req.Rate),
		CashReceived:    decimal.NewFromFloat(req.CashReceived),
		ReplacedFlowers: req.ReplacedFlowers,
		Date:            date,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.persist(r.Context())

	text := receipt.Render(receipt.Data{
		Business:        h.Business,
		Shop:            shop,
		Date:            tx.Date,
		FlowersSold:     tx.FlowersSold,
		Rate:            tx.Rate,
		CashReceived:    tx.CashReceived,
		PreviousBalance: previous,
		LastDelivery:    lastDelivery,
	})

	writeJSON(w, http.StatusCreated, RecordSaleResponse{
		Transaction: toTransactionDTO(tx),
		Receipt:     text,
		ReceiptFile: receipt.FileName(shop, tx.Date),
	})
}

func (h *Handler) EditTransaction(w http.ResponseWriter, r *http.Request) {
	var req EditTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	patch := engine.TransactionPatch{
		FlowersSold:     req.FlowersSold,
		ReplacedFlowers: req.ReplacedFlowers,
	}
	if req.Rate != nil {
		rate := decimal.NewFromFloat(*req.Rate)
		patch.Rate = &rate
	}
	if req.CashReceived != nil {
		cash := decimal.NewFromFloat(*req.CashReceived)
		patch.CashReceived = &cash
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date (use ISO-8601)", err)
			return
		}
		patch.Date = &date
	}

	id := engine.TransactionID(chi.URLParam(r, "id"))
	if err := h.Ledger.EditTransaction(id, patch); err != nil {
		writeEngineError(w, err)
		return
	}
	h.persist(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window, err := engine.ParseWindow(q.Get("window"), time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	filter := engine.Filter{
		Window: window,
		ShopID: engine.ShopID(q.Get("shop_id")),
	}

	if v := q.Get("from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date", err)
			return
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date", err)
			return
		}
		filter.To = &to
	}
	for param, target := range map[string]**decimal.Decimal{
		"min_rate":        &filter.MinRate,
		"max_rate":        &filter.MaxRate,
		"min_outstanding": &filter.MinOutstanding,
		"max_outstanding": &filter.MaxOutstanding,
	} {
		if v := q.Get(param); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+param, err)
				return
			}
			*target = &d
		}
	}

	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Agg.FilteredTransactions(filter)))
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toLevelsDTO(h.Inventory.Levels()))
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	moves := h.Inventory.Movements()
	dtos := make([]StockMovementDTO, len(moves))
	for i, m := range moves {
		dtos[i] = toMovementDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date (use ISO-8601)", err)
		return
	}

	m, err := h.Inventory.AddStock(engine.PoolType(req.Type), req.Quantity, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusCreated, toMovementDTO(m))
}

func (h *Handler) ReconcileStock(w http.ResponseWriter, r *http.Request) {
	repair, _ := strconv.ParseBool(r.URL.Query().Get("repair"))
	report := h.Inventory.Reconcile(repair)
	if repair {
		h.persist(r.Context())
	}
	writeJSON(w, http.StatusOK, ReconcileDTO{
		Counters: toLevelsDTO(report.Counters),
		Derived:  toLevelsDTO(report.Derived),
		InSync:   report.InSync,
		Repaired: repair && !report.InSync,
	})
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shopID := engine.ShopID(q.Get("shop_id"))

	// Explicit range overrides the named window.
	if q.Get("from") != "" || q.Get("to") != "" {
		var window engine.Window
		if v := q.Get("from"); v != "" {
			from, err := parseDate(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid from date", err)
				return
			}
			window.From = from
		}
		if v := q.Get("to"); v != "" {
			to, err := parseDate(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid to date", err)
				return
			}
			window.To = to
		}
		writeJSON(w, http.StatusOK, toSummaryDTO(h.Agg.PeriodSummary(window, shopID)))
		return
	}

	sum, err := h.Agg.NamedSummary(q.Get("window"), shopID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(sum))
}

func (h *Handler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	total, _ := h.Ledger.TotalOutstanding().Float64()
	balances := h.Ledger.ShopsWithOutstanding()

	dtos := make([]ShopBalanceDTO, len(balances))
	for i, sb := range balances {
		balance, _ := sb.Balance.Float64()
		dtos[i] = ShopBalanceDTO{Shop: toShopDTO(sb.Shop), Balance: balance}
	}
	writeJSON(w, http.StatusOK, OutstandingDTO{Total: total, Shops: dtos})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Error = msg + ": " + err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, engine.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation"})
	case errors.Is(err, engine.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "insufficient_stock"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
