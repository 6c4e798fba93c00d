/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the engine's domain
  model from the external contract. Money travels as float64 on the
  wire; internally everything stays decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers parse and delegate; the engine owns the business validation.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/florade/flower-engine/engine"
)

// =============================================================================
// SHOPS
// =============================================================================

type ContactDTO struct {
	Label string `json:"label"`
	Phone string `json:"phone"`
}

type ShopDTO struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Owner            string       `json:"owner"`
	Phone            string       `json:"phone"`
	AlternateNumbers []ContactDTO `json:"alternate_numbers,omitempty"`
	Address          string       `json:"address"`
	Location         string       `json:"location,omitempty"`
}

type ShopRequest struct {
	Name             string       `json:"name"`
	Owner            string       `json:"owner"`
	Phone            string       `json:"phone"`
	AlternateNumbers []ContactDTO `json:"alternate_numbers,omitempty"`
	Address          string       `json:"address"`
	Location         string       `json:"location,omitempty"`
}

type ShopBalanceDTO struct {
	Shop    ShopDTO `json:"shop"`
	Balance float64 `json:"balance"`
}

type BalanceDTO struct {
	ShopID  string  `json:"shop_id"`
	Balance float64 `json:"balance"`
}

type OutstandingDTO struct {
	Total float64          `json:"total"`
	Shops []ShopBalanceDTO `json:"shops"`
}

// =============================================================================
// SALES AND TRANSACTIONS
// =============================================================================

type RecordSaleRequest struct {
	ShopID          string  `json:"shop_id"`
	FlowersSold     int     `json:"flowers_sold"`
	Rate            float64 `json:"rate"`
	CashReceived    float64 `json:"cash_received"`
	ReplacedFlowers int     `json:"replaced_flowers"`
	Date            string  `json:"date"` // ISO-8601
}

type TransactionDTO struct {
	ID                 string  `json:"id"`
	ShopID             string  `json:"shop_id"`
	FlowersSold        int     `json:"flowers_sold"`
	Rate               float64 `json:"rate"`
	CashReceived       float64 `json:"cash_received"`
	ReplacedFlowers    int     `json:"replaced_flowers"`
	Date               string  `json:"date"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}

type RecordSaleResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	Receipt     string         `json:"receipt"`
	ReceiptFile string         `json:"receipt_file"`
}

// EditTransactionRequest patches a transaction; absent fields are left
// unchanged. shop_id is immutable and deliberately absent.
type EditTransactionRequest struct {
	FlowersSold     *int     `json:"flowers_sold,omitempty"`
	Rate            *float64 `json:"rate,omitempty"`
	CashReceived    *float64 `json:"cash_received,omitempty"`
	ReplacedFlowers *int     `json:"replaced_flowers,omitempty"`
	Date            *string  `json:"date,omitempty"`
}

// =============================================================================
// STOCK
// =============================================================================

type AddStockRequest struct {
	Type     string `json:"type"` // godown | available
	Quantity int    `json:"quantity"`
	Date     string `json:"date"`
}

type StockMovementDTO struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	Date     string `json:"date"`
}

type StockLevelsDTO struct {
	AvailableStock int `json:"available_stock"`
	GodownStock    int `json:"godown_stock"`
}

type ReconcileDTO struct {
	Counters StockLevelsDTO `json:"counters"`
	Derived  StockLevelsDTO `json:"derived"`
	InSync   bool           `json:"in_sync"`
	Repaired bool           `json:"repaired"`
}

// =============================================================================
// AGGREGATION
// =============================================================================

type SummaryDTO struct {
	TotalSold     int     `json:"total_sold"`
	TotalReplaced int     `json:"total_replaced"`
	TotalAmount   float64 `json:"total_amount"`
	TotalReceived float64 `json:"total_received"`
	Balance       float64 `json:"balance"`
	AveragePrice  float64 `json:"average_price"`
}

type TrendPointDTO struct {
	Date               string  `json:"date"`
	FlowersSold        int     `json:"flowers_sold"`
	CumulativeQuantity int     `json:"cumulative_quantity"`
	Amount             float64 `json:"amount"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toShopDTO(s engine.Shop) ShopDTO {
	contacts := make([]ContactDTO, len(s.AlternateNumbers))
	for i, c := range s.AlternateNumbers {
		contacts[i] = ContactDTO{Label: c.Label, Phone: c.Phone}
	}
	if len(contacts) == 0 {
		contacts = nil
	}
	return ShopDTO{
		ID:               string(s.ID),
		Name:             s.Name,
		Owner:            s.Owner,
		Phone:            s.Phone,
		AlternateNumbers: contacts,
		Address:          s.Address,
		Location:         s.Location,
	}
}

func fromShopRequest(req ShopRequest) engine.Shop {
	contacts := make([]engine.Contact, len(req.AlternateNumbers))
	for i, c := range req.AlternateNumbers {
		contacts[i] = engine.Contact{Label: c.Label, Phone: c.Phone}
	}
	if len(contacts) == 0 {
		contacts = nil
	}
	return engine.Shop{
		Name:             req.Name,
		Owner:            req.Owner,
		Phone:            req.Phone,
		AlternateNumbers: contacts,
		Address:          req.Address,
		Location:         req.Location,
	}
}

func toTransactionDTO(tx engine.Transaction) TransactionDTO {
	rate, _ := tx.Rate.Float64()
	cash, _ := tx.CashReceived.Float64()
	outstanding, _ := tx.OutstandingBalance.Float64()
	return TransactionDTO{
		ID:                 string(tx.ID),
		ShopID:             string(tx.ShopID),
		FlowersSold:        tx.FlowersSold,
		Rate:               rate,
		CashReceived:       cash,
		ReplacedFlowers:    tx.ReplacedFlowers,
		Date:               tx.Date.Format(time.RFC3339),
		OutstandingBalance: outstanding,
	}
}

func toTransactionDTOs(txs []engine.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toSummaryDTO(s engine.Summary) SummaryDTO {
	amount, _ := s.TotalAmount.Float64()
	received, _ := s.TotalReceived.Float64()
	balance, _ := s.Balance.Float64()
	avg, _ := s.AveragePrice.Round(2).Float64()
	return SummaryDTO{
		TotalSold:     s.TotalSold,
		TotalReplaced: s.TotalReplaced,
		TotalAmount:   amount,
		TotalReceived: received,
		Balance:       balance,
		AveragePrice:  avg,
	}
}

func toMovementDTO(m engine.StockMovement) StockMovementDTO {
	return StockMovementDTO{
		ID:       string(m.ID),
		Type:     string(m.Type),
		Quantity: m.Quantity,
		Date:     m.Date.Format(time.RFC3339),
	}
}

func toLevelsDTO(l engine.StockLevels) StockLevelsDTO {
	return StockLevelsDTO{AvailableStock: l.Available, GodownStock: l.Godown}
}
