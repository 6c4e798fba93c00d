// Package receipt renders plain-text sale receipts from ledger data.
// It is a pure formatting consumer: everything it prints comes from the
// shop record, the sale being receipted and the balances the ledger
// already computed.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florade/flower-engine/engine"
)

const divider = "------------------------"

// Business identifies the seller printed in the receipt header.
type Business struct {
	Name  string
	Phone string
}

// Data is everything a receipt needs. PreviousBalance is the shop's
// outstanding balance BEFORE this sale; the new balance is derived.
type Data struct {
	Business Business
	Shop     engine.Shop
	Date     time.Time

	FlowersSold  int
	Rate         decimal.Decimal
	CashReceived decimal.Decimal

	PreviousBalance decimal.Decimal
	LastDelivery    *engine.Delivery
}

// Render produces the printable receipt text.
func Render(d Data) string {
	total := d.Rate.Mul(decimal.NewFromInt(int64(d.FlowersSold)))
	newBalance := d.PreviousBalance.Add(total).Sub(d.CashReceived)

	lastDelivery := "N/A"
	if d.LastDelivery != nil {
		lastDelivery = fmt.Sprintf("%s - %d flowers at ₹%s",
			d.LastDelivery.Date.Format("02/01/2006"),
			d.LastDelivery.FlowersSold,
			d.LastDelivery.Rate.StringFixed(2))
	}

	var b strings.Builder
	fmt.Fprintln(&b, d.Business.Name)
	fmt.Fprintf(&b, "Phone: %s\n", d.Business.Phone)
	fmt.Fprintln(&b, divider)
	fmt.Fprintf(&b, "Shop: %s\n", d.Shop.Name)
	fmt.Fprintf(&b, "Date: %s\n", d.Date.Format("02/01/2006"))
	fmt.Fprintf(&b, "Last Delivery: %s\n", lastDelivery)
	fmt.Fprintf(&b, "Flowers Sold: %d\n", d.FlowersSold)
	fmt.Fprintf(&b, "Rate: ₹%s\n", d.Rate.StringFixed(2))
	fmt.Fprintf(&b, "Total Amount: ₹%s\n", total.StringFixed(2))
	fmt.Fprintf(&b, "Cash Received: ₹%s\n", d.CashReceived.StringFixed(2))
	fmt.Fprintf(&b, "Previous Balance: ₹%s\n", d.PreviousBalance.StringFixed(2))
	fmt.Fprintf(&b, "New Balance: ₹%s\n", newBalance.StringFixed(2))
	fmt.Fprintln(&b, divider)
	fmt.Fprintln(&b, "Thank you for your business!")
	return b.String()
}

// FileName suggests a download name for the receipt.
func FileName(shop engine.Shop, date time.Time) string {
	name := strings.ReplaceAll(strings.TrimSpace(shop.Name), " ", "_")
	return fmt.Sprintf("receipt_%s_%s.txt", name, date.Format("2006-01-02"))
}
