package receipt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/florade/flower-engine/engine"
	"github.com/florade/flower-engine/receipt"
)

func TestRender_ContainsTotalsAndBalances(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	text := receipt.Render(receipt.Data{
		Business:        receipt.Business{Name: "Coconut Flower", Phone: "9943676453"},
		Shop:            engine.Shop{Name: "Murugan Stores"},
		Date:            date,
		FlowersSold:     10,
		Rate:            engine.MustMoney("40"),
		CashReceived:    engine.MustMoney("100"),
		PreviousBalance: engine.MustMoney("250"),
	})

	for _, want := range []string{
		"Coconut Flower",
		"Shop: Murugan Stores",
		"Flowers Sold: 10",
		"Total Amount: ₹400.00",
		"Cash Received: ₹100.00",
		"Previous Balance: ₹250.00",
		"New Balance: ₹550.00",
		"Last Delivery: N/A",
		"Thank you for your business!",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("receipt missing %q:\n%s", want, text)
		}
	}
}

func TestRender_IncludesLastDelivery(t *testing.T) {
	last := engine.Delivery{
		Date:        time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		FlowersSold: 8,
		Rate:        engine.MustMoney("45"),
	}
	text := receipt.Render(receipt.Data{
		Business:     receipt.Business{Name: "Coconut Flower", Phone: "9943676453"},
		Shop:         engine.Shop{Name: "S"},
		Date:         time.Now(),
		LastDelivery: &last,
	})

	if !strings.Contains(text, "Last Delivery: 01/03/2025 - 8 flowers at ₹45.00") {
		t.Errorf("unexpected last delivery line:\n%s", text)
	}
}

func TestFileName_SafeForDownload(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	got := receipt.FileName(engine.Shop{Name: "Murugan Stores"}, date)
	if got != "receipt_Murugan_Stores_2025-03-05.txt" {
		t.Errorf("FileName = %q", got)
	}
}
