package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/partyplanner/internal/models"
)

// ItemLine is the minimal item data needed for party totals.
type ItemLine struct {
	Price     decimal.Decimal
	Quantity  int
	Purchased bool
}

// Totals are the derived money fields of a party.
type Totals struct {
	Cost         decimal.Decimal
	Contribution decimal.Decimal
	Purchase     decimal.Decimal
}

// ItemTotalCost returns price × quantity.
func ItemTotalCost(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// PartyTotals sums item costs, purchased item costs and contributions.
func PartyTotals(items []ItemLine, contributions []decimal.Decimal) Totals {
	t := Totals{Cost: decimal.Zero, Contribution: decimal.Zero, Purchase: decimal.Zero}
	for _, item := range items {
		cost := ItemTotalCost(item.Price, item.Quantity)
		t.Cost = t.Cost.Add(cost)
		if item.Purchased {
			t.Purchase = t.Purchase.Add(cost)
		}
	}
	for _, c := range contributions {
		t.Contribution = t.Contribution.Add(c)
	}
	return t
}

// Apply copies the totals onto the party.
func (t Totals) Apply(p *models.Party) {
	p.TotalCost = t.Cost.Round(2)
	p.TotalContribution = t.Contribution.Round(2)
	p.TotalPurchase = t.Purchase.Round(2)
}
