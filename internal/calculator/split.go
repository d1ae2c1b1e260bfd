package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ShareItem represents an item to divide among participants.
type ShareItem struct {
	Name      string
	Price     decimal.Decimal
	Quantity  int
	ForAll    bool
	Consumers []string
}

// PersonShare is one participant's portion of the party's items.
type PersonShare struct {
	Total decimal.Decimal
	Items []PersonItem
}

// PersonItem is a participant's portion of a single item.
type PersonItem struct {
	Name   string
	Amount decimal.Decimal
}

// ParticipantShares divides each item's total cost equally among its sharers.
// ForAll items are shared by every participant; other items by their
// consumers only. Items without sharers are skipped. Amounts are rounded to
// cents per item.
func ParticipantShares(items []ShareItem, participants []string) (map[string]*PersonShare, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	shares := make(map[string]*PersonShare, len(participants))
	for _, p := range participants {
		shares[p] = &PersonShare{Total: decimal.Zero}
	}

	for _, item := range items {
		sharers := item.Consumers
		if item.ForAll {
			sharers = participants
		}
		if len(sharers) == 0 {
			continue
		}

		perPerson := ItemTotalCost(item.Price, item.Quantity).
			Div(decimal.NewFromInt(int64(len(sharers)))).
			Round(2)
		for _, person := range sharers {
			share, ok := shares[person]
			if !ok {
				continue
			}
			share.Total = share.Total.Add(perPerson)
			share.Items = append(share.Items, PersonItem{Name: item.Name, Amount: perPerson})
		}
	}

	return shares, nil
}
