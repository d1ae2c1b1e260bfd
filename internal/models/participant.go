package models

import "github.com/shopspring/decimal"

// Participant is a user's membership in one party.
// A user has at most one participant record per party.
type Participant struct {
	ID string

	UserID  string
	PartyID string

	Contribution decimal.Decimal
	Balance      decimal.Decimal

	// User is populated when the store joins the referenced user.
	User *User

	CreatedAt int64
}

// DisplayName returns "<first> <last>" of the joined user.
func (p *Participant) DisplayName() string {
	if p.User == nil {
		return ""
	}
	return p.User.FullName()
}

func (p *Participant) Validate() error {
	if p.UserID == "" {
		return invalid("user", "this field is required")
	}
	if p.PartyID == "" {
		return invalid("party", "this field is required")
	}
	if err := validateMoney("contribution", p.Contribution); err != nil {
		return err
	}
	return validateMoney("balance", p.Balance)
}
