package admin

import (
	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/service"
)

type partyView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Theme             string  `json:"theme"`
	Venue             *string `json:"venue"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Description       string  `json:"description"`
	TotalCost         string  `json:"total_cost"`
	TotalContribution string  `json:"total_contribution"`
	TotalPurchase     string  `json:"total_purchase"`
	Status            string  `json:"status"`
	Host              *string `json:"host"`
}

func newPartyView(p *models.Party) partyView {
	v := partyView{
		ID:                p.ID,
		Name:              p.Name,
		Theme:             string(p.Theme),
		Venue:             p.Venue,
		StartDate:         models.FormatDate(p.StartDate),
		Description:       p.Description,
		TotalCost:         p.TotalCost.StringFixed(2),
		TotalContribution: p.TotalContribution.StringFixed(2),
		TotalPurchase:     p.TotalPurchase.StringFixed(2),
		Status:            p.Status.Label(),
		Host:              p.HostID,
	}
	if p.EndDate != nil {
		v.EndDate = models.FormatDate(*p.EndDate)
	}
	return v
}

type userView struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Image     *string `json:"image"`
	MobileNo  *string `json:"mobile_no"`
	Verified  bool    `json:"verified"`
	IsStaff   bool    `json:"is_staff"`
}

func newUserView(u *models.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Image:     u.Image,
		MobileNo:  u.MobileNo,
		Verified:  u.Verified,
		IsStaff:   u.IsStaff,
	}
}

type participantView struct {
	ID           string    `json:"id"`
	Party        string    `json:"party"`
	User         *userView `json:"user"`
	DisplayName  string    `json:"display_name"`
	Contribution string    `json:"contribution"`
	Balance      string    `json:"balance"`
	Share        string    `json:"share,omitempty"`
}

func newParticipantView(p *models.Participant) participantView {
	return participantView{
		ID:           p.ID,
		Party:        p.PartyID,
		User:         newUserView(p.User),
		DisplayName:  p.DisplayName(),
		Contribution: p.Contribution.StringFixed(2),
		Balance:      p.Balance.StringFixed(2),
	}
}

type itemView struct {
	ID        string   `json:"id"`
	Party     string   `json:"party"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Quantity  int      `json:"quantity"`
	Price     string   `json:"price"`
	TotalCost string   `json:"total_cost"`
	Priority  *int     `json:"priority"`
	Purchased bool     `json:"purchased"`
	Essential bool     `json:"essential"`
	ForAll    bool     `json:"for_all"`
	Consumers []string `json:"consumers"`
}

func newItemView(i *models.Item) itemView {
	consumers := i.ConsumerIDs
	if consumers == nil {
		consumers = []string{}
	}
	return itemView{
		ID:        i.ID,
		Party:     i.PartyID,
		Name:      i.Name,
		Category:  string(i.Category),
		Quantity:  i.Quantity,
		Price:     i.Price.StringFixed(2),
		TotalCost: i.TotalCost().StringFixed(2),
		Priority:  i.Priority,
		Purchased: i.Purchased,
		Essential: i.Essential,
		ForAll:    i.ForAll,
		Consumers: consumers,
	}
}

type pageView[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
	Page    int `json:"page"`
	Pages   int `json:"pages"`
}

func newPageView[S, T any](p *service.Page[S], convert func(S) T) pageView[T] {
	results := make([]T, 0, len(p.Results))
	for _, r := range p.Results {
		results = append(results, convert(r))
	}
	return pageView[T]{Results: results, Count: p.Count, Page: p.Page, Pages: p.Pages}
}
