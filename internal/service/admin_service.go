package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/partyplanner/internal/calculator"
	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// PageSize is the number of rows per admin list page.
const PageSize = 10

// Page is one page of an admin list.
type Page[T any] struct {
	Results []T
	Count   int
	Page    int
	Pages   int
}

func newPage[T any](results []T, count, page int) *Page[T] {
	pages := (count + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	return &Page[T]{Results: results, Count: count, Page: page, Pages: pages}
}

func pageOf(n int) (int, storage.Page) {
	if n < 1 {
		n = 1
	}
	return n, storage.Page{Limit: PageSize, Offset: (n - 1) * PageSize}
}

// AdminService implements the staff back office: search, CRUD and bulk
// actions over every entity.
type AdminService struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// AdminOption configures an AdminService.
type AdminOption func(*AdminService)

// WithAdminClock overrides the clock used to decide which parties are expired.
func WithAdminClock(now func() time.Time) AdminOption {
	return func(s *AdminService) { s.now = now }
}

// NewAdminService creates a new admin service.
func NewAdminService(store storage.Store, logger *slog.Logger, opts ...AdminOption) *AdminService {
	s := &AdminService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*value)
	if err != nil {
		return nil, &models.ValidationError{Field: field, Message: "enter a valid date (YYYY-MM-DD)"}
	}
	return &d, nil
}

// Parties

// PartyQuery holds the admin party list controls.
type PartyQuery struct {
	Search    string
	Status    models.Status
	Theme     models.Theme
	StartFrom string
	StartTo   string
	Expired   bool
	Page      int
}

// PartyInput carries the editable party fields. Totals and status are
// always derived.
type PartyInput struct {
	Name        string       `json:"name"`
	Theme       models.Theme `json:"theme"`
	Venue       *string      `json:"venue"`
	StartDate   string       `json:"start_date"`
	EndDate     *string      `json:"end_date"`
	Description string       `json:"description"`
	HostID      *string      `json:"host"`
}

func (in PartyInput) apply(p *models.Party) error {
	start, err := parseOptionalDate("start_date", &in.StartDate)
	if err != nil {
		return err
	}
	if start == nil {
		return &models.ValidationError{Field: "start_date", Message: "this field is required"}
	}
	end, err := parseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return err
	}

	p.Name = in.Name
	p.Theme = in.Theme
	p.Venue = in.Venue
	p.StartDate = *start
	p.EndDate = end
	p.Description = in.Description
	p.HostID = in.HostID
	if p.HostID != nil && *p.HostID == "" {
		p.HostID = nil
	}
	return nil
}

// ListParties searches parties by case-insensitive name prefix and filters.
func (s *AdminService) ListParties(ctx context.Context, q PartyQuery) (*Page[*models.Party], error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a valid choice", q.Status)}
	}
	if q.Theme != "" && !q.Theme.Valid() {
		return nil, &models.ValidationError{Field: "theme", Message: fmt.Sprintf("%q is not a valid choice", q.Theme)}
	}
	from, err := parseOptionalDate("start_from", &q.StartFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate("start_to", &q.StartTo)
	if err != nil {
		return nil, err
	}

	page, limit := pageOf(q.Page)
	filter := storage.PartyFilter{
		NamePrefix: q.Search,
		Status:     q.Status,
		Theme:      q.Theme,
		StartFrom:  from,
		StartTo:    to,
		Page:       limit,
	}
	if q.Expired {
		today := calculator.DateOf(s.now())
		filter.ExpiredBefore = &today
	}

	parties, err := s.store.ListParties(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	count, err := s.store.CountParties(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count parties: %w", err)
	}
	return newPage(parties, count, page), nil
}

// GetParty returns a party by ID.
func (s *AdminService) GetParty(ctx context.Context, id string) (*models.Party, error) {
	return s.store.GetParty(ctx, id)
}

// CreateParty adds a party. A host can only be set once participants exist.
func (s *AdminService) CreateParty(ctx context.Context, in PartyInput) (*models.Party, error) {
	party := &models.Party{}
	if err := in.apply(party); err != nil {
		return nil, err
	}
	if err := s.store.CreateParty(ctx, party); err != nil {
		return nil, err
	}
	s.logger.Info("Party created", "party_id", party.ID, "name", party.Name, "status", party.Status.Label())
	return party, nil
}

// UpdateParty replaces the editable fields of a party.
func (s *AdminService) UpdateParty(ctx context.Context, id string, in PartyInput) (*models.Party, error) {
	party, err := s.store.GetParty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(party); err != nil {
		return nil, err
	}
	if err := s.store.UpdateParty(ctx, party); err != nil {
		return nil, err
	}
	s.logger.Info("Party updated", "party_id", party.ID, "status", party.Status.Label())
	return party, nil
}

// SetPartyTheme is the inline theme edit of the party list.
func (s *AdminService) SetPartyTheme(ctx context.Context, id string, theme models.Theme) (*models.Party, error) {
	party, err := s.store.GetParty(ctx, id)
	if err != nil {
		return nil, err
	}
	party.Theme = theme
	if err := s.store.UpdateParty(ctx, party); err != nil {
		return nil, err
	}
	return party, nil
}

// DeleteParty removes a party without participants or items.
func (s *AdminService) DeleteParty(ctx context.Context, id string) error {
	if err := s.store.DeleteParty(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Party deleted", "party_id", id)
	return nil
}

// MarkPast forces the selected parties to Past and reports how many rows
// were changed.
func (s *AdminService) MarkPast(ctx context.Context, ids []string) (int64, error) {
	n, err := s.store.MarkPartiesPast(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to mark parties past", "error", err)
		return 0, err
	}
	s.logger.Info("Parties marked as past", "requested", len(ids), "updated", n)
	return n, nil
}

// CloseExpired marks every expired party as Past.
func (s *AdminService) CloseExpired(ctx context.Context) (int64, error) {
	today := calculator.DateOf(s.now())
	parties, err := s.store.ListParties(ctx, storage.PartyFilter{ExpiredBefore: &today})
	if err != nil {
		return 0, fmt.Errorf("failed to list expired parties: %w", err)
	}
	ids := make([]string, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.ID)
	}
	return s.MarkPast(ctx, ids)
}

// Participants

// ParticipantRow is a participant with its list columns.
type ParticipantRow struct {
	Participant *models.Participant
	DisplayName string
	// Share is the participant's portion of the party's item costs.
	Share decimal.Decimal
}

// ParticipantInput carries participant fields. User and party are only
// read on create.
type ParticipantInput struct {
	UserID       string          `json:"user"`
	PartyID      string          `json:"party"`
	Contribution decimal.Decimal `json:"contribution"`
	Balance      decimal.Decimal `json:"balance"`
}

// ListParticipants lists participants, optionally of one party, with their
// display names and shares.
func (s *AdminService) ListParticipants(ctx context.Context, partyID string, pageNum int) (*Page[ParticipantRow], error) {
	page, limit := pageOf(pageNum)
	filter := storage.ParticipantFilter{PartyID: partyID, Page: limit}

	participants, err := s.store.ListParticipants(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	count, err := s.store.CountParticipants(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	shares := map[string]*calculator.PersonShare{}
	for _, p := range participants {
		if _, done := shares[p.ID]; done {
			continue
		}
		partyShares, err := s.partyShares(ctx, p.PartyID)
		if err != nil {
			return nil, err
		}
		for id, share := range partyShares {
			shares[id] = share
		}
	}

	rows := make([]ParticipantRow, 0, len(participants))
	for _, p := range participants {
		row := ParticipantRow{Participant: p, DisplayName: p.DisplayName(), Share: decimal.Zero}
		if share, ok := shares[p.ID]; ok {
			row.Share = share.Total
		}
		rows = append(rows, row)
	}
	return newPage(rows, count, page), nil
}

// partyShares divides a party's item costs among its participants.
func (s *AdminService) partyShares(ctx context.Context, partyID string) (map[string]*calculator.PersonShare, error) {
	participants, err := s.store.ListParticipants(ctx, storage.ParticipantFilter{PartyID: partyID})
	if err != nil {
		return nil, fmt.Errorf("failed to list party participants: %w", err)
	}
	items, err := s.store.ListItems(ctx, storage.ItemFilter{PartyID: partyID})
	if err != nil {
		return nil, fmt.Errorf("failed to list party items: %w", err)
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	shareItems := make([]calculator.ShareItem, 0, len(items))
	for _, item := range items {
		shareItems = append(shareItems, calculator.ShareItem{
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ForAll:    item.ForAll,
			Consumers: item.ConsumerIDs,
		})
	}
	return calculator.ParticipantShares(shareItems, ids)
}

// GetParticipant returns a participant with its user joined.
func (s *AdminService) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	return s.store.GetParticipant(ctx, id)
}

// CreateParticipant adds a user to a party.
func (s *AdminService) CreateParticipant(ctx context.Context, in ParticipantInput) (*models.Participant, error) {
	participant := &models.Participant{
		UserID:       in.UserID,
		PartyID:      in.PartyID,
		Contribution: in.Contribution,
		Balance:      in.Balance,
	}
	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		return nil, err
	}
	s.logger.Info("Participant added", "participant_id", participant.ID, "party_id", participant.PartyID)
	return s.store.GetParticipant(ctx, participant.ID)
}

// UpdateParticipant changes contribution and balance.
func (s *AdminService) UpdateParticipant(ctx context.Context, id string, in ParticipantInput) (*models.Participant, error) {
	participant := &models.Participant{ID: id, Contribution: in.Contribution, Balance: in.Balance}
	if err := s.store.UpdateParticipant(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

// DeleteParticipant removes a participant that neither hosts nor consumes.
func (s *AdminService) DeleteParticipant(ctx context.Context, id string) error {
	return s.store.DeleteParticipant(ctx, id)
}

// Items

// ItemInput carries item fields. Party is only read on create.
type ItemInput struct {
	PartyID   string          `json:"party"`
	Name      string          `json:"name"`
	Category  models.Category `json:"category"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Priority  *int            `json:"priority"`
	Purchased bool            `json:"purchased"`
	Essential bool            `json:"essential"`
	// ForAll defaults to true.
	ForAll    *bool    `json:"for_all"`
	Consumers []string `json:"consumers"`
}

func (in ItemInput) apply(item *models.Item) {
	item.Name = in.Name
	item.Category = in.Category
	item.Quantity = in.Quantity
	item.Price = in.Price
	item.Priority = in.Priority
	item.Purchased = in.Purchased
	item.Essential = in.Essential
	item.ForAll = in.ForAll == nil || *in.ForAll
	item.ConsumerIDs = in.Consumers
}

// ItemPatch is the inline edit of the item list.
type ItemPatch struct {
	Price     *decimal.Decimal `json:"price"`
	Quantity  *int             `json:"quantity"`
	Category  *models.Category `json:"category"`
	Purchased *bool            `json:"purchased"`
}

// ListItems lists items, optionally of one party, sorted by name or total cost.
func (s *AdminService) ListItems(ctx context.Context, partyID string, sort storage.ItemSort, pageNum int) (*Page[*models.Item], error) {
	switch sort {
	case "", storage.ItemSortName, storage.ItemSortTotalCost, storage.ItemSortTotalCostDesc:
	default:
		return nil, &models.ValidationError{Field: "sort", Message: fmt.Sprintf("%q is not a valid ordering", sort)}
	}

	page, limit := pageOf(pageNum)
	filter := storage.ItemFilter{PartyID: partyID, Sort: sort, Page: limit}
	items, err := s.store.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	count, err := s.store.CountItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	return newPage(items, count, page), nil
}

// GetItem returns an item with its consumers.
func (s *AdminService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.store.GetItem(ctx, id)
}

// CreateItem adds an item to a party.
func (s *AdminService) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	item := &models.Item{PartyID: in.PartyID}
	in.apply(item)
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("Item created", "item_id", item.ID, "party_id", item.PartyID, "total_cost", item.TotalCost().StringFixed(2))
	return s.store.GetItem(ctx, item.ID)
}

// UpdateItem replaces an item's fields and consumers.
func (s *AdminService) UpdateItem(ctx context.Context, id string, in ItemInput) (*models.Item, error) {
	item := &models.Item{ID: id}
	in.apply(item)
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.store.GetItem(ctx, id)
}

// PatchItem applies an inline edit, keeping every other field.
func (s *AdminService) PatchItem(ctx context.Context, id string, patch ItemPatch) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Purchased != nil {
		item.Purchased = *patch.Purchased
	}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.store.GetItem(ctx, id)
}

// DeleteItem removes an item and its consumer links.
func (s *AdminService) DeleteItem(ctx context.Context, id string) error {
	return s.store.DeleteItem(ctx, id)
}

// Users

// ListUsers searches users by first or last name prefix.
func (s *AdminService) ListUsers(ctx context.Context, search string, pageNum int) (*Page[*models.User], error) {
	page, limit := pageOf(pageNum)
	filter := storage.UserFilter{NamePrefix: search, Page: limit}
	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	count, err := s.store.CountUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return newPage(users, count, page), nil
}

// GetUser returns a user by ID.
func (s *AdminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// SetStaff grants or revokes back office access.
func (s *AdminService) SetStaff(ctx context.Context, id string, staff bool) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsStaff = staff
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Staff flag changed", "user_id", id, "is_staff", staff)
	return user, nil
}

// DeleteUser removes a user that takes part in no party.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
