// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/mmynk/partyplanner/internal/models"
)

// Store defines the persistence operations for users, parties, participants
// and items. Implementations recompute a party's derived fields (end date,
// status, totals) inside the same transaction as any write that touches the
// party, its items or its participants.
type Store interface {
	UserStore
	PartyStore
	ParticipantStore
	ItemStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists identity records.
type UserStore interface {
	// CreateUser persists a new user. Duplicate email or username fails
	// with a *models.ValidationError.
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error

	// GetUserByID, GetUserByEmail and GetUserByUsername return ErrNotFound
	// when nothing matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error)
	CountUsers(ctx context.Context, filter UserFilter) (int, error)

	// DeleteUser fails with a ReferentialIntegrityError while participants
	// reference the user.
	DeleteUser(ctx context.Context, id string) error
}

// PartyStore persists parties.
type PartyStore interface {
	// CreateParty assigns ID and timestamps, defaults the end date and
	// derives status and totals. Any Status on the input is ignored.
	CreateParty(ctx context.Context, party *models.Party) error

	// UpdateParty saves the editable fields and re-derives status and totals.
	UpdateParty(ctx context.Context, party *models.Party) error

	GetParty(ctx context.Context, id string) (*models.Party, error)
	ListParties(ctx context.Context, filter PartyFilter) ([]*models.Party, error)
	CountParties(ctx context.Context, filter PartyFilter) (int, error)

	// DeleteParty fails with a ReferentialIntegrityError while participants
	// or items reference the party.
	DeleteParty(ctx context.Context, id string) error

	// MarkPartiesPast sets status to Past for the given ids regardless of
	// their dates and returns the number of rows changed.
	MarkPartiesPast(ctx context.Context, ids []string) (int64, error)
}

// ParticipantStore persists participants.
type ParticipantStore interface {
	CreateParticipant(ctx context.Context, participant *models.Participant) error
	UpdateParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)

	// ListParticipants returns participants with their users joined.
	ListParticipants(ctx context.Context, filter ParticipantFilter) ([]*models.Participant, error)
	CountParticipants(ctx context.Context, filter ParticipantFilter) (int, error)

	// DeleteParticipant fails with a ReferentialIntegrityError while the
	// participant hosts a party or consumes an item.
	DeleteParticipant(ctx context.Context, id string) error
}

// ItemStore persists items and their consumer links.
type ItemStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)

	// ListItems returns items with ConsumerIDs and Consumers populated.
	ListItems(ctx context.Context, filter ItemFilter) ([]*models.Item, error)
	CountItems(ctx context.Context, filter ItemFilter) (int, error)

	// DeleteItem removes the item together with its consumer links.
	DeleteItem(ctx context.Context, id string) error
}

// Page limits a list query. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// PartyFilter narrows ListParties. Zero values mean "no constraint".
// Results are always ordered by name.
type PartyFilter struct {
	// NameContains is a case-sensitive substring match.
	NameContains string

	// NamePrefix is a case-insensitive prefix match (admin search).
	NamePrefix string

	Status models.Status
	Theme  models.Theme

	StartFrom *time.Time
	StartTo   *time.Time

	// ExpiredBefore selects parties whose end date is before the given day
	// but whose status is not Past.
	ExpiredBefore *time.Time

	Page
}

// ParticipantFilter narrows ListParticipants.
type ParticipantFilter struct {
	PartyID string
	UserID  string
	Page
}

// ItemSort selects the ordering of ListItems.
type ItemSort string

const (
	ItemSortName          ItemSort = "name"
	ItemSortTotalCost     ItemSort = "total_cost"
	ItemSortTotalCostDesc ItemSort = "-total_cost"
)

// ItemFilter narrows ListItems. Items are ordered by name unless Sort says otherwise.
type ItemFilter struct {
	PartyID string
	Sort    ItemSort
	Page
}

// UserFilter narrows ListUsers. NamePrefix matches first or last name,
// case-insensitively.
type UserFilter struct {
	NamePrefix string
	Page
}
