package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// QueryService serves the read side of the public API.
type QueryService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewQueryService creates a new query service.
func NewQueryService(store storage.Store, logger *slog.Logger) *QueryService {
	return &QueryService{
		store:  store,
		logger: logger,
	}
}

// ListParties returns every party ordered by name.
func (s *QueryService) ListParties(ctx context.Context) ([]*models.Party, error) {
	parties, err := s.store.ListParties(ctx, storage.PartyFilter{})
	if err != nil {
		s.logger.Error("Failed to list parties", "error", err)
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, nil
}

// FindPartyByName returns parties whose name contains name, case-sensitively,
// ordered by name. No match yields an empty slice.
func (s *QueryService) FindPartyByName(ctx context.Context, name string) ([]*models.Party, error) {
	if name == "" {
		return s.ListParties(ctx)
	}
	parties, err := s.store.ListParties(ctx, storage.PartyFilter{NameContains: name})
	if err != nil {
		s.logger.Error("Failed to find parties", "name", name, "error", err)
		return nil, fmt.Errorf("failed to find parties: %w", err)
	}
	return parties, nil
}

// GetPartyByID returns the party or a storage.NotFoundError.
func (s *QueryService) GetPartyByID(ctx context.Context, id string) (*models.Party, error) {
	party, err := s.store.GetParty(ctx, id)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Error("Failed to get party", "party_id", id, "error", err)
		}
		return nil, err
	}
	return party, nil
}

// ListItems returns every item ordered by name.
func (s *QueryService) ListItems(ctx context.Context) ([]*models.Item, error) {
	items, err := s.store.ListItems(ctx, storage.ItemFilter{})
	if err != nil {
		s.logger.Error("Failed to list items", "error", err)
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListItemsForParty returns the party's items ordered by name. An unknown
// party yields an empty slice.
func (s *QueryService) ListItemsForParty(ctx context.Context, partyID string) ([]*models.Item, error) {
	items, err := s.store.ListItems(ctx, storage.ItemFilter{PartyID: partyID})
	if err != nil {
		s.logger.Error("Failed to list party items", "party_id", partyID, "error", err)
		return nil, fmt.Errorf("failed to list party items: %w", err)
	}
	return items, nil
}

// ListParticipantsForParty returns the party's participants with their users
// joined.
func (s *QueryService) ListParticipantsForParty(ctx context.Context, partyID string) ([]*models.Participant, error) {
	participants, err := s.store.ListParticipants(ctx, storage.ParticipantFilter{PartyID: partyID})
	if err != nil {
		s.logger.Error("Failed to list participants", "party_id", partyID, "error", err)
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}
