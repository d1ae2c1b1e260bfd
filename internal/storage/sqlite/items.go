package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

const itemColumns = `i.id, i.party_id, i.name, i.category, i.quantity, i.price, i.priority,
	i.purchased, i.essential, i.for_all, i.created_at`

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var priority sql.NullInt64
	err := row.Scan(
		&item.ID,
		&item.PartyID,
		&item.Name,
		&item.Category,
		&item.Quantity,
		&item.Price,
		&priority,
		&item.Purchased,
		&item.Essential,
		&item.ForAll,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if priority.Valid {
		p := int(priority.Int64)
		item.Priority = &p
	}
	return item, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// CreateItem persists an item with its consumers and refreshes the party totals.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = s.now().Unix()
	item.ConsumerIDs = dedupe(item.ConsumerIDs)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireExists(ctx, tx, "parties", item.PartyID, "party"); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, party_id, name, category, quantity, price, priority,
				purchased, essential, for_all, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.PartyID,
			item.Name,
			item.Category,
			item.Quantity,
			item.Price.StringFixed(2),
			nullInt(item.Priority),
			boolToInt(item.Purchased),
			boolToInt(item.Essential),
			boolToInt(item.ForAll),
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		if err := setConsumers(ctx, tx, item); err != nil {
			return err
		}
		return s.refreshParty(ctx, tx, item.PartyID)
	})
}

// UpdateItem saves the item's fields and replaces its consumer set.
// The party of an existing item cannot change.
func (s *SQLiteStore) UpdateItem(ctx context.Context, item *models.Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var partyID string
		var createdAt int64
		err := tx.QueryRowContext(ctx, "SELECT party_id, created_at FROM items WHERE id = ?", item.ID).Scan(&partyID, &createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			return &storage.NotFoundError{Entity: "item", ID: item.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		item.PartyID = partyID
		item.CreatedAt = createdAt
		item.ConsumerIDs = dedupe(item.ConsumerIDs)
		if err := item.Validate(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE items SET name = ?, category = ?, quantity = ?, price = ?, priority = ?,
				purchased = ?, essential = ?, for_all = ?
			 WHERE id = ?`,
			item.Name,
			item.Category,
			item.Quantity,
			item.Price.StringFixed(2),
			nullInt(item.Priority),
			boolToInt(item.Purchased),
			boolToInt(item.Essential),
			boolToInt(item.ForAll),
			item.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM item_consumers WHERE item_id = ?", item.ID); err != nil {
			return fmt.Errorf("failed to clear item consumers: %w", err)
		}
		if err := setConsumers(ctx, tx, item); err != nil {
			return err
		}
		return s.refreshParty(ctx, tx, item.PartyID)
	})
}

// setConsumers links the item's consumers after checking that each one is a
// participant of the item's party.
func setConsumers(ctx context.Context, tx *sql.Tx, item *models.Item) error {
	for _, participantID := range item.ConsumerIDs {
		var partyID string
		err := tx.QueryRowContext(ctx, "SELECT party_id FROM participants WHERE id = ?", participantID).Scan(&partyID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && partyID != item.PartyID) {
			return &models.ValidationError{
				Field:   "consumers",
				Message: fmt.Sprintf("participant %q is not part of this party", participantID),
			}
		}
		if err != nil {
			return fmt.Errorf("failed to check consumer: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO item_consumers (item_id, participant_id) VALUES (?, ?)",
			item.ID, participantID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item consumer: %w", err)
		}
	}
	return nil
}

// GetItem retrieves an item with its consumers.
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storage.NotFoundError{Entity: "item", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if err := s.loadConsumers(ctx, []*models.Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

func itemWhere(filter storage.ItemFilter) (string, []any) {
	if filter.PartyID == "" {
		return "", nil
	}
	return " WHERE i.party_id = ?", []any{filter.PartyID}
}

func itemOrder(sort storage.ItemSort) string {
	switch sort {
	case storage.ItemSortTotalCost:
		return " ORDER BY CAST(i.price AS REAL) * i.quantity, i.name, i.id"
	case storage.ItemSortTotalCostDesc:
		return " ORDER BY CAST(i.price AS REAL) * i.quantity DESC, i.name, i.id"
	default:
		return " ORDER BY i.name, i.id"
	}
}

// ListItems returns items matching the filter with consumers populated.
func (s *SQLiteStore) ListItems(ctx context.Context, filter storage.ItemFilter) ([]*models.Item, error) {
	where, args := itemWhere(filter)
	page, pageArgs := pageClause(filter.Page)
	query := `SELECT ` + itemColumns + ` FROM items i` + where + itemOrder(filter.Sort) + page

	rows, err := s.db.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	if err := s.loadConsumers(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountItems counts items matching the filter, ignoring its page.
func (s *SQLiteStore) CountItems(ctx context.Context, filter storage.ItemFilter) (int, error) {
	where, args := itemWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items i`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// loadConsumers fetches the consumers of all items in one query.
func (s *SQLiteStore) loadConsumers(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[string]*models.Item, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		byID[item.ID] = item
		item.ConsumerIDs = []string{}
		item.Consumers = []*models.Participant{}
		args[i] = item.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ic.item_id, `+participantJoinColumns+`
		 FROM item_consumers ic
		 JOIN participants p ON p.id = ic.participant_id
		 JOIN users u ON u.id = p.user_id
		 WHERE ic.item_id IN (`+placeholders(len(items))+`)
		 ORDER BY p.created_at, p.id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get item consumers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		p, err := scanParticipant(rows, &itemID)
		if err != nil {
			return fmt.Errorf("failed to scan item consumer: %w", err)
		}

		item := byID[itemID]
		item.ConsumerIDs = append(item.ConsumerIDs, p.ID)
		item.Consumers = append(item.Consumers, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate item consumers: %w", err)
	}
	return nil
}

// DeleteItem removes an item and its consumer links, then refreshes the
// party's totals.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var partyID string
		err := tx.QueryRowContext(ctx, "SELECT party_id FROM items WHERE id = ?", id).Scan(&partyID)
		if errors.Is(err, sql.ErrNoRows) {
			return &storage.NotFoundError{Entity: "item", ID: id}
		}
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM item_consumers WHERE item_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete item consumers: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
			return mapDeleteError(err, "item", id)
		}

		return s.refreshParty(ctx, tx, partyID)
	})
}
