package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/partyplanner/internal/calculator"
	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

const partyColumns = `id, name, theme, venue, start_date, end_date, total_cost, total_contribution,
	total_purchase, description, status, host_id, created_at, updated_at`

func scanParty(row rowScanner) (*models.Party, error) {
	p := &models.Party{}
	var venue, host sql.NullString
	var start, end string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Theme,
		&venue,
		&start,
		&end,
		&p.TotalCost,
		&p.TotalContribution,
		&p.TotalPurchase,
		&p.Description,
		&p.Status,
		&host,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.StartDate, err = models.ParseDate(start); err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", start, err)
	}
	endDate, err := models.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: %w", end, err)
	}
	p.EndDate = &endDate
	p.Venue = stringPtr(venue)
	p.HostID = stringPtr(host)
	return p, nil
}

// CreateParty persists a new party. The end date defaults to the start date,
// status is derived from today's date and totals start at zero.
func (s *SQLiteStore) CreateParty(ctx context.Context, party *models.Party) error {
	if party.Theme == "" {
		party.Theme = models.DefaultTheme
	}
	if err := party.Validate(); err != nil {
		return err
	}
	if party.HostID != nil {
		return &models.ValidationError{Field: "host", Message: "must be a participant of this party"}
	}

	if party.ID == "" {
		party.ID = uuid.New().String()
	}
	now := s.now().Unix()
	party.CreatedAt = now
	party.UpdatedAt = now
	calculator.ApplyPartyDates(party, s.today())
	calculator.PartyTotals(nil, nil).Apply(party)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parties (`+partyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		party.ID,
		party.Name,
		party.Theme,
		nullString(party.Venue),
		models.FormatDate(party.StartDate),
		models.FormatDate(*party.EndDate),
		party.TotalCost.StringFixed(2),
		party.TotalContribution.StringFixed(2),
		party.TotalPurchase.StringFixed(2),
		party.Description,
		party.Status,
		nil,
		party.CreatedAt,
		party.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert party: %w", err)
	}

	return nil
}

// UpdateParty saves the editable fields and re-derives status and totals in
// one transaction.
func (s *SQLiteStore) UpdateParty(ctx context.Context, party *models.Party) error {
	if party.Theme == "" {
		party.Theme = models.DefaultTheme
	}
	if err := party.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var createdAt int64
		err := tx.QueryRowContext(ctx, "SELECT created_at FROM parties WHERE id = ?", party.ID).Scan(&createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			return &storage.NotFoundError{Entity: "party", ID: party.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get party: %w", err)
		}

		if party.HostID != nil {
			if err := checkHost(ctx, tx, party.ID, *party.HostID); err != nil {
				return err
			}
		}

		party.CreatedAt = createdAt
		party.UpdatedAt = s.now().Unix()
		if err := s.derive(ctx, tx, party); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE parties SET name = ?, theme = ?, venue = ?, start_date = ?, end_date = ?,
				total_cost = ?, total_contribution = ?, total_purchase = ?, description = ?,
				status = ?, host_id = ?, updated_at = ?
			 WHERE id = ?`,
			party.Name,
			party.Theme,
			nullString(party.Venue),
			models.FormatDate(party.StartDate),
			models.FormatDate(*party.EndDate),
			party.TotalCost.StringFixed(2),
			party.TotalContribution.StringFixed(2),
			party.TotalPurchase.StringFixed(2),
			party.Description,
			party.Status,
			nullString(party.HostID),
			party.UpdatedAt,
			party.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update party: %w", err)
		}
		return nil
	})
}

// checkHost verifies that the participant belongs to the party.
func checkHost(ctx context.Context, q querier, partyID, participantID string) error {
	var hostParty string
	err := q.QueryRowContext(ctx, "SELECT party_id FROM participants WHERE id = ?", participantID).Scan(&hostParty)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && hostParty != partyID) {
		return &models.ValidationError{Field: "host", Message: "must be a participant of this party"}
	}
	if err != nil {
		return fmt.Errorf("failed to check host: %w", err)
	}
	return nil
}

// GetParty retrieves a party by ID.
func (s *SQLiteStore) GetParty(ctx context.Context, id string) (*models.Party, error) {
	return getParty(ctx, s.db, id)
}

func getParty(ctx context.Context, q querier, id string) (*models.Party, error) {
	party, err := scanParty(q.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storage.NotFoundError{Entity: "party", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party: %w", err)
	}
	return party, nil
}

// partyWhere renders the WHERE clause for a filter.
func partyWhere(filter storage.PartyFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.NameContains != "" {
		// instr is case-sensitive, unlike LIKE.
		conds = append(conds, "instr(name, ?) > 0")
		args = append(args, filter.NameContains)
	}
	if filter.NamePrefix != "" {
		conds = append(conds, `name LIKE ? ESCAPE '\'`)
		args = append(args, likePrefix(filter.NamePrefix))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Theme != "" {
		conds = append(conds, "theme = ?")
		args = append(args, filter.Theme)
	}
	if filter.StartFrom != nil {
		conds = append(conds, "start_date >= ?")
		args = append(args, models.FormatDate(*filter.StartFrom))
	}
	if filter.StartTo != nil {
		conds = append(conds, "start_date <= ?")
		args = append(args, models.FormatDate(*filter.StartTo))
	}
	if filter.ExpiredBefore != nil {
		conds = append(conds, "end_date < ? AND status <> ?")
		args = append(args, models.FormatDate(*filter.ExpiredBefore), models.StatusPast)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListParties returns parties matching the filter, ordered by name.
func (s *SQLiteStore) ListParties(ctx context.Context, filter storage.PartyFilter) ([]*models.Party, error) {
	where, args := partyWhere(filter)
	page, pageArgs := pageClause(filter.Page)
	query := `SELECT ` + partyColumns + ` FROM parties` + where + ` ORDER BY name, id` + page

	rows, err := s.db.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer rows.Close()

	parties := []*models.Party{}
	for rows.Next() {
		party, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		parties = append(parties, party)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parties: %w", err)
	}
	return parties, nil
}

// CountParties counts parties matching the filter, ignoring its page.
func (s *SQLiteStore) CountParties(ctx context.Context, filter storage.PartyFilter) (int, error) {
	where, args := partyWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parties`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count parties: %w", err)
	}
	return n, nil
}

// DeleteParty removes a party that has no participants and no items.
func (s *SQLiteStore) DeleteParty(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var participants, items int
		err := tx.QueryRowContext(ctx,
			`SELECT
				(SELECT COUNT(*) FROM participants WHERE party_id = ?),
				(SELECT COUNT(*) FROM items WHERE party_id = ?)`,
			id, id,
		).Scan(&participants, &items)
		if err != nil {
			return fmt.Errorf("failed to count party dependents: %w", err)
		}

		var dependents []string
		if participants > 0 {
			dependents = append(dependents, plural(participants, "participant", "participants"))
		}
		if items > 0 {
			dependents = append(dependents, plural(items, "item", "items"))
		}
		if len(dependents) > 0 {
			return &storage.ReferentialIntegrityError{Entity: "party", ID: id, Dependents: dependents}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM parties WHERE id = ?", id)
		if err != nil {
			return mapDeleteError(err, "party", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &storage.NotFoundError{Entity: "party", ID: id}
		}
		return nil
	})
}

// MarkPartiesPast forces status to Past for the selected parties.
// The count includes parties that were already Past; unknown ids are not counted.
func (s *SQLiteStore) MarkPartiesPast(ctx context.Context, ids []string) (int64, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+2)
	args = append(args, models.StatusPast, s.now().Unix())
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE parties SET status = ?, updated_at = ? WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark parties past: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// derive recomputes end date, status and totals for party using the rows
// visible to q.
func (s *SQLiteStore) derive(ctx context.Context, q querier, party *models.Party) error {
	calculator.ApplyPartyDates(party, s.today())

	rows, err := q.QueryContext(ctx, "SELECT price, quantity, purchased FROM items WHERE party_id = ?", party.ID)
	if err != nil {
		return fmt.Errorf("failed to load item totals: %w", err)
	}
	var lines []calculator.ItemLine
	for rows.Next() {
		var line calculator.ItemLine
		if err := rows.Scan(&line.Price, &line.Quantity, &line.Purchased); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan item totals: %w", err)
		}
		lines = append(lines, line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate item totals: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT contribution FROM participants WHERE party_id = ?", party.ID)
	if err != nil {
		return fmt.Errorf("failed to load contributions: %w", err)
	}
	var contributions []decimal.Decimal
	for rows.Next() {
		var c decimal.Decimal
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate contributions: %w", err)
	}

	calculator.PartyTotals(lines, contributions).Apply(party)
	return nil
}

// refreshParty re-derives and saves a party's status and totals after one of
// its items or participants changed.
func (s *SQLiteStore) refreshParty(ctx context.Context, tx *sql.Tx, partyID string) error {
	party, err := getParty(ctx, tx, partyID)
	if err != nil {
		return err
	}
	if err := s.derive(ctx, tx, party); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE parties SET end_date = ?, status = ?, total_cost = ?, total_contribution = ?,
			total_purchase = ?, updated_at = ?
		 WHERE id = ?`,
		models.FormatDate(*party.EndDate),
		party.Status,
		party.TotalCost.StringFixed(2),
		party.TotalContribution.StringFixed(2),
		party.TotalPurchase.StringFixed(2),
		s.now().Unix(),
		party.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh party: %w", err)
	}
	return nil
}
