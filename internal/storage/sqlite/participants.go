package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// participantJoinColumns selects a participant with its user in one row.
const participantJoinColumns = `p.id, p.user_id, p.party_id, p.contribution, p.balance, p.created_at,
	u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.image, u.mobile_no,
	u.verified, u.is_staff, u.created_at, u.updated_at`

const participantJoin = ` FROM participants p JOIN users u ON u.id = p.user_id`

// scanParticipant reads participantJoinColumns. Extra destinations are
// scanned first, for columns selected ahead of the participant.
func scanParticipant(row rowScanner, extra ...any) (*models.Participant, error) {
	p := &models.Participant{User: &models.User{}}
	u := p.User
	var image, mobile sql.NullString
	dest := append(extra,
		&p.ID, &p.UserID, &p.PartyID, &p.Contribution, &p.Balance, &p.CreatedAt,
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &image, &mobile,
		&u.Verified, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Image = stringPtr(image)
	u.MobileNo = stringPtr(mobile)
	return p, nil
}

// CreateParticipant adds a user to a party and refreshes the party's totals.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	if err := participant.Validate(); err != nil {
		return err
	}
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	participant.CreatedAt = s.now().Unix()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireExists(ctx, tx, "users", participant.UserID, "user"); err != nil {
			return err
		}
		if err := requireExists(ctx, tx, "parties", participant.PartyID, "party"); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO participants (id, user_id, party_id, contribution, balance, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			participant.ID,
			participant.UserID,
			participant.PartyID,
			participant.Contribution.StringFixed(2),
			participant.Balance.StringFixed(2),
			participant.CreatedAt,
		)
		if isUniqueViolation(err, "participants.") {
			return &models.ValidationError{Field: "user", Message: "is already a participant of this party"}
		}
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}

		return s.refreshParty(ctx, tx, participant.PartyID)
	})
}

// UpdateParticipant saves contribution and balance. User and party are fixed
// once the participant exists.
func (s *SQLiteStore) UpdateParticipant(ctx context.Context, participant *models.Participant) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getParticipant(ctx, tx, participant.ID)
		if err != nil {
			return err
		}
		participant.UserID = existing.UserID
		participant.PartyID = existing.PartyID
		participant.CreatedAt = existing.CreatedAt
		participant.User = existing.User
		if err := participant.Validate(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE participants SET contribution = ?, balance = ? WHERE id = ?",
			participant.Contribution.StringFixed(2),
			participant.Balance.StringFixed(2),
			participant.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update participant: %w", err)
		}

		return s.refreshParty(ctx, tx, participant.PartyID)
	})
}

// GetParticipant retrieves a participant with its user joined.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	return getParticipant(ctx, s.db, id)
}

func getParticipant(ctx context.Context, q querier, id string) (*models.Participant, error) {
	p, err := scanParticipant(q.QueryRowContext(ctx,
		`SELECT `+participantJoinColumns+participantJoin+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storage.NotFoundError{Entity: "participant", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func participantWhere(filter storage.ParticipantFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.PartyID != "" {
		conds = append(conds, "p.party_id = ?")
		args = append(args, filter.PartyID)
	}
	if filter.UserID != "" {
		conds = append(conds, "p.user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListParticipants returns participants with users joined in a single query,
// ordered by creation time.
func (s *SQLiteStore) ListParticipants(ctx context.Context, filter storage.ParticipantFilter) ([]*models.Participant, error) {
	where, args := participantWhere(filter)
	page, pageArgs := pageClause(filter.Page)
	query := `SELECT ` + participantJoinColumns + participantJoin + where + ` ORDER BY p.created_at, p.id` + page

	rows, err := s.db.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []*models.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// CountParticipants counts participants matching the filter, ignoring its page.
func (s *SQLiteStore) CountParticipants(ctx context.Context, filter storage.ParticipantFilter) (int, error) {
	where, args := participantWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return n, nil
}

// DeleteParticipant removes a participant that neither hosts a party nor
// consumes an item, then refreshes its party's totals.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var partyID string
		err := tx.QueryRowContext(ctx, "SELECT party_id FROM participants WHERE id = ?", id).Scan(&partyID)
		if errors.Is(err, sql.ErrNoRows) {
			return &storage.NotFoundError{Entity: "participant", ID: id}
		}
		if err != nil {
			return fmt.Errorf("failed to get participant: %w", err)
		}

		var hosts, consumes int
		err = tx.QueryRowContext(ctx,
			`SELECT
				(SELECT COUNT(*) FROM parties WHERE host_id = ?),
				(SELECT COUNT(*) FROM item_consumers WHERE participant_id = ?)`,
			id, id,
		).Scan(&hosts, &consumes)
		if err != nil {
			return fmt.Errorf("failed to count participant dependents: %w", err)
		}

		var dependents []string
		if hosts > 0 {
			dependents = append(dependents, plural(hosts, "hosted party", "hosted parties"))
		}
		if consumes > 0 {
			dependents = append(dependents, plural(consumes, "consumed item", "consumed items"))
		}
		if len(dependents) > 0 {
			return &storage.ReferentialIntegrityError{Entity: "participant", ID: id, Dependents: dependents}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id); err != nil {
			return mapDeleteError(err, "participant", id)
		}

		return s.refreshParty(ctx, tx, partyID)
	})
}

// requireExists returns a field error when no row with id exists in table.
func requireExists(ctx context.Context, q querier, table, id, field string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.ValidationError{Field: field, Message: fmt.Sprintf("%s %q does not exist", field, id)}
	}
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", field, err)
	}
	return nil
}
