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

const userColumns = `id, username, email, first_name, last_name, password_hash, image, mobile_no,
	verified, is_staff, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var image, mobile sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&image,
		&mobile,
		&user.Verified,
		&user.IsStaff,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Image = stringPtr(image)
	user.MobileNo = stringPtr(mobile)
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := s.now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := user.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		nullString(user.Image),
		nullString(user.MobileNo),
		boolToInt(user.Verified),
		boolToInt(user.IsStaff),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpdateUser saves every mutable user field.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	user.UpdatedAt = s.now().Unix()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?, password_hash = ?,
			image = ?, mobile_no = ?, verified = ?, is_staff = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		nullString(user.Image),
		nullString(user.MobileNo),
		boolToInt(user.Verified),
		boolToInt(user.IsStaff),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &storage.NotFoundError{Entity: "user", ID: user.ID}
	}
	return nil
}

func (s *SQLiteStore) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storage.NotFoundError{Entity: "user", ID: value}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUserBy(ctx, "id", id)
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, "email", email)
}

// GetUserByUsername retrieves a user by their username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, "username", username)
}

func userWhere(filter storage.UserFilter) (string, []any) {
	if filter.NamePrefix == "" {
		return "", nil
	}
	p := likePrefix(filter.NamePrefix)
	return ` WHERE first_name LIKE ? ESCAPE '\' OR last_name LIKE ? ESCAPE '\'`, []any{p, p}
}

// ListUsers returns users ordered by username.
func (s *SQLiteStore) ListUsers(ctx context.Context, filter storage.UserFilter) ([]*models.User, error) {
	where, args := userWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY username, id`
	page, pageArgs := pageClause(filter.Page)
	query += page
	args = append(args, pageArgs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user that no participant references.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM participants WHERE user_id = ?", id).Scan(&n); err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		if n > 0 {
			return &storage.ReferentialIntegrityError{
				Entity:     "user",
				ID:         id,
				Dependents: []string{plural(n, "participant", "participants")},
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return mapDeleteError(err, "user", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &storage.NotFoundError{Entity: "user", ID: id}
		}
		return nil
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// CountUsers counts users matching the filter, ignoring its page.
func (s *SQLiteStore) CountUsers(ctx context.Context, filter storage.UserFilter) (int, error) {
	where, args := userWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
