package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const userColumns = `id, email, username, first_name, last_name, password_hash, birth_date, gender,
	theme, avatar, google_id, reset_token, reset_expires, created_at, updated_at`

func scanUser(row rowScanner) (User, error) {
	var (
		u            User
		birthDate    sql.NullTime
		googleID     sql.NullString
		resetToken   sql.NullString
		resetExpires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash,
		&birthDate, &u.Gender, &u.Theme, &u.Avatar, &googleID, &resetToken, &resetExpires,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	u.BirthDate = timePtr(birthDate)
	u.GoogleID = stringPtr(googleID)
	u.ResetToken = stringPtr(resetToken)
	u.ResetExpires = timePtr(resetExpires)
	return u, nil
}

func (s *DataService) userWhere(ctx context.Context, where string, args ...any) (User, error) {
	row := s.queryRow(ctx, s.db, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// CreateUser inserts u and fills in its ID and timestamps.
func (s *DataService) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Theme == "" {
		u.Theme = "light"
	}
	ts := now()
	err := s.queryRow(ctx, s.db, `INSERT INTO users (email, username, first_name, last_name, password_hash,
		birth_date, gender, theme, avatar, google_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, nullTime(u.BirthDate),
		u.Gender, u.Theme, u.Avatar, nullString(u.GoogleID), ts, ts,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = ts, ts
	return nil
}

func (s *DataService) UserByID(ctx context.Context, id int64) (User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *DataService) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.userWhere(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *DataService) UserByUsername(ctx context.Context, username string) (User, error) {
	return s.userWhere(ctx, "username = ?", strings.TrimSpace(username))
}

// UserByLogin matches identifier against the email first and the username second.
func (s *DataService) UserByLogin(ctx context.Context, identifier string) (User, error) {
	u, err := s.UserByEmail(ctx, identifier)
	if errors.Is(err, ErrNotFound) {
		return s.UserByUsername(ctx, identifier)
	}
	return u, err
}

func (s *DataService) UserByGoogleID(ctx context.Context, googleID string) (User, error) {
	return s.userWhere(ctx, "google_id = ?", googleID)
}

// UserByResetToken does not look at the expiry; callers compare ResetExpires.
func (s *DataService) UserByResetToken(ctx context.Context, token string) (User, error) {
	return s.userWhere(ctx, "reset_token = ?", token)
}

// UpdateUserProfile persists the editable profile fields of u.
func (s *DataService) UpdateUserProfile(ctx context.Context, u *User) error {
	ts := now()
	res, err := s.exec(ctx, s.db, `UPDATE users SET username = ?, first_name = ?, last_name = ?,
		birth_date = ?, gender = ?, theme = ?, updated_at = ? WHERE id = ?`,
		u.Username, u.FirstName, u.LastName, nullTime(u.BirthDate), u.Gender, u.Theme, ts, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	u.UpdatedAt = ts
	return nil
}

// SetPassword stores a new hash and invalidates any pending reset token.
func (s *DataService) SetPassword(ctx context.Context, userID int64, hash string) error {
	res, err := s.exec(ctx, s.db, `UPDATE users SET password_hash = ?, reset_token = NULL,
		reset_expires = NULL, updated_at = ? WHERE id = ?`, hash, now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOne(res)
}

func (s *DataService) SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	res, err := s.exec(ctx, s.db, `UPDATE users SET reset_token = ?, reset_expires = ?, updated_at = ?
		WHERE id = ?`, token, expires.UTC(), now(), userID)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return expectOne(res)
}

func (s *DataService) LinkGoogle(ctx context.Context, userID int64, googleID string) error {
	res, err := s.exec(ctx, s.db, `UPDATE users SET google_id = ?, updated_at = ? WHERE id = ?`,
		googleID, now(), userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to link google account: %w", err)
	}
	return expectOne(res)
}

func (s *DataService) SetAvatar(ctx context.Context, userID int64, avatar string) error {
	res, err := s.exec(ctx, s.db, `UPDATE users SET avatar = ?, updated_at = ? WHERE id = ?`,
		avatar, now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return expectOne(res)
}

// DeleteUser removes the user with every board, column and task they own.
func (s *DataService) DeleteUser(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM tasks WHERE column_id IN (
			SELECT c.id FROM board_columns c JOIN boards b ON b.id = c.board_id WHERE b.user_id = ?)`, userID); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM board_columns WHERE board_id IN (
			SELECT id FROM boards WHERE user_id = ?)`, userID); err != nil {
			return fmt.Errorf("failed to delete columns: %w", err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM boards WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete boards: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM users WHERE id = ?`, userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return expectOne(res)
	})
}
