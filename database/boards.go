package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const boardColumns = `id, user_id, title, description, favorite, created_at, updated_at`

func scanBoard(row rowScanner) (Board, error) {
	var b Board
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Description, &b.Favorite, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// ListBoards returns the user's boards, newest first.
func (s *DataService) ListBoards(ctx context.Context, userID int64) ([]Board, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+boardColumns+` FROM boards WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	out := []Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *DataService) GetBoard(ctx context.Context, id int64) (Board, error) {
	b, err := scanBoard(s.queryRow(ctx, s.db, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Board{}, ErrNotFound
	}
	if err != nil {
		return Board{}, fmt.Errorf("failed to query board: %w", err)
	}
	return b, nil
}

// CreateBoard inserts b and fills in its ID and timestamps.
func (s *DataService) CreateBoard(ctx context.Context, b *Board) error {
	ts := now()
	err := s.queryRow(ctx, s.db, `INSERT INTO boards (user_id, title, description, favorite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		b.UserID, b.Title, b.Description, b.Favorite, ts, ts).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = ts, ts
	return nil
}

// UpdateBoard persists title and description of b.
func (s *DataService) UpdateBoard(ctx context.Context, b *Board) error {
	ts := now()
	res, err := s.exec(ctx, s.db, `UPDATE boards SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		b.Title, b.Description, ts, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	b.UpdatedAt = ts
	return nil
}

// SetFavorite marks or unmarks a board. Marking is exclusive: every other
// board of the same user loses the flag in the same transaction.
func (s *DataService) SetFavorite(ctx context.Context, userID, boardID int64, favorite bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		if favorite {
			if _, err := s.exec(ctx, tx, `UPDATE boards SET favorite = ?, updated_at = ?
				WHERE user_id = ? AND id <> ? AND favorite = ?`, false, ts, userID, boardID, true); err != nil {
				return fmt.Errorf("failed to clear favorites: %w", err)
			}
		}
		res, err := s.exec(ctx, tx, `UPDATE boards SET favorite = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			favorite, ts, boardID, userID)
		if err != nil {
			return fmt.Errorf("failed to set favorite: %w", err)
		}
		return expectOne(res)
	})
}

// DeleteBoard removes the board's tasks, then its columns, then the board.
func (s *DataService) DeleteBoard(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM tasks WHERE column_id IN (
			SELECT id FROM board_columns WHERE board_id = ?)`, id); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM board_columns WHERE board_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete columns: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM boards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
		return expectOne(res)
	})
}
