package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const columnColumns = `id, board_id, title, position, created_at, updated_at`

func scanColumn(row rowScanner) (Column, error) {
	var c Column
	err := row.Scan(&c.ID, &c.BoardID, &c.Title, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ColumnsByBoard returns the board's columns in ascending order.
func (s *DataService) ColumnsByBoard(ctx context.Context, boardID int64) ([]Column, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+columnColumns+` FROM board_columns WHERE board_id = ?
		ORDER BY position, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	out := []Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DataService) GetColumn(ctx context.Context, id int64) (Column, error) {
	c, err := scanColumn(s.queryRow(ctx, s.db, `SELECT `+columnColumns+` FROM board_columns WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Column{}, ErrNotFound
	}
	if err != nil {
		return Column{}, fmt.Errorf("failed to query column: %w", err)
	}
	return c, nil
}

// CountColumns is the append position for a new column on the board.
func (s *DataService) CountColumns(ctx context.Context, boardID int64) (int, error) {
	var n int
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM board_columns WHERE board_id = ?`, boardID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count columns: %w", err)
	}
	return n, nil
}

// CreateColumn inserts c and fills in its ID and timestamps.
func (s *DataService) CreateColumn(ctx context.Context, c *Column) error {
	ts := now()
	err := s.queryRow(ctx, s.db, `INSERT INTO board_columns (board_id, title, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`, c.BoardID, c.Title, c.Order, ts, ts).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert column: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = ts, ts
	return nil
}

// UpdateColumn persists title and order of c.
func (s *DataService) UpdateColumn(ctx context.Context, c *Column) error {
	ts := now()
	res, err := s.exec(ctx, s.db, `UPDATE board_columns SET title = ?, position = ?, updated_at = ? WHERE id = ?`,
		c.Title, c.Order, ts, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update column: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	c.UpdatedAt = ts
	return nil
}

// DeleteColumn removes the column's tasks and then the column.
func (s *DataService) DeleteColumn(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM tasks WHERE column_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM board_columns WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete column: %w", err)
		}
		return expectOne(res)
	})
}
