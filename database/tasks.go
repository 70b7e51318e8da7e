package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const taskColumns = `id, column_id, title, description, importance, position, ai_importance, due_date,
	completed, completed_at, created_at, updated_at`

func scanTask(row rowScanner) (Task, error) {
	var (
		t           Task
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Importance, &t.Order, &t.AIImportance,
		&dueDate, &t.Completed, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	return t, nil
}

// TasksByColumn returns the column's tasks in ascending order.
func (s *DataService) TasksByColumn(ctx context.Context, columnID int64) ([]Task, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+taskColumns+` FROM tasks WHERE column_id = ?
		ORDER BY position, id`, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *DataService) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(s.queryRow(ctx, s.db, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// CountTasks is the append position for a new task in the column.
func (s *DataService) CountTasks(ctx context.Context, columnID int64) (int, error) {
	var n int
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM tasks WHERE column_id = ?`, columnID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// CreateTask inserts t and fills in its ID and timestamps.
func (s *DataService) CreateTask(ctx context.Context, t *Task) error {
	ts := now()
	err := s.queryRow(ctx, s.db, `INSERT INTO tasks (column_id, title, description, importance, position,
		ai_importance, due_date, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.ColumnID, t.Title, t.Description, t.Importance, t.Order, t.AIImportance, nullTime(t.DueDate),
		t.Completed, nullTime(t.CompletedAt), ts, ts).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	t.CreatedAt, t.UpdatedAt = ts, ts
	return nil
}

// UpdateTask persists every mutable field of t, including its column.
func (s *DataService) UpdateTask(ctx context.Context, t *Task) error {
	ts := now()
	res, err := s.exec(ctx, s.db, `UPDATE tasks SET column_id = ?, title = ?, description = ?, importance = ?,
		position = ?, ai_importance = ?, due_date = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		t.ColumnID, t.Title, t.Description, t.Importance, t.Order, t.AIImportance, nullTime(t.DueDate),
		t.Completed, nullTime(t.CompletedAt), ts, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	t.UpdatedAt = ts
	return nil
}

// SetTaskCompleted writes the completion flag; at must be nil when completed is false.
func (s *DataService) SetTaskCompleted(ctx context.Context, id int64, completed bool, at *time.Time) error {
	res, err := s.exec(ctx, s.db, `UPDATE tasks SET completed = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		completed, nullTime(at), now(), id)
	if err != nil {
		return fmt.Errorf("failed to update task completion: %w", err)
	}
	return expectOne(res)
}

// SetTaskAIImportance writes only the suggested importance.
func (s *DataService) SetTaskAIImportance(ctx context.Context, id int64, importance Importance) error {
	res, err := s.exec(ctx, s.db, `UPDATE tasks SET ai_importance = ?, updated_at = ? WHERE id = ?`,
		importance, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update task suggestion: %w", err)
	}
	return expectOne(res)
}

func (s *DataService) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOne(res)
}
