package services

import (
	"context"
	"strings"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
)

// ColumnPatch holds the editable column fields. Nil means absent.
type ColumnPatch struct {
	Title *string
	Order *int
}

// ColumnService implements column operations
type ColumnService struct {
	data  *database.DataService
	guard *Guard
	pub   Publisher
}

// NewColumnService creates a new column service
func NewColumnService(data *database.DataService, guard *Guard, pub Publisher) *ColumnService {
	return &ColumnService{data: data, guard: guard, pub: pub}
}

// ListByBoard returns the board's columns in order
func (s *ColumnService) ListByBoard(ctx context.Context, userID, boardID int64) ([]database.Column, error) {
	if _, err := s.guard.Authorize(ctx, userID, KindBoard, boardID); err != nil {
		return nil, err
	}
	return s.data.ColumnsByBoard(ctx, boardID)
}

// Get returns a column on one of the user's boards
func (s *ColumnService) Get(ctx context.Context, userID, id int64) (database.Column, error) {
	a, err := s.guard.Authorize(ctx, userID, KindColumn, id)
	if err != nil {
		return database.Column{}, err
	}
	return a.Column, nil
}

// Create appends a column at the end of the board.
func (s *ColumnService) Create(ctx context.Context, userID, boardID int64, title string) (database.Column, error) {
	if _, err := s.guard.Authorize(ctx, userID, KindBoard, boardID); err != nil {
		return database.Column{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return database.Column{}, invalidf("title is required")
	}

	// Concurrent creates may read the same count and share an order.
	n, err := s.data.CountColumns(ctx, boardID)
	if err != nil {
		return database.Column{}, err
	}
	c := database.Column{BoardID: boardID, Title: title, Order: n}
	if err := s.data.CreateColumn(ctx, &c); err != nil {
		return database.Column{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventColumnCreated, Data: c})
	return c, nil
}

// Update applies a non-empty title and an explicit order
func (s *ColumnService) Update(ctx context.Context, userID, id int64, patch ColumnPatch) (database.Column, error) {
	a, err := s.guard.Authorize(ctx, userID, KindColumn, id)
	if err != nil {
		return database.Column{}, err
	}
	c := a.Column
	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != "" {
			c.Title = title
		}
	}
	if patch.Order != nil {
		c.Order = *patch.Order
	}
	if err := s.data.UpdateColumn(ctx, &c); err != nil {
		return database.Column{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventColumnUpdated, Data: c})
	return c, nil
}

// Delete removes the column and its tasks.
func (s *ColumnService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.guard.Authorize(ctx, userID, KindColumn, id); err != nil {
		return err
	}
	if err := s.data.DeleteColumn(ctx, id); err != nil {
		return err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventColumnDeleted, Data: deletedRef{ID: id}})
	return nil
}
