package services

import (
	"context"
	"strings"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
)

// Change events published to the owner's websocket connections.
const (
	EventBoardCreated  = "board.created"
	EventBoardUpdated  = "board.updated"
	EventBoardDeleted  = "board.deleted"
	EventColumnCreated = "column.created"
	EventColumnUpdated = "column.updated"
	EventColumnDeleted = "column.deleted"
	EventTaskCreated   = "task.created"
	EventTaskUpdated   = "task.updated"
	EventTaskDeleted   = "task.deleted"
)

type deletedRef struct {
	ID int64 `json:"id"`
}

// BoardPatch holds the fields of a board update. Nil means absent.
type BoardPatch struct {
	Title       *string
	Description *string
}

// BoardService implements board operations for the board owner
type BoardService struct {
	data  *database.DataService
	guard *Guard
	pub   Publisher
}

// NewBoardService creates a new board service
func NewBoardService(data *database.DataService, guard *Guard, pub Publisher) *BoardService {
	return &BoardService{data: data, guard: guard, pub: pub}
}

// List returns the user's boards, newest first
func (s *BoardService) List(ctx context.Context, userID int64) ([]database.Board, error) {
	return s.data.ListBoards(ctx, userID)
}

// Get returns a board owned by userID
func (s *BoardService) Get(ctx context.Context, userID, id int64) (database.Board, error) {
	a, err := s.guard.Authorize(ctx, userID, KindBoard, id)
	if err != nil {
		return database.Board{}, err
	}
	return a.Board, nil
}

// Create adds a board owned by userID
func (s *BoardService) Create(ctx context.Context, userID int64, title, description string) (database.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return database.Board{}, invalidf("title is required")
	}
	b := database.Board{UserID: userID, Title: title, Description: description}
	if err := s.data.CreateBoard(ctx, &b); err != nil {
		return database.Board{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventBoardCreated, Data: b})
	return b, nil
}

// Update ignores an empty title; a present description replaces the old one
// even when empty.
func (s *BoardService) Update(ctx context.Context, userID, id int64, patch BoardPatch) (database.Board, error) {
	a, err := s.guard.Authorize(ctx, userID, KindBoard, id)
	if err != nil {
		return database.Board{}, err
	}
	b := a.Board
	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != "" {
			b.Title = title
		}
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if err := s.data.UpdateBoard(ctx, &b); err != nil {
		return database.Board{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventBoardUpdated, Data: b})
	return b, nil
}

// SetFavorite marks the board as the user's only favorite, or unmarks it.
func (s *BoardService) SetFavorite(ctx context.Context, userID, id int64, favorite bool) (database.Board, error) {
	if _, err := s.guard.Authorize(ctx, userID, KindBoard, id); err != nil {
		return database.Board{}, err
	}
	if err := s.data.SetFavorite(ctx, userID, id, favorite); err != nil {
		return database.Board{}, err
	}
	b, err := s.data.GetBoard(ctx, id)
	if err != nil {
		return database.Board{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventBoardUpdated, Data: b})
	return b, nil
}

// Delete removes the board together with its columns and tasks.
func (s *BoardService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.guard.Authorize(ctx, userID, KindBoard, id); err != nil {
		return err
	}
	if err := s.data.DeleteBoard(ctx, id); err != nil {
		return err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventBoardDeleted, Data: deletedRef{ID: id}})
	return nil
}
