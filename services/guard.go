package services

import (
	"context"
	"fmt"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
)

// Kind selects which entity Authorize resolves.
type Kind int

const (
	KindBoard Kind = iota
	KindColumn
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindBoard:
		return "board"
	case KindColumn:
		return "column"
	case KindTask:
		return "task"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Access is the ownership chain resolved by Authorize. Column and Task are
// only filled in for the kinds that reach them.
type Access struct {
	Board  database.Board
	Column database.Column
	Task   database.Task
}

// Guard checks that a user owns a board, column or task.
type Guard struct {
	data *database.DataService
}

// NewGuard creates a new ownership guard
func NewGuard(data *database.DataService) *Guard {
	return &Guard{data: data}
}

// Authorize walks Task -> Column -> Board and fails with ErrNotFound when a
// link is missing or ErrForbidden when the board belongs to someone else.
func (g *Guard) Authorize(ctx context.Context, userID int64, kind Kind, id int64) (Access, error) {
	var a Access
	boardID := id

	switch kind {
	case KindTask:
		task, err := g.data.GetTask(ctx, id)
		if err != nil {
			return Access{}, err
		}
		a.Task = task
		id = task.ColumnID
		fallthrough
	case KindColumn:
		column, err := g.data.GetColumn(ctx, id)
		if err != nil {
			return Access{}, err
		}
		a.Column = column
		boardID = column.BoardID
	case KindBoard:
	default:
		return Access{}, fmt.Errorf("unknown entity kind %s", kind)
	}

	board, err := g.data.GetBoard(ctx, boardID)
	if err != nil {
		return Access{}, err
	}
	if board.UserID != userID {
		return Access{}, ErrForbidden
	}
	a.Board = board
	return a, nil
}
