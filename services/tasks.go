package services

import (
	"context"
	"strings"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
)

// TaskInput is the data for a new task
type TaskInput struct {
	Title       string
	Description string
	Importance  database.Importance
	Order       *int
	DueDate     *time.Time
}

// TaskPatch holds the fields of a task update. Nil means absent, except for
// the due date where DueDateSet tells an explicit null from an absent field.
type TaskPatch struct {
	Title       *string
	Description *string
	Importance  *database.Importance
	ColumnID    *int64
	Order       *int
	DueDate     *time.Time
	DueDateSet  bool
}

// TaskService implements task operations
type TaskService struct {
	data  *database.DataService
	guard *Guard
	pub   Publisher
	now   func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(data *database.DataService, guard *Guard, pub Publisher) *TaskService {
	return &TaskService{data: data, guard: guard, pub: pub, now: time.Now}
}

// ListByColumn returns the column's tasks in order
func (s *TaskService) ListByColumn(ctx context.Context, userID, columnID int64) ([]database.Task, error) {
	if _, err := s.guard.Authorize(ctx, userID, KindColumn, columnID); err != nil {
		return nil, err
	}
	return s.data.TasksByColumn(ctx, columnID)
}

// Get returns a task the user owns through its board
func (s *TaskService) Get(ctx context.Context, userID, id int64) (database.Task, error) {
	a, err := s.guard.Authorize(ctx, userID, KindTask, id)
	if err != nil {
		return database.Task{}, err
	}
	return a.Task, nil
}

// Create adds a task to the column, at the end unless an order is given.
func (s *TaskService) Create(ctx context.Context, userID, columnID int64, in TaskInput) (database.Task, error) {
	if _, err := s.guard.Authorize(ctx, userID, KindColumn, columnID); err != nil {
		return database.Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return database.Task{}, invalidf("title is required")
	}
	if in.Importance == "" {
		in.Importance = database.ImportanceMedium
	}
	if !in.Importance.Valid() {
		return database.Task{}, invalidf("importance must be high, medium or low")
	}

	t := database.Task{
		ColumnID:    columnID,
		Title:       title,
		Description: in.Description,
		Importance:  in.Importance,
		DueDate:     in.DueDate,
	}
	if in.Order != nil {
		t.Order = *in.Order
	} else {
		n, err := s.data.CountTasks(ctx, columnID)
		if err != nil {
			return database.Task{}, err
		}
		t.Order = n
	}
	if err := s.data.CreateTask(ctx, &t); err != nil {
		return database.Task{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventTaskCreated, Data: t})
	return t, nil
}

// Update applies the present fields of patch. Moving the task to another
// column requires owning that column too; without an explicit order the task
// goes to the end of it.
func (s *TaskService) Update(ctx context.Context, userID, id int64, patch TaskPatch) (database.Task, error) {
	a, err := s.guard.Authorize(ctx, userID, KindTask, id)
	if err != nil {
		return database.Task{}, err
	}
	t := a.Task

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return database.Task{}, invalidf("title cannot be empty")
		}
		t.Title = title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Importance != nil {
		if !patch.Importance.Valid() {
			return database.Task{}, invalidf("importance must be high, medium or low")
		}
		t.Importance = *patch.Importance
	}
	if patch.DueDateSet {
		t.DueDate = patch.DueDate
	}

	moved := patch.ColumnID != nil && *patch.ColumnID != t.ColumnID
	if moved {
		if _, err := s.guard.Authorize(ctx, userID, KindColumn, *patch.ColumnID); err != nil {
			return database.Task{}, err
		}
		t.ColumnID = *patch.ColumnID
	}
	switch {
	case patch.Order != nil:
		t.Order = *patch.Order
	case moved:
		n, err := s.data.CountTasks(ctx, t.ColumnID)
		if err != nil {
			return database.Task{}, err
		}
		t.Order = n
	}

	if err := s.data.UpdateTask(ctx, &t); err != nil {
		return database.Task{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventTaskUpdated, Data: t})
	return t, nil
}

// SetCompleted stamps completedAt when completing and clears it otherwise.
// Completing an already completed task moves the stamp.
func (s *TaskService) SetCompleted(ctx context.Context, userID, id int64, completed bool) (database.Task, error) {
	a, err := s.guard.Authorize(ctx, userID, KindTask, id)
	if err != nil {
		return database.Task{}, err
	}
	var at *time.Time
	if completed {
		ts := s.now().UTC()
		at = &ts
	}
	if err := s.data.SetTaskCompleted(ctx, id, completed, at); err != nil {
		return database.Task{}, err
	}
	t := a.Task
	t.Completed = completed
	t.CompletedAt = at
	t.UpdatedAt = s.now().UTC()
	s.pub.Publish(userID, WebSocketMessage{Type: EventTaskUpdated, Data: t})
	return t, nil
}

// SuggestImportance rates the task by how close its due date is and stores
// the result next to the user's own importance, which it never touches.
func (s *TaskService) SuggestImportance(ctx context.Context, userID, id int64) (database.Task, error) {
	a, err := s.guard.Authorize(ctx, userID, KindTask, id)
	if err != nil {
		return database.Task{}, err
	}
	suggested := suggestImportance(a.Task.DueDate, s.now())
	if err := s.data.SetTaskAIImportance(ctx, id, suggested); err != nil {
		return database.Task{}, err
	}
	t, err := s.data.GetTask(ctx, id)
	if err != nil {
		return database.Task{}, err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventTaskUpdated, Data: t})
	return t, nil
}

func suggestImportance(due *time.Time, now time.Time) database.Importance {
	if due == nil {
		return database.ImportanceLow
	}
	left := due.Sub(now)
	switch {
	case left <= 24*time.Hour:
		return database.ImportanceHigh
	case left <= 7*24*time.Hour:
		return database.ImportanceMedium
	default:
		return database.ImportanceLow
	}
}

// Delete removes a task
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.guard.Authorize(ctx, userID, KindTask, id); err != nil {
		return err
	}
	if err := s.data.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.pub.Publish(userID, WebSocketMessage{Type: EventTaskDeleted, Data: deletedRef{ID: id}})
	return nil
}
