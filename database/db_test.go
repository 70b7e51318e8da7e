package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *DataService {
	t.Helper()
	db, err := InitDB(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDataService(db)
}

func createUser(t *testing.T, s *DataService, name string) User {
	t.Helper()
	u := User{Email: name + "@example.com", Username: name, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), &u))
	return u
}

func TestRebind(t *testing.T) {
	pg := &DB{Driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{Driver: DriverSQLite}
	assert.Equal(t, "SELECT ? ", lite.Rebind("SELECT ? "))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := InitDB(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	u := User{Email: "  Ana@Example.COM ", Username: "ana", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, &u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "light", u.Theme)

	byEmail, err := s.UserByLogin(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := s.UserByLogin(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.UserByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := User{Email: "ana@example.com", Username: "other"}
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), ErrConflict)

	other := createUser(t, s, "bob")
	other.Username = "ana"
	assert.ErrorIs(t, s.UpdateUserProfile(ctx, &other), ErrConflict)
}

func TestResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	u := createUser(t, s, "ana")

	expires := time.Now().Add(time.Hour)
	require.NoError(t, s.SetResetToken(ctx, u.ID, "tok", expires))

	got, err := s.UserByResetToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got.ResetExpires)
	assert.WithinDuration(t, expires, *got.ResetExpires, time.Second)

	require.NoError(t, s.SetPassword(ctx, u.ID, "newhash"))
	_, err = s.UserByResetToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
	assert.Nil(t, got.ResetToken)
}

func TestBoardsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	u := createUser(t, s, "ana")

	for _, title := range []string{"first", "second", "third"} {
		b := Board{UserID: u.ID, Title: title}
		require.NoError(t, s.CreateBoard(ctx, &b))
	}

	boards, err := s.ListBoards(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, boards, 3)
	assert.Equal(t, "third", boards[0].Title)
	assert.Equal(t, "first", boards[2].Title)

	empty, err := s.ListBoards(ctx, u.ID+100)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSetFavoriteIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	ana := createUser(t, s, "ana")
	bob := createUser(t, s, "bob")

	var ids []int64
	for _, title := range []string{"a", "b"} {
		b := Board{UserID: ana.ID, Title: title}
		require.NoError(t, s.CreateBoard(ctx, &b))
		ids = append(ids, b.ID)
	}
	bobs := Board{UserID: bob.ID, Title: "bob", Favorite: true}
	require.NoError(t, s.CreateBoard(ctx, &bobs))

	require.NoError(t, s.SetFavorite(ctx, ana.ID, ids[0], true))
	require.NoError(t, s.SetFavorite(ctx, ana.ID, ids[1], true))

	first, err := s.GetBoard(ctx, ids[0])
	require.NoError(t, err)
	second, err := s.GetBoard(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, first.Favorite)
	assert.True(t, second.Favorite)

	untouched, err := s.GetBoard(ctx, bobs.ID)
	require.NoError(t, err)
	assert.True(t, untouched.Favorite)

	require.NoError(t, s.SetFavorite(ctx, ana.ID, ids[1], false))
	second, err = s.GetBoard(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, second.Favorite)

	assert.ErrorIs(t, s.SetFavorite(ctx, ana.ID, bobs.ID, true), ErrNotFound)
}

type fixture struct {
	user   User
	board  Board
	column Column
	task   Task
}

func seed(t *testing.T, s *DataService, name string) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{user: createUser(t, s, name)}
	f.board = Board{UserID: f.user.ID, Title: "board"}
	require.NoError(t, s.CreateBoard(ctx, &f.board))
	f.column = Column{BoardID: f.board.ID, Title: "todo"}
	require.NoError(t, s.CreateColumn(ctx, &f.column))
	f.task = Task{ColumnID: f.column.ID, Title: "task", Importance: ImportanceMedium}
	require.NoError(t, s.CreateTask(ctx, &f.task))
	return f
}

func TestDeleteBoardCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	f := seed(t, s, "ana")
	keep := seed(t, s, "bob")

	require.NoError(t, s.DeleteBoard(ctx, f.board.ID))

	_, err := s.GetBoard(ctx, f.board.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetColumn(ctx, f.column.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTask(ctx, f.task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetTask(ctx, keep.task.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.DeleteBoard(ctx, f.board.ID), ErrNotFound)
}

func TestDeleteColumnCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	f := seed(t, s, "ana")

	require.NoError(t, s.DeleteColumn(ctx, f.column.ID))
	_, err := s.GetTask(ctx, f.task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetBoard(ctx, f.board.ID)
	assert.NoError(t, err)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	f := seed(t, s, "ana")

	require.NoError(t, s.DeleteUser(ctx, f.user.ID))
	_, err := s.UserByID(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetBoard(ctx, f.board.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTask(ctx, f.task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestColumnsAndTasksOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	f := seed(t, s, "ana")

	n, err := s.CountColumns(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	done := Column{BoardID: f.board.ID, Title: "done", Order: 0}
	require.NoError(t, s.CreateColumn(ctx, &done))
	f.column.Order = 5
	require.NoError(t, s.UpdateColumn(ctx, &f.column))

	cols, err := s.ColumnsByBoard(ctx, f.board.ID)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "done", cols[0].Title)
	assert.Equal(t, "todo", cols[1].Title)

	second := Task{ColumnID: f.column.ID, Title: "urgent", Importance: ImportanceHigh, Order: -1}
	require.NoError(t, s.CreateTask(ctx, &second))
	tasks, err := s.TasksByColumn(ctx, f.column.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "urgent", tasks[0].Title)
	assert.Equal(t, ImportanceHigh, tasks[0].Importance)
}

func TestTaskUpdateAndCompletion(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	f := seed(t, s, "ana")

	other := Column{BoardID: f.board.ID, Title: "done", Order: 1}
	require.NoError(t, s.CreateColumn(ctx, &other))

	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	f.task.ColumnID = other.ID
	f.task.DueDate = &due
	f.task.Importance = ImportanceLow
	require.NoError(t, s.UpdateTask(ctx, &f.task))

	got, err := s.GetTask(ctx, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ColumnID)
	assert.Equal(t, ImportanceLow, got.Importance)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))

	at := time.Now().UTC()
	require.NoError(t, s.SetTaskCompleted(ctx, f.task.ID, true, &at))
	got, err = s.GetTask(ctx, f.task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)

	require.NoError(t, s.SetTaskAIImportance(ctx, f.task.ID, ImportanceHigh))
	got, err = s.GetTask(ctx, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, ImportanceHigh, got.AIImportance)
	assert.True(t, got.Completed, "suggestion leaves completion alone")
	require.NotNil(t, got.CompletedAt)
	assert.ErrorIs(t, s.SetTaskAIImportance(ctx, 9999, ImportanceLow), ErrNotFound)

	require.NoError(t, s.SetTaskCompleted(ctx, f.task.ID, false, nil))
	got, err = s.GetTask(ctx, f.task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.DeleteTask(ctx, f.task.ID))
	assert.ErrorIs(t, s.DeleteTask(ctx, f.task.ID), ErrNotFound)
}
