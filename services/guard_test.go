package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeResolvesChain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.register(t, "ana")
	b, c := env.tree(t, ana.ID)
	task, err := env.tasks.Create(ctx, ana.ID, c.ID, TaskInput{Title: "Buy milk"})
	require.NoError(t, err)

	guard := NewGuard(env.data)
	a, err := guard.Authorize(ctx, ana.ID, KindTask, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, a.Task.ID)
	assert.Equal(t, c.ID, a.Column.ID)
	assert.Equal(t, b.ID, a.Board.ID)

	a, err = guard.Authorize(ctx, ana.ID, KindColumn, c.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, a.Board.ID)
	assert.Zero(t, a.Task.ID)
}

func TestAuthorizeFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.register(t, "ana")
	bob := env.register(t, "bob")
	b, c := env.tree(t, ana.ID)
	task, err := env.tasks.Create(ctx, ana.ID, c.ID, TaskInput{Title: "Buy milk"})
	require.NoError(t, err)

	guard := NewGuard(env.data)
	tests := []struct {
		name string
		kind Kind
		id   int64
		user int64
		want error
	}{
		{"foreign board", KindBoard, b.ID, bob.ID, ErrForbidden},
		{"foreign column", KindColumn, c.ID, bob.ID, ErrForbidden},
		{"foreign task", KindTask, task.ID, bob.ID, ErrForbidden},
		{"missing board", KindBoard, 999, ana.ID, ErrNotFound},
		{"missing column", KindColumn, 999, ana.ID, ErrNotFound},
		{"missing task", KindTask, 999, ana.ID, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.Authorize(ctx, tt.user, tt.kind, tt.id)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
