package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/config"
	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	userID int64
	msg    WebSocketMessage
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(userID int64, msg WebSocketMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, msg: msg})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.msg.Type)
	}
	return out
}

type sentMail struct {
	to, link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, link: link})
	return nil
}

type fakeGoogle struct {
	identities map[string]GoogleIdentity
}

func (g fakeGoogle) Verify(_ context.Context, credential string) (GoogleIdentity, error) {
	id, ok := g.identities[credential]
	if !ok {
		return GoogleIdentity{}, ErrInvalidToken
	}
	return id, nil
}

type testEnv struct {
	data    *database.DataService
	pub     *recordingPublisher
	mailer  *fakeMailer
	google  fakeGoogle
	auth    *AuthService
	boards  *BoardService
	columns *ColumnService
	tasks   *TaskService
	users   *UserService
	avatars *AvatarStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.InitDB(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	avatars, err := NewAvatarStore(t.TempDir(), 1024)
	require.NoError(t, err)

	env := &testEnv{
		data:    database.NewDataService(db),
		pub:     &recordingPublisher{},
		mailer:  &fakeMailer{},
		google:  fakeGoogle{identities: map[string]GoogleIdentity{}},
		avatars: avatars,
	}
	logger := zap.NewNop()
	guard := NewGuard(env.data)
	env.auth = NewAuthService(env.data, config.AuthConfig{
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		ResetTTL:  time.Hour,
	}, "http://front.test/", env.mailer, env.google, logger)
	env.boards = NewBoardService(env.data, guard, env.pub)
	env.columns = NewColumnService(env.data, guard, env.pub)
	env.tasks = NewTaskService(env.data, guard, env.pub)
	env.users = NewUserService(env.data, avatars, logger)
	return env
}

func (e *testEnv) register(t *testing.T, name string) database.User {
	t.Helper()
	s, err := e.auth.Register(context.Background(), RegisterInput{
		Email:    name + "@example.com",
		Username: name,
		Password: "secret1",
	})
	require.NoError(t, err)
	return s.User
}

// tree creates a board with one column for the user.
func (e *testEnv) tree(t *testing.T, userID int64) (database.Board, database.Column) {
	t.Helper()
	ctx := context.Background()
	b, err := e.boards.Create(ctx, userID, "Home", "")
	require.NoError(t, err)
	c, err := e.columns.Create(ctx, userID, b.ID, "Todo")
	require.NoError(t, err)
	return b, c
}
