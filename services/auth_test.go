package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	s, err := env.auth.Register(ctx, RegisterInput{Email: "Ana@Example.com", Username: "ana", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "ana@example.com", s.User.Email)

	userID, err := env.auth.VerifyJWT(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, userID)

	for _, identifier := range []string{"ana@example.com", "ana"} {
		got, err := env.auth.Login(ctx, identifier, "secret1")
		require.NoError(t, err, identifier)
		assert.Equal(t, s.User.ID, got.User.ID)
	}

	_, err = env.auth.Login(ctx, "ana", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Register(ctx, RegisterInput{Email: "ana@example.com", Username: "ana2", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Username: "ana", Password: "secret1"}},
		{"bad email", RegisterInput{Email: "ana", Username: "ana", Password: "secret1"}},
		{"missing username", RegisterInput{Email: "ana@example.com", Password: "secret1"}},
		{"short password", RegisterInput{Email: "ana@example.com", Username: "ana", Password: "12345"}},
		{"bad gender", RegisterInput{Email: "ana@example.com", Username: "ana", Password: "secret1", Gender: "robot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestVerifyJWTRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	other := NewAuthService(env.data, config.AuthConfig{JWTSecret: "other-secret", JWTTTL: time.Hour}, "", env.mailer, env.google, zap.NewNop())
	foreign, err := other.CreateJWT(1)
	require.NoError(t, err)
	_, err = env.auth.VerifyJWT(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewAuthService(env.data, config.AuthConfig{JWTSecret: "test-secret", JWTTTL: -time.Minute}, "", env.mailer, env.google, zap.NewNop())
	stale, err := expired.CreateJWT(1)
	require.NoError(t, err)
	_, err = env.auth.VerifyJWT(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = env.auth.VerifyJWT(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.auth.VerifyJWT("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRequiresExistingAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.register(t, "ana")

	token, err := env.auth.CreateJWT(ana.ID)
	require.NoError(t, err)
	id, err := env.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, id)

	require.NoError(t, env.users.Delete(ctx, ana.ID))
	_, err = env.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.register(t, "ana")

	require.NoError(t, env.auth.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, env.mailer.sent)

	require.NoError(t, env.auth.ForgotPassword(ctx, "ANA@example.com"))
	require.Len(t, env.mailer.sent, 1)
	mail := env.mailer.sent[0]
	assert.Equal(t, ana.Email, mail.to)
	require.True(t, strings.HasPrefix(mail.link, "http://front.test/reset-password/"), mail.link)
	token := strings.TrimPrefix(mail.link, "http://front.test/reset-password/")

	var verr *ValidationError
	assert.ErrorAs(t, env.auth.ResetPassword(ctx, token, "123"), &verr)
	assert.ErrorAs(t, env.auth.ResetPassword(ctx, "not-a-token", "newsecret"), &verr)

	require.NoError(t, env.auth.ResetPassword(ctx, token, "newsecret"))
	_, err := env.auth.Login(ctx, "ana", "newsecret")
	require.NoError(t, err)

	assert.ErrorAs(t, env.auth.ResetPassword(ctx, token, "another1"), &verr, "tokens are single use")
}

func TestPasswordResetExpired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.register(t, "ana")

	require.NoError(t, env.data.SetResetToken(ctx, ana.ID, "stale", time.Now().Add(-time.Minute)))
	var verr *ValidationError
	assert.ErrorAs(t, env.auth.ResetPassword(ctx, "stale", "newsecret"), &verr)
}

func TestGoogleLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.register(t, "ana")

	env.google.identities["ana-cred"] = GoogleIdentity{Subject: "g-ana", Email: "ana@example.com"}
	env.google.identities["new-cred"] = GoogleIdentity{Subject: "g-new", Email: "ana@elsewhere.com", GivenName: "Ana", FamilyName: "B"}

	linked, err := env.auth.GoogleLogin(ctx, "ana-cred")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, linked.User.ID, "existing email is linked")

	again, err := env.auth.GoogleLogin(ctx, "ana-cred")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, again.User.ID)

	created, err := env.auth.GoogleLogin(ctx, "new-cred")
	require.NoError(t, err)
	assert.NotEqual(t, ana.ID, created.User.ID)
	assert.Equal(t, "Ana", created.User.FirstName)
	assert.True(t, strings.HasPrefix(created.User.Username, "ana-"), "taken username gets a suffix: %s", created.User.Username)
	assert.False(t, created.User.HasPassword())

	_, err = env.auth.GoogleLogin(ctx, "forged")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, created.User.Username, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
