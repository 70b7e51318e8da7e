package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/config"
	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Session is what a successful sign-in returns to the client.
type Session struct {
	Token string        `json:"token"`
	User  database.User `json:"user"`
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	BirthDate *time.Time
	Gender    string
}

// AuthService handles sign-in, sessions and password resets
type AuthService struct {
	data        *database.DataService
	jwtSecret   []byte
	jwtTTL      time.Duration
	resetTTL    time.Duration
	frontendURL string
	mailer      Mailer
	google      GoogleVerifier
	log         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(data *database.DataService, cfg config.AuthConfig, frontendURL string, mailer Mailer, google GoogleVerifier, logger *zap.Logger) *AuthService {
	return &AuthService{
		data:        data,
		jwtSecret:   []byte(cfg.JWTSecret),
		jwtTTL:      cfg.JWTTTL,
		resetTTL:    cfg.ResetTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		mailer:      mailer,
		google:      google,
		log:         logger,
	}
}

// Register creates a password account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return Session{}, invalidf("a valid email is required")
	}
	if in.Username == "" {
		return Session{}, invalidf("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return Session{}, invalidf("password must be at least %d characters", minPasswordLength)
	}
	if !validGender(in.Gender) {
		return Session{}, invalidf("gender must be male, female or other")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	u := database.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		BirthDate:    in.BirthDate,
		Gender:       in.Gender,
	}
	if err := s.data.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return Session{}, conflictf("email or username already in use")
		}
		return Session{}, err
	}
	s.log.Info("user registered", zap.Int64("user", u.ID))
	return s.session(u)
}

// Login accepts either the email or the username as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, invalidf("identifier and password are required")
	}

	u, err := s.data.UserByLogin(ctx, identifier)
	if errors.Is(err, database.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !u.HasPassword() || !checkPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

// GoogleLogin signs in with a Google ID token. The account is found by its
// Google id, then by email (linking it), and is created otherwise.
func (s *AuthService) GoogleLogin(ctx context.Context, credential string) (Session, error) {
	if credential == "" {
		return Session{}, invalidf("credential is required")
	}
	identity, err := s.google.Verify(ctx, credential)
	if errors.Is(err, ErrInvalidToken) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to verify google credential: %w", err)
	}

	u, err := s.data.UserByGoogleID(ctx, identity.Subject)
	if err == nil {
		return s.session(u)
	}
	if !errors.Is(err, database.ErrNotFound) {
		return Session{}, err
	}

	u, err = s.data.UserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if err := s.data.LinkGoogle(ctx, u.ID, identity.Subject); err != nil {
			return Session{}, err
		}
		u.GoogleID = &identity.Subject
		return s.session(u)
	case !errors.Is(err, database.ErrNotFound):
		return Session{}, err
	}

	u, err = s.createGoogleUser(ctx, identity)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("user registered with google", zap.Int64("user", u.ID))
	return s.session(u)
}

func (s *AuthService) createGoogleUser(ctx context.Context, identity GoogleIdentity) (database.User, error) {
	base, _, _ := strings.Cut(identity.Email, "@")
	if base == "" {
		base = "user"
	}
	subject := identity.Subject
	username := base
	for attempt := 0; attempt < 5; attempt++ {
		u := database.User{
			Email:     identity.Email,
			Username:  username,
			FirstName: identity.GivenName,
			LastName:  identity.FamilyName,
			GoogleID:  &subject,
		}
		err := s.data.CreateUser(ctx, &u)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return database.User{}, err
		}
		username = base + "-" + uuid.NewString()[:6]
	}
	return database.User{}, conflictf("could not pick a free username for %s", identity.Email)
}

// ForgotPassword mails a reset link when email belongs to an account. It
// reports success either way so callers can't probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return invalidf("email is required")
	}
	u, err := s.data.UserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.data.SetResetToken(ctx, u.ID, token, time.Now().Add(s.resetTTL)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	if err := s.mailer.SendPasswordReset(ctx, u.Email, link); err != nil {
		s.log.Warn("failed to send password reset email", zap.Int64("user", u.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password using a token from ForgotPassword.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLength {
		return invalidf("password must be at least %d characters", minPasswordLength)
	}
	u, err := s.data.UserByResetToken(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		return invalidf("invalid or expired reset token")
	}
	if err != nil {
		return err
	}
	if u.ResetExpires == nil || time.Now().After(*u.ResetExpires) {
		return invalidf("invalid or expired reset token")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.data.SetPassword(ctx, u.ID, hash)
}

func (s *AuthService) session(u database.User) (Session, error) {
	token, err := s.CreateJWT(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}

// CreateJWT generates a JWT token for a user
func (s *AuthService) CreateJWT(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Authenticate verifies tokenString and checks that its account still exists.
// Tokens of deleted accounts fail with ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (int64, error) {
	userID, err := s.VerifyJWT(tokenString)
	if err != nil {
		return 0, err
	}
	if _, err := s.data.UserByID(ctx, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, fmt.Errorf("%w: account no longer exists", ErrInvalidToken)
		}
		return 0, err
	}
	return userID, nil
}

// VerifyJWT verifies a JWT token and returns the user id it was issued for
func (s *AuthService) VerifyJWT(tokenString string) (int64, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: bad subject claim", ErrInvalidToken)
	}
	return userID, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Helper to generate a secure random token
func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
