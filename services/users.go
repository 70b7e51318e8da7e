package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
	"go.uber.org/zap"
)

// ProfilePatch holds the editable profile fields. Nil means absent.
type ProfilePatch struct {
	Username     *string
	FirstName    *string
	LastName     *string
	BirthDate    *time.Time
	BirthDateSet bool
	Gender       *string
	Theme        *string
}

// UserService manages the authenticated user's account
type UserService struct {
	data    *database.DataService
	avatars *AvatarStore
	log     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(data *database.DataService, avatars *AvatarStore, logger *zap.Logger) *UserService {
	return &UserService{data: data, avatars: avatars, log: logger}
}

// Me returns the user's profile
func (s *UserService) Me(ctx context.Context, userID int64) (database.User, error) {
	return s.data.UserByID(ctx, userID)
}

// UpdateProfile applies patch. A taken username is a conflict.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) (database.User, error) {
	u, err := s.data.UserByID(ctx, userID)
	if err != nil {
		return database.User{}, err
	}

	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return database.User{}, invalidf("username cannot be empty")
		}
		u.Username = username
	}
	if patch.FirstName != nil {
		u.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.BirthDateSet {
		u.BirthDate = patch.BirthDate
	}
	if patch.Gender != nil {
		if !validGender(*patch.Gender) {
			return database.User{}, invalidf("gender must be male, female or other")
		}
		u.Gender = *patch.Gender
	}
	if patch.Theme != nil {
		if *patch.Theme != "light" && *patch.Theme != "dark" {
			return database.User{}, invalidf("theme must be light or dark")
		}
		u.Theme = *patch.Theme
	}

	if err := s.data.UpdateUserProfile(ctx, &u); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return database.User{}, conflictf("username already in use")
		}
		return database.User{}, err
	}
	return u, nil
}

// ChangePassword requires the current password unless the account was
// created through Google and never had one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.data.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		if current == "" {
			return invalidf("currentPassword is required")
		}
		if !checkPassword(u.PasswordHash, current) {
			return invalidf("current password is incorrect")
		}
	}
	if len(next) < minPasswordLength {
		return invalidf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	return s.data.SetPassword(ctx, userID, hash)
}

// SetAvatar stores a new avatar and removes the one it replaces.
func (s *UserService) SetAvatar(ctx context.Context, userID int64, r io.Reader) (database.User, error) {
	u, err := s.data.UserByID(ctx, userID)
	if err != nil {
		return database.User{}, err
	}
	ref, err := s.avatars.Save(r)
	if err != nil {
		return database.User{}, err
	}
	if err := s.data.SetAvatar(ctx, userID, ref); err != nil {
		s.removeAvatar(ref)
		return database.User{}, err
	}
	s.removeAvatar(u.Avatar)
	u.Avatar = ref
	return u, nil
}

// Delete removes the account, everything it owns and its avatar file.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	u, err := s.data.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.data.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.removeAvatar(u.Avatar)
	s.log.Info("user deleted", zap.Int64("user", userID))
	return nil
}

func (s *UserService) removeAvatar(ref string) {
	if ref == "" {
		return
	}
	if err := s.avatars.Remove(ref); err != nil {
		s.log.Warn("failed to remove avatar", zap.String("avatar", ref), zap.Error(err))
	}
}

func validGender(g string) bool {
	switch g {
	case "", "male", "female", "other":
		return true
	}
	return false
}
