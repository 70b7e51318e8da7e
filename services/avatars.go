package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AvatarURLPrefix is where the router serves stored avatars.
const AvatarURLPrefix = "/uploads/avatars/"

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// AvatarStore keeps avatar images on local disk.
type AvatarStore struct {
	dir      string
	maxBytes int64
}

// NewAvatarStore creates the avatars directory under uploadDir
func NewAvatarStore(uploadDir string, maxBytes int64) (*AvatarStore, error) {
	dir := filepath.Join(uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	return &AvatarStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir is the directory the avatars are written to.
func (s *AvatarStore) Dir() string { return s.dir }

// MaxBytes is the largest avatar Save accepts
func (s *AvatarStore) MaxBytes() int64 { return s.maxBytes }

// Save sniffs the image type, writes it under a fresh name and returns the
// URL path it is served at. Only jpeg and png are accepted.
func (s *AvatarStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read avatar: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", invalidf("avatar must be at most %d bytes", s.maxBytes)
	}
	if len(data) == 0 {
		return "", invalidf("avatar is empty")
	}
	ext, ok := avatarExtensions[http.DetectContentType(data)]
	if !ok {
		return "", invalidf("avatar must be a jpeg or png image")
	}

	name := uuid.NewString() + ext
	if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return "", err
	}
	return AvatarURLPrefix + name, nil
}

// Remove deletes a file previously returned by Save. References that do not
// point into the store are ignored.
func (s *AvatarStore) Remove(ref string) error {
	if !strings.HasPrefix(ref, AvatarURLPrefix) {
		return nil
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name != strings.TrimPrefix(ref, AvatarURLPrefix) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove avatar: %w", err)
	}
	return nil
}

func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".avatar-*")
	if err != nil {
		return fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}
	return nil
}
