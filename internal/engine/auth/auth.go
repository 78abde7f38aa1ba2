package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

const PermissionAdmin = "admin"

// Service resolves users and roles from the store.
type Service struct {
	Repo repo.Repo
}

func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateAPIKey returns a new random key. Only its hash is stored.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "oua_" + hex.EncodeToString(buf), nil
}

// Authenticate checks a local password login.
func (s Service) Authenticate(ctx context.Context, userKey, password string) (domain.User, error) {
	u, err := s.Repo.GetUser(ctx, strings.TrimSpace(userKey))
	if errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Role returns the stored role of userKey. Unknown users are plain users.
func (s Service) Role(ctx context.Context, userKey string) (string, error) {
	u, err := s.Repo.GetUser(ctx, userKey)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s Service) RequireAdmin(ctx context.Context, userKey string) error {
	role, err := s.Role(ctx, userKey)
	if err != nil {
		return err
	}
	if role != domain.RoleAdmin {
		return ForbiddenError{Permission: PermissionAdmin}
	}
	return nil
}
