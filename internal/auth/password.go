package auth

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = bcrypt.DefaultCost

var (
	// ErrInvalidCredentials is returned for a wrong dashboard password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAdminDisabled is returned when no admin password is configured.
	ErrAdminDisabled = errors.New("admin login is not configured")
)

// HashPassword 对明文密码进行哈希处理
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证密码是否与存储的哈希值匹配
func VerifyPassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

// Admin authenticates the single dashboard operator.
type Admin struct {
	hash    string
	manager *Manager
}

// NewAdmin prefers a pre-computed bcrypt hash and otherwise hashes the plain password once.
// With neither configured every login fails with ErrAdminDisabled.
func NewAdmin(passwordHash, password string, manager *Manager) (*Admin, error) {
	hash := strings.TrimSpace(passwordHash)
	if hash == "" && strings.TrimSpace(password) != "" {
		hashed, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		hash = hashed
	}
	return &Admin{hash: hash, manager: manager}, nil
}

// Enabled reports whether a password is configured.
func (a *Admin) Enabled() bool {
	return a != nil && a.hash != ""
}

// Login checks the password and issues an admin token.
func (a *Admin) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if err := VerifyPassword(a.hash, password); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.manager.GenerateToken(RoleAdmin, RoleAdmin)
}

// Manager returns the token manager used to validate bearer tokens.
func (a *Admin) Manager() *Manager {
	if a == nil {
		return nil
	}
	return a.manager
}
