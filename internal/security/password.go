package security

import (
	"crypto/subtle"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AdminAuthenticator checks the single configured admin account and issues session tokens.
type AdminAuthenticator struct {
	username     string
	passwordHash string
	tokens       *TokenManager
}

func NewAdminAuthenticator(username, passwordHash string, tokens *TokenManager) *AdminAuthenticator {
	return &AdminAuthenticator{username: username, passwordHash: passwordHash, tokens: tokens}
}

func (a *AdminAuthenticator) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := CheckPassword(a.passwordHash, password)
	if !userOK || !passOK {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.tokens.Issue(username)
}
