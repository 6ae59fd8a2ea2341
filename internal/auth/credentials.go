package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any username/password mismatch.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Credentials is the single administrator identity allowed to log in.
// When PasswordHash is set it takes precedence over Password.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Verify checks username and password with exact, constant-time comparison.
func (c Credentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if hash := strings.TrimSpace(c.PasswordHash); hash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	if !userOK || !passOK || c.Username == "" {
		return ErrInvalidCredentials
	}
	return nil
}
