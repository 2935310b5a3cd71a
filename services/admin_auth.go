package services

import (
	"crypto/subtle"

	apperrors "tiffin-service/errors"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuthService checks the single administrator credential pair. A bcrypt
// hash is preferred; a plain password from the environment is compared in
// constant time as the fallback.
type AdminAuthService struct {
	username     string
	password     string
	passwordHash string
	tokens       *TokenService
}

func NewAdminAuthService(username, password, passwordHash string, tokens *TokenService) *AdminAuthService {
	return &AdminAuthService{
		username:     username,
		password:     password,
		passwordHash: passwordHash,
		tokens:       tokens,
	}
}

// Login validates the credentials and issues an admin session token.
func (s *AdminAuthService) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	var passOK bool
	if s.passwordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}

	if !userOK || !passOK {
		return "", apperrors.ErrInvalidCredentials
	}
	return s.tokens.GenerateToken(username, "admin")
}
