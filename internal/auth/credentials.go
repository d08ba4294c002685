package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"hr-rag-assistant/utils"
)

// CredentialStore verifies a username/password pair and returns the token subject.
type CredentialStore interface {
	Verify(ctx context.Context, username, password string) (string, error)
}

// StaticCredentialStore holds the single administrator identity.
// The password is hashed once at construction and only the hash is retained.
type StaticCredentialStore struct {
	username     string
	passwordHash string
}

func NewStaticCredentialStore(username, password string, bcryptCost int) (*StaticCredentialStore, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("administrator username and password are required")
	}

	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, err
	}

	return &StaticCredentialStore{username: username, passwordHash: hash}, nil
}

func (s *StaticCredentialStore) Verify(_ context.Context, username, password string) (string, error) {
	// The hash comparison runs for unknown users too.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := utils.CheckPassword(password, s.passwordHash)
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return s.username, nil
}
