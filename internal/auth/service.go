package auth

import "context"

// Service gates corpus mutation: it checks credentials and issues/verifies session tokens.
type Service struct {
	credentials CredentialStore
	tokens      *TokenIssuer
}

func NewService(credentials CredentialStore, tokens *TokenIssuer) *Service {
	return &Service{credentials: credentials, tokens: tokens}
}

// Authenticate reports whether the pair matches the administrator identity.
func (s *Service) Authenticate(ctx context.Context, username, password string) bool {
	_, err := s.credentials.Verify(ctx, username, password)
	return err == nil
}

// Login verifies the credentials and issues a session token for the matching subject.
func (s *Service) Login(ctx context.Context, username, password string) (*SessionToken, error) {
	subject, err := s.credentials.Verify(ctx, username, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.tokens.Issue(subject)
}

func (s *Service) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}
