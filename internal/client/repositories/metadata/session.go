package metadata

import "context"

// SessionStore persists the refresh token and the last email on top of a
// Repository.
type SessionStore struct {
	repo Repository
}

func NewSessionStore(repo Repository) *SessionStore {
	return &SessionStore{repo: repo}
}

// LoadRefreshToken returns "" when no token is stored.
func (s *SessionStore) LoadRefreshToken(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SessionStore) SaveRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return s.repo.Delete(ctx, KeyRefreshToken)
	}
	return s.repo.Set(ctx, KeyRefreshToken, []byte(token))
}

func (s *SessionStore) ClearRefreshToken(ctx context.Context) error {
	return s.repo.Delete(ctx, KeyRefreshToken)
}

func (s *SessionStore) LastEmail(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, KeyLastEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SessionStore) SaveLastEmail(ctx context.Context, email string) error {
	return s.repo.Set(ctx, KeyLastEmail, []byte(email))
}
