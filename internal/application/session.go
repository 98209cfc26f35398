package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/mlevasseur/lessonplan-cli/internal/ports"
)

// SessionService is the single source of truth for who is signed in. It
// starts unknown and settles to authenticated or anonymous; it never stays
// unknown once Resume or Login has run.
type SessionService struct {
	api  ports.AuthAPI
	cred ports.CredentialCache

	mu      sync.Mutex
	session domain.Session
}

func NewSessionService(api ports.AuthAPI, cred ports.CredentialCache) *SessionService {
	return &SessionService{
		api:     api,
		cred:    cred,
		session: domain.Session{State: domain.SessionUnknown},
	}
}

func (s *SessionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Resume validates a persisted credential, if any. Any failure clears the
// credential and settles to anonymous rather than leaving the session
// unknown indefinitely.
func (s *SessionService) Resume(ctx context.Context) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.State == domain.SessionAuthenticated {
		return s.session
	}

	if !s.cred.HasCredential() {
		s.session = domain.Session{State: domain.SessionAnonymous}
		return s.session
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		// A 401 already cleared the credential inside the transport
		// client; clear again for every other failure so the session
		// and the credential settle together.
		_ = s.cred.ClearCredential(ctx)
		s.session = domain.Session{State: domain.SessionAnonymous}
		return s.session
	}

	s.session = domain.Session{State: domain.SessionAuthenticated, User: &user}
	return s.session
}

// Login exchanges the external Google credential for a bearer token, then
// resolves the identity behind it. Existing session state is untouched
// until both steps succeed, so a failed re-login cannot corrupt a live
// session.
func (s *SessionService) Login(ctx context.Context, googleToken string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.api.ExchangeGoogleToken(ctx, googleToken); err != nil {
		return s.session, fmt.Errorf("exchange google credential: %w", err)
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		_ = s.cred.ClearCredential(ctx)
		s.session = domain.Session{State: domain.SessionAnonymous}
		return s.session, fmt.Errorf("resolve identity: %w", err)
	}

	s.session = domain.Session{State: domain.SessionAuthenticated, User: &user}
	return s.session, nil
}

// Logout notifies the remote API best-effort, then unconditionally clears
// local state. Leaving must always succeed locally, so remote and local
// failures are absorbed.
func (s *SessionService) Logout(ctx context.Context) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.api.Logout(ctx)
	_ = s.cred.ClearCredential(ctx)

	s.session = domain.Session{State: domain.SessionAnonymous}
	return s.session
}
