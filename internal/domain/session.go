package domain

import "time"

type UserID string

type User struct {
	ID        UserID
	Email     string
	Name      string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SessionState string

const (
	// SessionUnknown is the startup state while a persisted credential is
	// still being validated against the remote API.
	SessionUnknown       SessionState = "unknown"
	SessionAuthenticated SessionState = "authenticated"
	SessionAnonymous     SessionState = "anonymous"
)

// Session is the client's record of who is signed in. A nil User is only
// valid in the unknown and anonymous states.
type Session struct {
	State SessionState
	User  *User
}

func (s Session) Authenticated() bool {
	return s.State == SessionAuthenticated && s.User != nil
}
