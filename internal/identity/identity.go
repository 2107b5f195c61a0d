// Package identity tells the forum who is signed in
package identity

import (
	"sync"

	"forumhub/pkg/models"
)

// Provider returns the signed-in user, or false when nobody is signed in
type Provider interface {
	CurrentUser() (models.AuthUser, bool)
}

// Session is the client-side identity: set after login, cleared on logout
type Session struct {
	mu       sync.RWMutex
	user     models.AuthUser
	token    string
	signedIn bool
}

// NewSession creates a signed-out session
func NewSession() *Session {
	return &Session{}
}

// Restore creates a session from persisted credentials; an empty token or
// user id yields a signed-out session
func Restore(user models.AuthUser, token string) *Session {
	s := &Session{}
	if token != "" && user.ID != "" {
		s.SignIn(user, token)
	}
	return s
}

// SignIn records the user and bearer token returned by login
func (s *Session) SignIn(user models.AuthUser, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
	s.signedIn = true
}

// SignOut forgets the user and token
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = models.AuthUser{}
	s.token = ""
	s.signedIn = false
}

// Token returns the bearer token, empty when signed out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) CurrentUser() (models.AuthUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.signedIn
}

// Static always reports the same user; the zero value is signed out
type Static struct {
	User     models.AuthUser
	SignedIn bool
}

// As returns a Static provider signed in as the given user
func As(id, email string) Static {
	return Static{User: models.AuthUser{ID: id, Email: email}, SignedIn: true}
}

func (s Static) CurrentUser() (models.AuthUser, bool) {
	return s.User, s.SignedIn
}
