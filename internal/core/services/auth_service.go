/*
 * file: auth_service.go
 * package: services
 * description:
 *     C5: sign-up, sign-in, sign-out and status queries. Maintains the
 *     bijection between a live connection and the user id it has
 *     authenticated as, which the presence and matchmaker services consult
 *     to attribute actions to a person rather than a socket.
 */

package services

import (
	"sync"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/core/ports"
	"github.com/dvdyellow/server/internal/metrics"
	"github.com/dvdyellow/server/internal/protocol"
)

// AuthService owns the connection<->user bijection (I2: at most one user
// per connection, at most one connection per user).
type AuthService struct {
	repo ports.Repository

	mu        sync.Mutex
	byConn    map[domain.ConnID]uint
	byUser    map[uint]domain.ConnID
	usernames map[uint]string
}

// NewAuthService constructs an AuthService backed by repo.
func NewAuthService(repo ports.Repository) *AuthService {
	return &AuthService{
		repo:      repo,
		byConn:    make(map[domain.ConnID]uint),
		byUser:    make(map[uint]domain.ConnID),
		usernames: make(map[uint]string),
	}
}

// SignUp implements sign-up: creates a new user with the given name and
// plaintext password (the Open Question on hashing is pinned to "no
// extension" in SPEC_FULL.md §4) and signs the connection in as them.
func (s *AuthService) SignUp(conn domain.ConnID, username, password string) (protocol.Fields, error) {
	if username == "" {
		return nil, protocol.NewAppError("NO_USERNAME")
	}
	if password == "" {
		return nil, protocol.NewAppError("NO_PASSWORD")
	}
	if _, err := s.repo.FindUserByName(username); err == nil {
		metrics.AuthFailures.Inc()
		return nil, protocol.NewAppError("LOGIN_TAKEN")
	}

	user := &domain.User{Name: username, Password: password}
	if err := s.repo.InsertUser(user); err != nil {
		return nil, protocol.NewAppError("STORAGE_ERROR")
	}

	if err := s.bind(conn, user); err != nil {
		return nil, err
	}
	return protocol.OK(protocol.Fields{"user-id": user.ID}), nil
}

// SignIn implements sign-in.
func (s *AuthService) SignIn(conn domain.ConnID, username, password string) (protocol.Fields, error) {
	if username == "" {
		return nil, protocol.NewAppError("NO_USERNAME")
	}
	if password == "" {
		return nil, protocol.NewAppError("NO_PASSWORD")
	}
	user, err := s.repo.FindUserByName(username)
	if err != nil {
		metrics.AuthFailures.Inc()
		return nil, protocol.NewAppError("NO_SUCH_USER")
	}
	if user.Password != password {
		metrics.AuthFailures.Inc()
		return nil, protocol.NewAppError("WRONG_PASSWORD")
	}
	if err := s.bind(conn, user); err != nil {
		return nil, err
	}
	return protocol.OK(protocol.Fields{"user-id": user.ID}), nil
}

// bind attaches conn to user, enforcing I2: a connection already signed in
// must sign out first, and a user already connected elsewhere cannot be
// signed in twice.
func (s *AuthService) bind(conn domain.ConnID, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.byConn[conn]; already {
		return protocol.NewAppError("ALREADY_LOGGED_IN")
	}
	if _, taken := s.byUser[user.ID]; taken {
		return protocol.NewAppError("ALREADY_LOGGED_IN")
	}
	s.byConn[conn] = user.ID
	s.byUser[user.ID] = conn
	s.usernames[user.ID] = user.Name
	return nil
}

// SignOut implements sign-out.
func (s *AuthService) SignOut(conn domain.ConnID) (protocol.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byConn[conn]
	if !ok {
		return nil, protocol.NewAppError("NOT_SIGNED_IN")
	}
	delete(s.byConn, conn)
	delete(s.byUser, userID)
	return protocol.OK(nil), nil
}

// GetStatus implements get-status: whether conn is currently signed in, and
// as whom.
func (s *AuthService) GetStatus(conn domain.ConnID) protocol.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byConn[conn]
	if !ok {
		return protocol.OK(protocol.Fields{"authenticated": false})
	}
	return protocol.OK(protocol.Fields{
		"authenticated": true,
		"id":            userID,
		"username":      s.usernames[userID],
	})
}

// GetName implements get-name: resolves a user id to its username, usable
// whether or not that user currently has a connection.
func (s *AuthService) GetName(userID uint) (protocol.Fields, error) {
	s.mu.Lock()
	name, cached := s.usernames[userID]
	s.mu.Unlock()
	if cached {
		return protocol.OK(protocol.Fields{"name": name}), nil
	}

	user, err := s.repo.FindUserByID(userID)
	if err != nil {
		return nil, protocol.NewAppError("NO_SUCH_USER")
	}
	return protocol.OK(protocol.Fields{"name": user.Name}), nil
}

// UserFor resolves the authenticated user id for conn, or ok=false if it is
// not currently signed in. Consulted by every module gated on C5 state.
func (s *AuthService) UserFor(conn domain.ConnID) (uint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byConn[conn]
	return id, ok
}

// HandleDisconnect drops conn's auth binding, if any, freeing its user id to
// sign in again from a new connection. Must run after the matchmaker has
// been given the chance to treat conn's games as abandoned (§7).
func (s *AuthService) HandleDisconnect(conn domain.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID, ok := s.byConn[conn]; ok {
		delete(s.byConn, conn)
		delete(s.byUser, userID)
	}
}
