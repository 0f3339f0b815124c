/*
 * file: presence_service.go
 * package: services
 * description:
 *     C6: the waiting room. Tracks a free-text status per signed-in user and
 *     the set of connections listening for changes, and broadcasts every
 *     mutation to all listeners in the order it was applied (§4.6, §5).
 */

package services

import (
	"sort"
	"sync"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/core/ports"
	"github.com/dvdyellow/server/internal/protocol"
)

// PresenceService implements start/stop-listening, get/set-status,
// get-waiting-room and get-ranking.
type PresenceService struct {
	repo     ports.Repository
	auth     *AuthService
	notifier Notifier

	// mu is the presence lock (§5): held across both the status-map
	// mutation and the broadcast, so listeners observe one consistent
	// total order.
	mu        sync.Mutex
	status    map[uint]string
	listeners map[domain.ConnID]struct{}
}

// NewPresenceService constructs a PresenceService backed by repo and auth,
// pushing notifications through notifier.
func NewPresenceService(repo ports.Repository, auth *AuthService, notifier Notifier) *PresenceService {
	return &PresenceService{
		repo:      repo,
		auth:      auth,
		notifier:  notifier,
		status:    make(map[uint]string),
		listeners: make(map[domain.ConnID]struct{}),
	}
}

// StartListening implements start-listening.
func (p *PresenceService) StartListening(conn domain.ConnID) (protocol.Fields, error) {
	if _, signedIn := p.auth.UserFor(conn); !signedIn {
		return nil, protocol.NewAppError("NOT_SIGNED_IN")
	}
	p.mu.Lock()
	p.listeners[conn] = struct{}{}
	p.mu.Unlock()
	return protocol.OK(nil), nil
}

// StopListening implements stop-listening.
func (p *PresenceService) StopListening(conn domain.ConnID) (protocol.Fields, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, present := p.listeners[conn]; !present {
		return nil, protocol.NewAppError("NOT_LISTENING")
	}
	delete(p.listeners, conn)
	return protocol.OK(nil), nil
}

// GetStatus implements get-status {id}.
func (p *PresenceService) GetStatus(userID uint) protocol.Fields {
	p.mu.Lock()
	defer p.mu.Unlock()
	status, ok := p.status[userID]
	if !ok {
		status = "disconnected"
	}
	return protocol.OK(protocol.Fields{"user": userID, "status": status})
}

// SetStatus implements set-status {new-status, uid?}. uid, if supplied,
// must match the caller's own id. Broadcasts the change to every listener,
// including the caller, before returning.
func (p *PresenceService) SetStatus(conn domain.ConnID, newStatus string, uid *uint) (protocol.Fields, error) {
	userID, signedIn := p.auth.UserFor(conn)
	if !signedIn {
		return nil, protocol.NewAppError("NOT_SIGNED_IN")
	}
	if uid != nil && *uid != userID {
		return nil, protocol.NewAppError("INVALID_USER")
	}

	// The mutation and the broadcast must happen as one atomic step (§5):
	// holding mu across both means two overlapping SetStatus calls can
	// never have their pushes observed in an order different from the
	// order their mutations were serialized in.
	p.mu.Lock()
	defer p.mu.Unlock()

	if newStatus == "disconnected" {
		delete(p.status, userID)
	} else {
		p.status[userID] = newStatus
	}

	notification := protocol.Fields{
		"notification": "status-change",
		"user":         userID,
		"status":       newStatus,
	}
	for c := range p.listeners {
		p.notifier.Push(c, protocol.ChannelPresenceStatus, notification)
	}

	return protocol.OK(nil), nil
}

// GetWaitingRoom implements get-waiting-room: a snapshot of the status map.
func (p *PresenceService) GetWaitingRoom() protocol.Fields {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make(map[uint]string, len(p.status))
	for id, status := range p.status {
		snapshot[id] = status
	}
	return protocol.OK(protocol.Fields{"waiting-room": snapshot})
}

// GetRanking implements get-ranking: users ordered by rating descending,
// with name and points (total finished-game count, per the pinned "use the
// collection's own count operation" decision).
func (p *PresenceService) GetRanking(limit int) (protocol.Fields, error) {
	users, err := p.repo.ListUsersOrderedByRatingDesc(limit)
	if err != nil {
		return nil, protocol.NewAppError("STORAGE_ERROR")
	}

	type entry struct {
		UserID uint    `cbor:"user-id"`
		Name   string  `cbor:"name"`
		Rating float64 `cbor:"rating"`
		Points int64   `cbor:"points"`
	}
	entries := make([]entry, 0, len(users))
	for _, u := range users {
		count, err := p.repo.CountResultsForUser(u.ID)
		if err != nil {
			count = 0
		}
		entries = append(entries, entry{UserID: u.ID, Name: u.Name, Rating: u.Rating, Points: count})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rating > entries[j].Rating })

	return protocol.OK(protocol.Fields{"ranking": entries}), nil
}

// HandleDisconnect removes conn from the listener set. Presence has no
// per-connection authoritative state beyond listenership — status belongs
// to the user, not the socket.
func (p *PresenceService) HandleDisconnect(conn domain.ConnID) {
	p.mu.Lock()
	delete(p.listeners, conn)
	p.mu.Unlock()
}
