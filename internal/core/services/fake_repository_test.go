package services

import (
	"errors"
	"sort"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/protocol"
)

// fakeRepository is an in-memory ports.Repository for service-level tests,
// mirroring the subset of GORM behavior the services depend on.
type fakeRepository struct {
	users   map[uint]*domain.User
	nextID  uint
	pawns   []domain.Pawn
	boards  []domain.Board
	results []domain.GameResult
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[uint]*domain.User)}
}

func (r *fakeRepository) FindUserByName(name string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *fakeRepository) FindUserByID(id uint) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (r *fakeRepository) InsertUser(user *domain.User) error {
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeRepository) UpdateUserRating(userID uint, newRating float64) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("not found")
	}
	u.Rating = newRating
	return nil
}

func (r *fakeRepository) ListUsersOrderedByRatingDesc(limit int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepository) CountResultsForUser(userID uint) (int64, error) {
	var n int64
	for _, res := range r.results {
		if res.Player1ID == userID || res.Player2ID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepository) ListPawns() ([]domain.Pawn, error) { return r.pawns, nil }
func (r *fakeRepository) ListBoards() ([]domain.Board, error) { return r.boards, nil }

func (r *fakeRepository) RandomPawn() (*domain.Pawn, error) {
	if len(r.pawns) == 0 {
		return nil, errors.New("no pawns")
	}
	p := r.pawns[0]
	return &p, nil
}

func (r *fakeRepository) RandomBoard() (*domain.Board, error) {
	if len(r.boards) == 0 {
		return nil, errors.New("no boards")
	}
	b := r.boards[0]
	return &b, nil
}

func (r *fakeRepository) InsertResult(result *domain.GameResult) error {
	r.results = append(r.results, *result)
	return nil
}

// fakeNotifier records every push for assertions.
type fakeNotifier struct {
	pushes []pushRecord
}

type pushRecord struct {
	conn    domain.ConnID
	channel int
	fields  protocol.Fields
}

func (n *fakeNotifier) Push(conn domain.ConnID, channel int, fields protocol.Fields) {
	n.pushes = append(n.pushes, pushRecord{conn: conn, channel: channel, fields: fields})
}
