package repository

import (
	"testing"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newMemRepo opens an in-memory SQLite database, migrates the schema, and
// returns a GormRepository bound to it. Discarded when the test ends.
func newMemRepo(t *testing.T) *GormRepository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	if sqlDB, err := gdb.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	require.NoError(t, gdb.AutoMigrate(&domain.User{}, &domain.Pawn{}, &domain.Board{}, &domain.GameResult{}))
	return NewGormRepository(gdb)
}

func TestInsertAndFindUser(t *testing.T) {
	repo := newMemRepo(t)

	user := &domain.User{Name: "alice", Password: "secret"}
	require.NoError(t, repo.InsertUser(user))
	require.NotZero(t, user.ID)

	found, err := repo.FindUserByName("alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	byID, err := repo.FindUserByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Name)
}

func TestFindUserByNameMissing(t *testing.T) {
	repo := newMemRepo(t)
	_, err := repo.FindUserByName("nobody")
	require.Error(t, err)
}

func TestUpdateUserRating(t *testing.T) {
	repo := newMemRepo(t)
	user := &domain.User{Name: "bob", Password: "x"}
	require.NoError(t, repo.InsertUser(user))

	require.NoError(t, repo.UpdateUserRating(user.ID, 12.5))

	found, err := repo.FindUserByID(user.ID)
	require.NoError(t, err)
	require.InDelta(t, 12.5, found.Rating, 0.0001)
}

func TestListUsersOrderedByRatingDesc(t *testing.T) {
	repo := newMemRepo(t)
	a := &domain.User{Name: "a", Password: "x", Rating: 1}
	b := &domain.User{Name: "b", Password: "x", Rating: 5}
	c := &domain.User{Name: "c", Password: "x", Rating: 3}
	require.NoError(t, repo.InsertUser(a))
	require.NoError(t, repo.InsertUser(b))
	require.NoError(t, repo.InsertUser(c))

	ranked, err := repo.ListUsersOrderedByRatingDesc(10)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	require.Equal(t, "b", ranked[0].Name)
	require.Equal(t, "c", ranked[1].Name)
	require.Equal(t, "a", ranked[2].Name)
}

// CountResultsForUser must use the store's own count, not a materialized
// slice's length (the pinned decision for the legacy `.length()` bug).
func TestCountResultsForUser(t *testing.T) {
	repo := newMemRepo(t)
	u1 := &domain.User{Name: "p1", Password: "x"}
	u2 := &domain.User{Name: "p2", Password: "x"}
	require.NoError(t, repo.InsertUser(u1))
	require.NoError(t, repo.InsertUser(u2))

	require.NoError(t, repo.InsertResult(&domain.GameResult{Player1ID: u1.ID, Player2ID: u2.ID, Points1: 3, Points2: 1, Winner: 1}))
	require.NoError(t, repo.InsertResult(&domain.GameResult{Player1ID: u2.ID, Player2ID: u1.ID, Points1: 2, Points2: 2, Winner: 0}))

	count, err := repo.CountResultsForUser(u1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestRandomPawnAndBoard(t *testing.T) {
	repo := newMemRepo(t)
	require.NoError(t, repo.db.Create(&domain.Pawn{Name: "domino", Width: 2, Height: 1, Shape: "11"}).Error)
	require.NoError(t, repo.db.Create(&domain.Board{Name: "square", Width: 2, Height: 2, Shape: "1111"}).Error)

	pawn, err := repo.RandomPawn()
	require.NoError(t, err)
	require.Equal(t, "domino", pawn.Name)

	board, err := repo.RandomBoard()
	require.NoError(t, err)
	require.Equal(t, "square", board.Name)
}

func TestRandomPawnEmptyCatalog(t *testing.T) {
	repo := newMemRepo(t)
	_, err := repo.RandomPawn()
	require.Error(t, err)
}
