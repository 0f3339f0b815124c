package services

import (
	"testing"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(id uint64, conn1, conn2 domain.ConnID, user1, user2 uint) *domain.Game {
	pawn := domain.NewShape(2, 1, "11")
	board := domain.NewShape(2, 2, "1111")
	moveBoard := buildMoveBoard(board)
	rotations := domain.Rotations(pawn)
	pruneInitial(moveBoard, rotations)

	pointBoard := make([][]int, 2)
	for y := range pointBoard {
		pointBoard[y] = []int{1, 1}
	}

	return &domain.Game{
		ID:            id,
		Conns:         [2]domain.ConnID{conn1, conn2},
		Player1ID:     user1,
		Player2ID:     user2,
		Pawn:          pawn,
		Rotations:     rotations,
		PointBoard:    pointBoard,
		MoveBoard:     moveBoard,
		CurrentPlayer: 1,
	}
}

// Scenario 5 (§8): pawn 2x1 on an all-playable 2x2 board with a uniform
// point-board ends in a 2-2 draw after two non-overlapping moves.
func TestFullGameEndsInDraw(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	match := NewMatchService(repo, notifier)

	conn1 := domain.ConnID("a")
	conn2 := domain.ConnID("b")
	game := newTestGame(1, conn1, conn2, 10, 20)
	match.games[game.ID] = game
	match.nextID = 1

	resp, err := match.MakeMove(conn1, 1, 1, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "opponents-turn", resp["game-status"])

	resp, err = match.MakeMove(conn2, 1, 2, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "game-finished", resp["game-status"])
	assert.Equal(t, 0, resp["winner"])
	assert.Equal(t, [2]int{2, 2}, resp["player_points"])

	require.Len(t, notifier.pushes, 2) // the mid-game opponent push, then the finish push
	assert.Equal(t, conn1, notifier.pushes[1].conn)
	assert.Equal(t, "game-finished", notifier.pushes[1].fields["notification"])

	require.Len(t, repo.results, 1)
	assert.Equal(t, 2, repo.results[0].Points1)
	assert.Equal(t, 2, repo.results[0].Points2)
}

func TestMakeMoveRejectsWrongTurn(t *testing.T) {
	repo := newFakeRepository()
	match := NewMatchService(repo, &fakeNotifier{})
	conn1 := domain.ConnID("a")
	conn2 := domain.ConnID("b")
	game := newTestGame(1, conn1, conn2, 10, 20)
	match.games[game.ID] = game

	_, err := match.MakeMove(conn2, 1, 2, 0, 0, 0)
	require.Error(t, err)
	assert.Equal(t, "WRONG_TURN", appCode(t, err))
}

func TestMakeMoveRejectsOverlap(t *testing.T) {
	repo := newFakeRepository()
	match := NewMatchService(repo, &fakeNotifier{})
	conn1 := domain.ConnID("a")
	conn2 := domain.ConnID("b")
	game := newTestGame(1, conn1, conn2, 10, 20)
	match.games[game.ID] = game

	_, err := match.MakeMove(conn1, 1, 1, 0, 0, 0)
	require.NoError(t, err)

	_, err = match.MakeMove(conn2, 1, 2, 0, 0, 0)
	require.Error(t, err)
	assert.Equal(t, "WRONG_MOVE", appCode(t, err))
}

// Abandon scenario 6 (§8): the abandoner's persisted points are pinned at
// (0, 1) regardless of the real in-progress score.
func TestAbandonGamePinnedScoring(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	match := NewMatchService(repo, notifier)
	conn1 := domain.ConnID("a")
	conn2 := domain.ConnID("b")
	game := newTestGame(1, conn1, conn2, 10, 20)
	match.games[game.ID] = game

	_, err := match.MakeMove(conn1, 1, 1, 0, 0, 0)
	require.NoError(t, err)

	resp, err := match.AbandonGame(conn1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "defeated", resp["game-result"])

	require.Len(t, repo.results, 1)
	assert.Equal(t, 0, repo.results[0].Points1)
	assert.Equal(t, 1, repo.results[0].Points2)
	assert.Equal(t, 2, repo.results[0].Winner)

	require.Len(t, notifier.pushes, 2) // the mid-game opponent push, then the abandon push
	last := notifier.pushes[len(notifier.pushes)-1]
	assert.Equal(t, conn2, last.conn)
	assert.Equal(t, "enemy-abandoned-game", last.fields["detail"])
}

// Matchmaker uniqueness property (§8).
func TestFindRandomGamePairsTwoSeekers(t *testing.T) {
	repo := newFakeRepository()
	repo.pawns = []domain.Pawn{{ID: 1, Name: "domino", Width: 2, Height: 1, Shape: "11"}}
	repo.boards = []domain.Board{{ID: 1, Name: "square", Width: 2, Height: 2, Shape: "1111"}}
	notifier := &fakeNotifier{}
	match := NewMatchService(repo, notifier)

	conn1 := domain.ConnID("a")
	conn2 := domain.ConnID("b")

	resp, err := match.FindRandomGame(conn1, 10)
	require.NoError(t, err)
	assert.Equal(t, "waiting", resp["game-status"])

	resp, err = match.FindRandomGame(conn2, 20)
	require.NoError(t, err)
	assert.Equal(t, "found", resp["game-status"])
	assert.Equal(t, 2, resp["player-number"])
	assert.Equal(t, uint(10), resp["opponent-id"])

	require.Len(t, notifier.pushes, 1)
	assert.Equal(t, conn1, notifier.pushes[0].conn)
	assert.Equal(t, 1, notifier.pushes[0].fields["player-number"])
	assert.Equal(t, resp["game-nr"], notifier.pushes[0].fields["game-nr"])
}

func TestQuitSearchingClearsSlot(t *testing.T) {
	repo := newFakeRepository()
	match := NewMatchService(repo, &fakeNotifier{})
	conn := domain.ConnID("a")

	_, err := match.FindRandomGame(conn, 10)
	require.NoError(t, err)

	_, err = match.QuitSearching(conn)
	require.NoError(t, err)

	_, err = match.QuitSearching(conn)
	require.Error(t, err)
	assert.Equal(t, "NOT_SEARCHING", appCode(t, err))
}
