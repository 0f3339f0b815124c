/*
 * file: game_engine.go
 * package: services
 * description:
 *     C7: the matchmaker and the per-game state machine — pairing,
 *     initialization, move validation and application, scoring,
 *     abandonment and the ranking hook. This is the largest and most
 *     combinatorial module of the server (§2 budgets it at 35%).
 */

package services

import (
	"math/rand"
	"sync"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/core/ports"
	"github.com/dvdyellow/server/internal/metrics"
	"github.com/dvdyellow/server/internal/protocol"
)

// MatchService owns the matchmaker's waiting slot and every live game.
type MatchService struct {
	repo     ports.Repository
	notifier Notifier

	waitingMu sync.Mutex
	waiting   *waitingSeeker // at most one, per invariant I3

	gamesMu sync.Mutex
	games   map[uint64]*domain.Game
	nextID  uint64
}

type waitingSeeker struct {
	conn   domain.ConnID
	userID uint
}

// NewMatchService constructs a MatchService backed by repo, pushing
// notifications through notifier.
func NewMatchService(repo ports.Repository, notifier Notifier) *MatchService {
	return &MatchService{
		repo:     repo,
		notifier: notifier,
		games:    make(map[uint64]*domain.Game),
	}
}

// ---- 4.7.1 Matchmaking ----------------------------------------------------

// FindRandomGame implements find-random-game. If the waiting slot is empty
// it is filled with the caller; otherwise a game is created immediately and
// the two seekers are paired, player 1 being whoever arrived first.
func (m *MatchService) FindRandomGame(conn domain.ConnID, userID uint) (protocol.Fields, error) {
	m.waitingMu.Lock()
	if m.waiting == nil {
		m.waiting = &waitingSeeker{conn: conn, userID: userID}
		m.waitingMu.Unlock()
		return protocol.OK(protocol.Fields{"game-status": "waiting"}), nil
	}
	first := *m.waiting
	m.waiting = nil
	m.waitingMu.Unlock()

	game, err := m.newGame(first.conn, first.userID, conn, userID)
	if err != nil {
		return nil, err
	}

	m.gamesMu.Lock()
	m.games[game.ID] = game
	m.gamesMu.Unlock()

	boardFields := gameBoardFields(game)

	m.notifier.Push(first.conn, protocol.ChannelGameFound, protocol.Fields{
		"notification":   "opponent-found",
		"opponent-id":    userID,
		"game-nr":        game.ID,
		"player-number":  1,
		"game-board":     boardFields["game-board"],
		"game-pawn":      boardFields["game-pawn"],
		"game-board-move": boardFields["game-board-move"],
	})

	return protocol.OK(protocol.Fields{
		"game-status":     "found",
		"opponent-id":     first.userID,
		"game-nr":         game.ID,
		"player-number":   2,
		"game-board":      boardFields["game-board"],
		"game-pawn":       boardFields["game-pawn"],
		"game-board-move": boardFields["game-board-move"],
	}), nil
}

// QuitSearching implements quit-searching.
func (m *MatchService) QuitSearching(conn domain.ConnID) (protocol.Fields, error) {
	m.waitingMu.Lock()
	defer m.waitingMu.Unlock()
	if m.waiting == nil || m.waiting.conn != conn {
		return nil, protocol.NewAppError("NOT_SEARCHING")
	}
	m.waiting = nil
	return protocol.OK(nil), nil
}

// ---- 4.7.2 Game initialization ---------------------------------------------

func (m *MatchService) newGame(conn1 domain.ConnID, user1 uint, conn2 domain.ConnID, user2 uint) (*domain.Game, error) {
	pawn, err := m.repo.RandomPawn()
	if err != nil {
		return nil, protocol.NewAppError("NO_PAWN_AVAILABLE")
	}
	board, err := m.repo.RandomBoard()
	if err != nil {
		return nil, protocol.NewAppError("NO_BOARD_AVAILABLE")
	}

	pawnShape := domain.NewShape(pawn.Width, pawn.Height, pawn.Shape)
	boardShape := domain.NewShape(board.Width, board.Height, board.Shape)
	rotations := domain.Rotations(pawnShape)

	moveBoard := buildMoveBoard(boardShape)
	pruneInitial(moveBoard, rotations)

	pointBoard := make([][]int, len(moveBoard))
	for y := range moveBoard {
		pointBoard[y] = make([]int, len(moveBoard[y]))
		for x := range moveBoard[y] {
			if moveBoard[y][x] == domain.CellEmpty {
				pointBoard[y][x] = 1 + rand.Intn(9)
			}
		}
	}

	m.gamesMu.Lock()
	m.nextID++
	id := m.nextID
	m.gamesMu.Unlock()

	metrics.GamesInProgress.Inc()

	return &domain.Game{
		ID:            id,
		Conns:         [2]domain.ConnID{conn1, conn2},
		Player1ID:     user1,
		Player2ID:     user2,
		Pawn:          pawnShape,
		Rotations:     rotations,
		PointBoard:    pointBoard,
		MoveBoard:     moveBoard,
		CurrentPlayer: 1,
	}, nil
}

// gameBoardFields serializes the parts of a Game a client needs to render
// the board for a just-paired match: the point-board, the pawn's natural
// shape, and the initial move-board.
func gameBoardFields(g *domain.Game) protocol.Fields {
	return protocol.Fields{
		"game-board":      g.PointBoard,
		"game-pawn":       shapeBits(g.Pawn),
		"game-board-move": g.MoveBoard,
	}
}

func shapeBits(s domain.Shape) [][]bool {
	return s.Cells
}

// ---- 4.7.3/4.7.4 Move validation and application ---------------------------

func (m *MatchService) lookupGame(gameNr uint64) (*domain.Game, error) {
	m.gamesMu.Lock()
	g, ok := m.games[gameNr]
	m.gamesMu.Unlock()
	if !ok {
		return nil, protocol.NewAppError("BAD_GAME_ID")
	}
	return g, nil
}

// MakeMove implements move. It validates in the order specified by
// §4.7.3, applies the move, re-prunes the board, scores, and either
// finishes the game or flips the turn — all under the game's own lock so
// both players observe one consistent order of events on this game.
func (m *MatchService) MakeMove(conn domain.ConnID, gameNr uint64, playerNr, x, y, rotation int) (protocol.Fields, error) {
	g, err := m.lookupGame(gameNr)
	if err != nil {
		return nil, err
	}

	g.Lock()
	defer g.Unlock()

	if g.Finished {
		return nil, protocol.NewAppError("BAD_GAME_STATE")
	}
	if g.ConnSlot(conn) != playerNr {
		return nil, protocol.NewAppError("WRONG_MOVE")
	}
	if g.CurrentPlayer != playerNr {
		return nil, protocol.NewAppError("WRONG_TURN")
	}
	if rotation < 0 || rotation > 3 {
		return nil, protocol.NewAppError("NO_MOVE")
	}

	shape := g.Rotations[rotation]
	if x < 0 || y < 0 || x+shape.Width > g.Width() || y+shape.Height > g.Height() ||
		!placementFits(g.MoveBoard, shape, x, y) {
		return nil, protocol.NewAppError("WRONG_MOVE")
	}

	stampPlacement(g.MoveBoard, shape, x, y, int8(playerNr))
	pruneAfterMove(g.MoveBoard, g.Rotations, playerNr)
	metrics.MovesProcessed.Inc()

	score1 := g.Score(1)
	score2 := g.Score(2)
	g.CurrentPlayer = domain.Opponent(playerNr)

	opponentConn := g.ConnOf(domain.Opponent(playerNr))
	boardSnapshot := domain.CloneMoveBoard(g.MoveBoard)

	if !g.HasEmptyCell() {
		g.Finished = true
		g.Winner = decideWinner(score1, score2)
		m.finishGame(g, score1, score2)

		result := protocol.OK(protocol.Fields{
			"game-status":     "game-finished",
			"notification":    "game-finished",
			"winner":          g.Winner,
			"detail":          "no-more-moves",
			"game-nr":         g.ID,
			"game_move_board": boardSnapshot,
			"player_points":   [2]int{score1, score2},
		})
		m.notifier.Push(opponentConn, protocol.ChannelGameEvent, result)
		return result, nil
	}

	push := protocol.Fields{
		"notification":    "your-new-turn",
		"game-nr":         g.ID,
		"game_move_board":  boardSnapshot,
		"player_points":   [2]int{score1, score2},
	}
	m.notifier.Push(opponentConn, protocol.ChannelGameEvent, push)

	return protocol.OK(protocol.Fields{
		"game-status":     "opponents-turn",
		"game-nr":         g.ID,
		"game_move_board": boardSnapshot,
		"player_points":   [2]int{score1, score2},
	}), nil
}

// stampPlacement marks every filled cell of shape, placed at (ox, oy), with
// the mover's sign.
func stampPlacement(moveBoard [][]int8, shape domain.Shape, ox, oy int, player int8) {
	for sy := 0; sy < shape.Height; sy++ {
		for sx := 0; sx < shape.Width; sx++ {
			if shape.At(sx, sy) {
				moveBoard[oy+sy][ox+sx] = player
			}
		}
	}
}

func decideWinner(score1, score2 int) int {
	switch {
	case score1 > score2:
		return 1
	case score2 > score1:
		return 2
	default:
		return 0
	}
}

// ---- 4.7.5 Abandonment -----------------------------------------------------

// AbandonGame implements abandon-game. The abandoner's persisted result
// points are pinned at (0, 1) per the legacy quirk documented in
// SPEC_FULL.md §4 — the open question is not guessed at, it is pinned.
func (m *MatchService) AbandonGame(conn domain.ConnID, gameNr uint64, playerNr int) (protocol.Fields, error) {
	g, err := m.lookupGame(gameNr)
	if err != nil {
		return nil, err
	}

	g.Lock()
	if g.Finished {
		g.Unlock()
		return nil, protocol.NewAppError("BAD_GAME_STATE")
	}
	if g.ConnSlot(conn) != playerNr {
		g.Unlock()
		return nil, protocol.NewAppError("WRONG_MOVE")
	}

	score1 := g.Score(1)
	score2 := g.Score(2)
	winner := domain.Opponent(playerNr)
	g.Finished = true
	g.Winner = winner
	opponentConn := g.ConnOf(winner)
	boardSnapshot := domain.CloneMoveBoard(g.MoveBoard)
	g.Unlock()

	m.persistAbandonResult(g, playerNr)

	m.notifier.Push(opponentConn, protocol.ChannelGameEvent, protocol.Fields{
		"notification":    "game-finished",
		"winner":          winner,
		"detail":          "enemy-abandoned-game",
		"game-nr":         g.ID,
		"game_move_board": boardSnapshot,
		"player_points":   [2]int{score1, score2},
	})

	m.gamesMu.Lock()
	delete(m.games, g.ID)
	m.gamesMu.Unlock()
	metrics.GamesInProgress.Dec()

	return protocol.OK(protocol.Fields{
		"game-result": "defeated",
		"detail":      "game-abandoned",
	}), nil
}

// persistAbandonResult writes the GameResult with the pinned (0, 1) point
// pair and updates ratings from it (§4.7.5, §4.7.6).
func (m *MatchService) persistAbandonResult(g *domain.Game, abandonerPlayer int) {
	var points1, points2 int
	if abandonerPlayer == 1 {
		points1, points2 = 0, 1
	} else {
		points1, points2 = 1, 0
	}
	m.persistResult(g, points1, points2, domain.Opponent(abandonerPlayer))
}

// ---- 4.7.7 Connection-loss handling ----------------------------------------

// HandleDisconnect treats conn's disconnect as an implicit abandon for
// every game it currently owns a slot in. Must run before the auth
// bijection entry for conn is removed (§7).
func (m *MatchService) HandleDisconnect(conn domain.ConnID) {
	m.waitingMu.Lock()
	if m.waiting != nil && m.waiting.conn == conn {
		m.waiting = nil
	}
	m.waitingMu.Unlock()

	m.gamesMu.Lock()
	var owned []uint64
	for id, g := range m.games {
		if g.ConnSlot(conn) != 0 && !g.Finished {
			owned = append(owned, id)
		}
	}
	m.gamesMu.Unlock()

	for _, id := range owned {
		g, err := m.lookupGame(id)
		if err != nil {
			continue
		}
		player := g.ConnSlot(conn)
		if player == 0 {
			continue
		}
		_, _ = m.AbandonGame(conn, id, player)
	}
}

// ---- 4.7.6 Ranking ----------------------------------------------------------

func (m *MatchService) finishGame(g *domain.Game, score1, score2 int) {
	m.persistResult(g, score1, score2, g.Winner)

	m.gamesMu.Lock()
	delete(m.games, g.ID)
	m.gamesMu.Unlock()
	metrics.GamesInProgress.Dec()
}

func (m *MatchService) persistResult(g *domain.Game, points1, points2, winner int) {
	result := &domain.GameResult{
		Player1ID: g.Player1ID,
		Player2ID: g.Player2ID,
		Points1:   points1,
		Points2:   points2,
		Winner:    winner,
	}
	_ = m.repo.InsertResult(result)
	ApplyRatingUpdate(m.repo, g.Player1ID, g.Player2ID, points1, points2)
}
