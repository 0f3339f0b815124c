package services

import (
	"testing"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMoveBoardMarksNonPlayableCells(t *testing.T) {
	board := domain.NewShape(2, 2, "1101")
	mb := buildMoveBoard(board)
	require.Len(t, mb, 2)
	assert.Equal(t, domain.CellEmpty, mb[0][0])
	assert.Equal(t, domain.CellEmpty, mb[0][1])
	assert.Equal(t, domain.CellNonExistent, mb[1][0])
	assert.Equal(t, domain.CellEmpty, mb[1][1])
}

// A 1x1 pawn can always reach every empty cell; pruneInitial must leave the
// board untouched.
func TestPruneInitialNoOpForSingleCellPawn(t *testing.T) {
	board := domain.NewShape(2, 2, "1111")
	mb := buildMoveBoard(board)
	pawn := domain.NewShape(1, 1, "1")
	rotations := domain.Rotations(pawn)

	pruneInitial(mb, rotations)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, domain.CellEmpty, mb[y][x])
		}
	}
}

// A 2x1 pawn cannot fit on a single-row board whose two playable cells are
// separated by a non-playable one: horizontally it always overlaps the gap,
// and vertically it is taller than the board. Both playable cells must be
// pruned to non-existent since no placement can ever cover them.
func TestPruneInitialRemovesUnreachableCell(t *testing.T) {
	board := domain.NewShape(3, 1, "101")
	mb := buildMoveBoard(board)
	pawn := domain.NewShape(2, 1, "11")
	rotations := domain.Rotations(pawn)

	pruneInitial(mb, rotations)

	assert.Equal(t, domain.CellNonExistent, mb[0][0])
	assert.Equal(t, domain.CellNonExistent, mb[0][2])
}

// Reachability correctness property (§8): after pruneAfterMove, a cell
// holds CellEmpty iff some rotation can still be placed covering it.
func TestPruneAfterMoveReachabilityProperty(t *testing.T) {
	board := domain.NewShape(3, 1, "111")
	mb := buildMoveBoard(board)
	pawn := domain.NewShape(1, 1, "1")
	rotations := domain.Rotations(pawn)
	pruneInitial(mb, rotations)

	// Player 1 occupies the middle cell, splitting the row.
	mb[0][1] = domain.CellPlayer1
	pruneAfterMove(mb, rotations, 1)

	reach := reachableCells(mb, rotations)
	for x := 0; x < 3; x++ {
		if mb[0][x] == domain.CellEmpty {
			assert.True(t, reach[[2]int{x, 0}], "cell (%d,0) marked empty but not reachable", x)
		} else if mb[0][x] != domain.CellPlayer1 {
			assert.False(t, reach[[2]int{x, 0}], "cell (%d,0) not empty but still reachable", x)
		}
	}
}
