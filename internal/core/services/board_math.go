/*
 * file: board_math.go
 * package: services
 * description:
 *     The reachability pruner (§4.7.2/§4.7.4): given a pawn's four
 *     rotations and the current move-board, determines every cell that
 *     some legal placement could still occupy. Used both at game
 *     initialization (to carve out permanently dead cells before point
 *     values are assigned) and after every accepted move (to mark newly
 *     dead territory for the mover).
 */

package services

import "github.com/dvdyellow/server/internal/core/domain"

// reachableCells returns the set of (x, y) coordinates that at least one
// rotation, placed at some origin, could legally occupy on moveBoard right
// now — "legally" meaning every filled cell of the rotated pawn lands
// in-bounds on a cell whose current value is domain.CellEmpty.
func reachableCells(moveBoard [][]int8, rotations [4]domain.Shape) map[[2]int]bool {
	height := len(moveBoard)
	width := 0
	if height > 0 {
		width = len(moveBoard[0])
	}

	reachable := make(map[[2]int]bool)
	for _, shape := range rotations {
		for oy := 0; oy <= height-shape.Height; oy++ {
			for ox := 0; ox <= width-shape.Width; ox++ {
				if !placementFits(moveBoard, shape, ox, oy) {
					continue
				}
				for sy := 0; sy < shape.Height; sy++ {
					for sx := 0; sx < shape.Width; sx++ {
						if shape.At(sx, sy) {
							reachable[[2]int{ox + sx, oy + sy}] = true
						}
					}
				}
			}
		}
	}
	return reachable
}

// placementFits reports whether every filled cell of shape, placed with its
// top-left corner at (ox, oy), lands on a domain.CellEmpty cell of
// moveBoard. The caller has already bounded oy/ox so the shape's extent
// stays within the board.
func placementFits(moveBoard [][]int8, shape domain.Shape, ox, oy int) bool {
	for sy := 0; sy < shape.Height; sy++ {
		for sx := 0; sx < shape.Width; sx++ {
			if !shape.At(sx, sy) {
				continue
			}
			if moveBoard[oy+sy][ox+sx] != domain.CellEmpty {
				return false
			}
		}
	}
	return true
}

// pruneInitial marks every cell still domain.CellEmpty that no placement
// can ever reach as domain.CellNonExistent, permanently removing it from
// play before point values are assigned (§4.7.2).
func pruneInitial(moveBoard [][]int8, rotations [4]domain.Shape) {
	reachable := reachableCells(moveBoard, rotations)
	for y := range moveBoard {
		for x := range moveBoard[y] {
			if moveBoard[y][x] != domain.CellEmpty {
				continue
			}
			if !reachable[[2]int{x, y}] {
				moveBoard[y][x] = domain.CellNonExistent
			}
		}
	}
}

// pruneAfterMove marks every cell still domain.CellEmpty that no placement
// can reach anymore as dead territory credited to mover (§4.7.4). It
// mutates moveBoard in place and returns nothing.
func pruneAfterMove(moveBoard [][]int8, rotations [4]domain.Shape, mover int) {
	reachable := reachableCells(moveBoard, rotations)
	deadValue := int8(-mover)
	for y := range moveBoard {
		for x := range moveBoard[y] {
			if moveBoard[y][x] != domain.CellEmpty {
				continue
			}
			if !reachable[[2]int{x, y}] {
				moveBoard[y][x] = deadValue
			}
		}
	}
}

// buildMoveBoard constructs the initial move-board from a board's bitstring:
// domain.CellEmpty where the board is playable ('1'), domain.CellNonExistent
// elsewhere.
func buildMoveBoard(boardShape domain.Shape) [][]int8 {
	board := make([][]int8, boardShape.Height)
	for y := 0; y < boardShape.Height; y++ {
		row := make([]int8, boardShape.Width)
		for x := 0; x < boardShape.Width; x++ {
			if boardShape.At(x, y) {
				row[x] = domain.CellEmpty
			} else {
				row[x] = domain.CellNonExistent
			}
		}
		board[y] = row
	}
	return board
}
