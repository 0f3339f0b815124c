/*
 * file: ranking.go
 * package: services
 * description:
 *     §4.7.6 rating adjustment, applied after every finished or abandoned
 *     game. Deliberately independent of win/loss: a player who takes most
 *     of the points gains rating even in a technical loss on a draw-adjacent
 *     split, since the adjustment is driven by point share, not by Winner.
 */

package services

import "github.com/dvdyellow/server/internal/core/ports"

// ApplyRatingUpdate adjusts both players' ratings from the points each
// scored in one finished game. share is player1's fraction of the total
// points scored (0.5 on a tie); delta = (share - 0.5) * 10 is added to
// player1's rating and subtracted from player2's, making the adjustment
// zero-sum.
func ApplyRatingUpdate(repo ports.Repository, player1ID, player2ID uint, points1, points2 int) {
	total := points1 + points2
	share := 0.5
	if total > 0 {
		share = float64(points1) / float64(total)
	}
	delta := (share - 0.5) * 10

	if u1, err := repo.FindUserByID(player1ID); err == nil {
		_ = repo.UpdateUserRating(player1ID, u1.Rating+delta)
	}
	if u2, err := repo.FindUserByID(player2ID); err == nil {
		_ = repo.UpdateUserRating(player2ID, u2.Rating-delta)
	}
}
