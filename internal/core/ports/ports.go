/*
 * file: ports.go
 * package: ports
 * description:
 *     The boundary between the core services and everything external: the
 *     abstract persistence repository (C8) that backs users, boards, pawns
 *     and results, kept opaque to the storage engine behind it.
 */

package ports

import "github.com/dvdyellow/server/internal/core/domain"

// Repository is the single abstract persistence port for the four
// collections named in §4.8: users, boards, pawns, results. Any backing
// store is compliant as long as it honors these operations; no schema
// migration beyond "create missing tables on first start" is in scope.
type Repository interface {
	// Users
	FindUserByName(name string) (*domain.User, error)
	FindUserByID(id uint) (*domain.User, error)
	InsertUser(user *domain.User) error
	UpdateUserRating(userID uint, newRating float64) error
	ListUsersOrderedByRatingDesc(limit int) ([]domain.User, error)
	CountResultsForUser(userID uint) (int64, error)

	// Pawns and boards (immutable catalog entries)
	ListPawns() ([]domain.Pawn, error)
	ListBoards() ([]domain.Board, error)
	RandomPawn() (*domain.Pawn, error)
	RandomBoard() (*domain.Board, error)

	// Results
	InsertResult(result *domain.GameResult) error
}
