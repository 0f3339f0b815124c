/*
 * file: gorm_repository.go
 * package: repository
 * description:
 *     The GORM implementation of ports.Repository (C8). Translates the
 *     abstract four-collection persistence port into concrete queries,
 *     keeping the core services decoupled from the storage engine.
 */

package repository

import (
	"errors"

	"github.com/dvdyellow/server/internal/core/domain"

	"gorm.io/gorm"
)

// GormRepository is the sole ports.Repository implementation.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a GormRepository bound to db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FindUserByName looks up a user by its unique name.
func (r *GormRepository) FindUserByName(name string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("name = ?", name).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByID looks up a user by its primary key.
func (r *GormRepository) FindUserByID(id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// InsertUser persists a new user, assigning its ID.
func (r *GormRepository) InsertUser(user *domain.User) error {
	return r.db.Create(user).Error
}

// UpdateUserRating writes a new rating for an existing user.
func (r *GormRepository) UpdateUserRating(userID uint, newRating float64) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).Update("rating", newRating).Error
}

// ListUsersOrderedByRatingDesc returns up to limit users, highest rating
// first.
func (r *GormRepository) ListUsersOrderedByRatingDesc(limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.Order("rating desc").Limit(limit).Find(&users).Error
	return users, err
}

// CountResultsForUser returns the number of finished games userID appears
// in, using the store's own count operation rather than materializing the
// collection (the pinned decision in SPEC_FULL.md §4 for the legacy
// `.length()` bug).
func (r *GormRepository) CountResultsForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.GameResult{}).
		Where("player1_id = ? OR player2_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

// ListPawns returns the full pawn catalog.
func (r *GormRepository) ListPawns() ([]domain.Pawn, error) {
	var pawns []domain.Pawn
	err := r.db.Find(&pawns).Error
	return pawns, err
}

// ListBoards returns the full board catalog.
func (r *GormRepository) ListBoards() ([]domain.Board, error) {
	var boards []domain.Board
	err := r.db.Find(&boards).Error
	return boards, err
}

// RandomPawn returns one pawn chosen uniformly at random from the catalog.
func (r *GormRepository) RandomPawn() (*domain.Pawn, error) {
	var pawn domain.Pawn
	if err := r.db.Order("RANDOM()").First(&pawn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("repository: no pawns available")
		}
		return nil, err
	}
	return &pawn, nil
}

// RandomBoard returns one board chosen uniformly at random from the
// catalog.
func (r *GormRepository) RandomBoard() (*domain.Board, error) {
	var board domain.Board
	if err := r.db.Order("RANDOM()").First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("repository: no boards available")
		}
		return nil, err
	}
	return &board, nil
}

// InsertResult persists a finished game's outcome.
func (r *GormRepository) InsertResult(result *domain.GameResult) error {
	return r.db.Create(result).Error
}
