/*
 * file: entities.go
 * package: domain
 * description:
 *     Persisted entities shared across the repository port and the in-memory
 *     game engine. These map 1:1 onto the four collections of the abstract
 *     persistence port: users, boards, pawns, results.
 */

package domain

import "time"

// User is a registered player identity. Passwords are stored verbatim; this
// is a known weakness, not an oversight (see the auth service).
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Password  string `gorm:"not null" json:"-"`
	Rating    float64 `gorm:"not null;default:0" json:"rating"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Pawn is an immutable polyomino shape a game is played with. Shape is a
// row-major bitstring of length Width*Height where '1' marks a filled cell.
type Pawn struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"size:64;not null" json:"name"`
	Width  int    `gorm:"not null" json:"width"`
	Height int    `gorm:"not null" json:"height"`
	Shape  string `gorm:"not null" json:"shape"`
}

// Board is an immutable rectangular playing field. Shape is a row-major
// bitstring of length Width*Height where '1' marks a playable cell.
type Board struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"size:64;not null" json:"name"`
	Width  int    `gorm:"not null" json:"width"`
	Height int    `gorm:"not null" json:"height"`
	Shape  string `gorm:"not null" json:"shape"`
}

// GameResult is the persisted outcome of one finished or abandoned game.
// Winner is 0 for a draw, 1 or 2 for the winning player slot.
type GameResult struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	Player1ID uint `gorm:"not null;index" json:"player1Id"`
	Player2ID uint `gorm:"not null;index" json:"player2Id"`
	Points1   int  `gorm:"not null" json:"points1"`
	Points2   int  `gorm:"not null" json:"points2"`
	Winner    int  `gorm:"not null" json:"winner"`
	CreatedAt time.Time `json:"createdAt"`
}
