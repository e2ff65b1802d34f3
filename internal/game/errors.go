package game

import "errors"

// Rejections returned by the state machine. They describe game-rule
// violations, never infrastructure failures.
var (
	ErrInvalidTitle      = errors.New("title is required (string)")
	ErrInvalidMaxPlayers = errors.New("maxPlayers must be a number >= 2 if provided")
	ErrInvalidIdentity   = errors.New("player identity is required")
	ErrEmptySentence     = errors.New("sentence must not be empty")

	ErrGameNotFound     = errors.New("game not found")
	ErrNotJoinable      = errors.New("game not joinable")
	ErrGameFull         = errors.New("game is full")
	ErrNameTaken        = errors.New("name already taken")
	ErrNotActive        = errors.New("game is not active")
	ErrNotInGame        = errors.New("player not in game")
	ErrNotPlayerTurn    = errors.New("not this player's turn")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrGameOver         = errors.New("game is over")
)
