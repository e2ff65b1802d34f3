package service

import (
	"errors"
	"runtime/debug"

	"github.com/kiliankoe/storychain/internal/game"
)

// Kind is the error class a caller can branch on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

// Error is what every service operation fails with. Code is stable and
// machine readable; Message is safe to show to users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
	// Stack is captured where an internal error is first classified.
	Stack []byte
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

type rejection struct {
	sentinel error
	kind     Kind
	code     string
	message  string
}

// rejections maps state machine errors onto the service taxonomy. An empty
// message means the error's own text is used.
var rejections = []rejection{
	{game.ErrInvalidTitle, KindValidation, "invalid_title", ""},
	{game.ErrInvalidMaxPlayers, KindValidation, "invalid_max_players", ""},
	{game.ErrInvalidIdentity, KindValidation, "missing_field", ""},
	{game.ErrEmptySentence, KindValidation, "empty_sentence", ""},
	{game.ErrGameNotFound, KindNotFound, "game_not_found", "Game not found"},
	{game.ErrNotJoinable, KindConflict, "game_not_joinable", "Game not joinable"},
	{game.ErrGameFull, KindConflict, "game_full", "Game is full"},
	{game.ErrNameTaken, KindConflict, "name_taken", "Name already taken"},
	{game.ErrNotActive, KindConflict, "not_active", "Game is not active"},
	{game.ErrNotPlayerTurn, KindConflict, "not_player_turn", "Not this player's turn"},
	{game.ErrNotEnoughPlayers, KindConflict, "not_enough_players", "Not enough players"},
	{game.ErrGameOver, KindConflict, "game_over", "Game is over"},
	{game.ErrNotInGame, KindForbidden, "not_in_game", "Player not in game"},
}

// classify turns any error into an *Error. Unknown errors are internal.
func classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	for _, r := range rejections {
		if errors.Is(err, r.sentinel) {
			msg := r.message
			if msg == "" {
				msg = err.Error()
			}
			return &Error{Kind: r.kind, Code: r.code, Message: msg, Err: err}
		}
	}
	return &Error{Kind: KindInternal, Code: "internal", Message: "Internal error", Err: err, Stack: debug.Stack()}
}

// Missing is the validation error for an absent required field.
func Missing(field string) *Error {
	return &Error{Kind: KindValidation, Code: "missing_field", Message: field + " is required"}
}

// AsError classifies err into the service taxonomy.
func AsError(err error) *Error { return classify(err) }

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}
