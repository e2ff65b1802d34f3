package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// codeAlphabet leaves out characters that are easy to misread (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength of generated join codes; 32^6 leaves plenty of room for retries.
const CodeLength = 6

const (
	IDStyleUUID = "uuid"
	IDStyleCode = "code"
)

func NewUUID() string {
	return uuid.NewString()
}

func NewCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// IDGenerator returns the game id generator for a GAME_ID_STYLE value.
func IDGenerator(style string) func() string {
	if style == IDStyleCode {
		return func() string { return NewCode(CodeLength) }
	}
	return NewUUID
}
