package game

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further actions are accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// SystemAuthor is the author id of the seeded starting prompt.
const SystemAuthor = "system"

type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Contribution struct {
	PlayerID  string    `json:"playerId"`
	Sentence  string    `json:"sentence"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// Game is one storytelling session. Values are snapshots: the state machine
// never mutates a Game it was given, it returns a fresh copy.
type Game struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	StartingPrompt   string         `json:"startingPrompt,omitempty"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Players          []Player       `json:"players"`
	CurrentTurnIndex int            `json:"currentTurnIndex"`
	Contributions    []Contribution `json:"contributions"`
	MaxPlayers       *int           `json:"maxPlayers,omitempty"`
}

// Clone returns a deep copy so callers can change slices without aliasing.
func (g Game) Clone() Game {
	out := g
	out.Players = append([]Player(nil), g.Players...)
	out.Contributions = append([]Contribution(nil), g.Contributions...)
	if g.MaxPlayers != nil {
		n := *g.MaxPlayers
		out.MaxPlayers = &n
	}
	return out
}

// Full reports whether the player cap has been reached.
func (g Game) Full() bool {
	return g.MaxPlayers != nil && len(g.Players) >= *g.MaxPlayers
}

// CurrentPlayer returns the player whose turn it is, if any.
func (g Game) CurrentPlayer() (Player, bool) {
	if g.CurrentTurnIndex < 0 || g.CurrentTurnIndex >= len(g.Players) {
		return Player{}, false
	}
	return g.Players[g.CurrentTurnIndex], true
}

// Validate checks the structural invariants every persisted snapshot must hold.
func (g Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game: empty id")
	}
	switch g.Status {
	case StatusWaiting, StatusActive, StatusCompleted, StatusCancelled:
	default:
		return fmt.Errorf("game %s: unknown status %q", g.ID, g.Status)
	}
	if len(g.Players) == 0 && g.CurrentTurnIndex != 0 {
		return fmt.Errorf("game %s: turn index %d with no players", g.ID, g.CurrentTurnIndex)
	}
	if len(g.Players) > 0 && (g.CurrentTurnIndex < 0 || g.CurrentTurnIndex >= len(g.Players)) {
		return fmt.Errorf("game %s: turn index %d out of range [0,%d)", g.ID, g.CurrentTurnIndex, len(g.Players))
	}
	for i, c := range g.Contributions {
		if c.Order != i {
			return fmt.Errorf("game %s: contribution %d has order %d", g.ID, i, c.Order)
		}
	}
	if g.MaxPlayers != nil && len(g.Players) > *g.MaxPlayers {
		return fmt.Errorf("game %s: %d players exceeds max %d", g.ID, len(g.Players), *g.MaxPlayers)
	}
	seen := make(map[string]bool, len(g.Players))
	for _, p := range g.Players {
		if seen[p.ID] {
			return fmt.Errorf("game %s: duplicate player %s", g.ID, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
