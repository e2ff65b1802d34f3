package game

import (
	"fmt"
	"strings"
	"time"
)

// Identity is what a caller supplies to say who is acting. Which fields are
// meaningful depends on the Resolver in use.
type Identity struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// Resolver maps a caller identity onto the players of a game.
type Resolver interface {
	Mode() string
	// Validate checks the identity carries the fields the mode needs.
	// joining is true for a join, where a display name is always required.
	Validate(id Identity, joining bool) error
	// Index returns the position of the player the identity refers to.
	Index(g Game, id Identity) (int, bool)
	// Conflict reports whether the identity collides with a different player.
	Conflict(g Game, id Identity) bool
	NewPlayer(id Identity, newID func() string, now time.Time) Player
}

// MissingFieldError names the identity field a request left out.
type MissingFieldError struct{ Field string }

func (e *MissingFieldError) Error() string { return e.Field + " is required" }

func (e *MissingFieldError) Is(target error) bool { return target == ErrInvalidIdentity }

const (
	ModeID   = "id"
	ModeName = "name"
)

// NewResolver returns the resolver for an IDENTITY_MODE value.
func NewResolver(mode string) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeID:
		return ByID{}, nil
	case ModeName:
		return ByName{}, nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", mode)
	}
}

// ByID keys players on a stable client-supplied id. Display names may repeat.
type ByID struct{}

func (ByID) Mode() string { return ModeID }

func (ByID) Validate(id Identity, joining bool) error {
	if strings.TrimSpace(id.PlayerID) == "" {
		return &MissingFieldError{Field: "playerId"}
	}
	if joining && strings.TrimSpace(id.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	return nil
}

func (ByID) Index(g Game, id Identity) (int, bool) {
	for i, p := range g.Players {
		if p.ID == id.PlayerID {
			return i, true
		}
	}
	return -1, false
}

func (ByID) Conflict(Game, Identity) bool { return false }

func (ByID) NewPlayer(id Identity, _ func() string, now time.Time) Player {
	return Player{ID: id.PlayerID, Name: strings.TrimSpace(id.Name), JoinedAt: now}
}

// ByName keys players on their display name, compared case-insensitively.
// A client may also send a player id; it then guards the name against
// being claimed by someone else.
type ByName struct{}

func (ByName) Mode() string { return ModeName }

func (ByName) Validate(id Identity, _ bool) error {
	if strings.TrimSpace(id.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	return nil
}

func (ByName) Index(g Game, id Identity) (int, bool) {
	name := strings.TrimSpace(id.Name)
	for i, p := range g.Players {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return -1, false
}

func (r ByName) Conflict(g Game, id Identity) bool {
	i, ok := r.Index(g, id)
	if !ok || id.PlayerID == "" {
		return false
	}
	return g.Players[i].ID != id.PlayerID
}

func (ByName) NewPlayer(id Identity, newID func() string, now time.Time) Player {
	pid := id.PlayerID
	if pid == "" {
		pid = newID()
	}
	return Player{ID: pid, Name: strings.TrimSpace(id.Name), JoinedAt: now}
}
