package game

import (
	"strings"
	"time"
)

// Action is a state transition request against an existing game.
type Action interface {
	Name() string
	apply(m *Machine, g Game, now time.Time) (Game, bool, error)
}

type Join struct{ Identity Identity }

type Submit struct {
	Identity Identity
	Sentence string
}

// Start forces a game active with at least one player. It is the host's
// early-start override of the two-player auto activation.
type Start struct{}

type Complete struct{}

type Cancel struct{}

func (Join) Name() string     { return "join" }
func (Submit) Name() string   { return "submit" }
func (Start) Name() string    { return "start" }
func (Complete) Name() string { return "complete" }
func (Cancel) Name() string   { return "cancel" }

type CreateInput struct {
	Title          string
	StartingPrompt string
	MaxPlayers     *int
}

// Machine computes game transitions. It does no I/O; time and id generation
// are injected so results are reproducible in tests.
type Machine struct {
	Now      func() time.Time
	NewID    func() string
	Identity Resolver
}

func NewMachine(r Resolver) *Machine {
	if r == nil {
		r = ByID{}
	}
	return &Machine{Now: time.Now, NewID: NewUUID, Identity: r}
}

func (m *Machine) now() time.Time {
	return m.Now().UTC().Truncate(time.Millisecond)
}

// Create builds a fresh waiting game with the given id.
func (m *Machine) Create(in CreateInput, id string) (Game, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Game{}, ErrInvalidTitle
	}
	if in.MaxPlayers != nil && *in.MaxPlayers < 2 {
		return Game{}, ErrInvalidMaxPlayers
	}
	now := m.now()
	g := Game{
		ID:             id,
		Title:          title,
		StartingPrompt: in.StartingPrompt,
		Status:         StatusWaiting,
		CreatedAt:      now,
		UpdatedAt:      now,
		Players:        []Player{},
		Contributions:  []Contribution{},
	}
	if in.MaxPlayers != nil {
		n := *in.MaxPlayers
		g.MaxPlayers = &n
	}
	if prompt := strings.TrimSpace(in.StartingPrompt); prompt != "" {
		g.Contributions = append(g.Contributions, Contribution{
			PlayerID:  SystemAuthor,
			Sentence:  prompt,
			Order:     0,
			CreatedAt: now,
		})
	}
	return g, nil
}

// Apply runs a against g. The returned bool is false when the action was an
// accepted no-op (an idempotent re-join), in which case g is returned as is.
func (m *Machine) Apply(g Game, a Action) (Game, bool, error) {
	return a.apply(m, g, m.now())
}

func (a Join) apply(m *Machine, g Game, now time.Time) (Game, bool, error) {
	if g.Status != StatusWaiting && g.Status != StatusActive {
		return g, false, ErrNotJoinable
	}
	if m.Identity.Conflict(g, a.Identity) {
		return g, false, ErrNameTaken
	}
	if _, ok := m.Identity.Index(g, a.Identity); ok {
		return g, false, nil
	}
	if g.Full() {
		return g, false, ErrGameFull
	}
	p := m.Identity.NewPlayer(a.Identity, m.NewID, now)
	for _, existing := range g.Players {
		if existing.ID == p.ID {
			return g, false, ErrNameTaken
		}
	}
	next := g.Clone()
	next.Players = append(next.Players, p)
	if len(next.Players) >= 2 {
		next.Status = StatusActive
	}
	next.UpdatedAt = now
	return next, true, nil
}

func (a Submit) apply(m *Machine, g Game, now time.Time) (Game, bool, error) {
	sentence := strings.TrimSpace(a.Sentence)
	if sentence == "" {
		return g, false, ErrEmptySentence
	}
	if g.Status != StatusActive {
		return g, false, ErrNotActive
	}
	i, ok := m.Identity.Index(g, a.Identity)
	if !ok {
		return g, false, ErrNotInGame
	}
	if i != g.CurrentTurnIndex {
		return g, false, ErrNotPlayerTurn
	}
	next := g.Clone()
	next.Contributions = append(next.Contributions, Contribution{
		PlayerID:  g.Players[i].ID,
		Sentence:  sentence,
		Order:     len(g.Contributions),
		CreatedAt: now,
	})
	next.CurrentTurnIndex = nextTurn(g.CurrentTurnIndex, len(g.Players))
	next.UpdatedAt = now
	return next, true, nil
}

func (Start) apply(_ *Machine, g Game, now time.Time) (Game, bool, error) {
	if g.Status.Terminal() {
		return g, false, ErrGameOver
	}
	if len(g.Players) < 1 {
		return g, false, ErrNotEnoughPlayers
	}
	next := g.Clone()
	next.Status = StatusActive
	next.UpdatedAt = now
	return next, true, nil
}

func (Complete) apply(_ *Machine, g Game, now time.Time) (Game, bool, error) {
	return finish(g, StatusCompleted, now)
}

func (Cancel) apply(_ *Machine, g Game, now time.Time) (Game, bool, error) {
	return finish(g, StatusCancelled, now)
}

func finish(g Game, to Status, now time.Time) (Game, bool, error) {
	if g.Status.Terminal() {
		return g, false, ErrGameOver
	}
	next := g.Clone()
	next.Status = to
	next.UpdatedAt = now
	return next, true, nil
}

// nextTurn wraps modulo the current player count, so players who joined
// mid-game slot into the rotation after the existing ones.
func nextTurn(current, players int) int {
	if players == 0 {
		return 0
	}
	return (current + 1) % players
}
