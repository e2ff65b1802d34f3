package game

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testMachine returns a machine whose clock advances one second per call
// and whose generated ids are p1, p2, ...
func testMachine(r Resolver) *Machine {
	m := NewMachine(r)
	tick := 0
	m.Now = func() time.Time {
		tick++
		return epoch.Add(time.Duration(tick) * time.Second)
	}
	n := 0
	m.NewID = func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
	return m
}

func intp(n int) *int { return &n }

func mustCreate(t *testing.T, m *Machine, in CreateInput) Game {
	t.Helper()
	g, err := m.Create(in, "g1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return g
}

func mustApply(t *testing.T, m *Machine, g Game, a Action) Game {
	t.Helper()
	next, _, err := m.Apply(g, a)
	if err != nil {
		t.Fatalf("%s: %v", a.Name(), err)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("%s left invalid game: %v", a.Name(), err)
	}
	return next
}

func join(id, name string) Join { return Join{Identity: Identity{PlayerID: id, Name: name}} }

func submit(id, sentence string) Submit {
	return Submit{Identity: Identity{PlayerID: id}, Sentence: sentence}
}

func TestCreate(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "  The Lighthouse ", StartingPrompt: " It was dark. ", MaxPlayers: intp(4)})

	if g.Title != "The Lighthouse" {
		t.Fatalf("expected trimmed title, got %q", g.Title)
	}
	if g.Status != StatusWaiting {
		t.Fatalf("expected waiting, got %s", g.Status)
	}
	if len(g.Players) != 0 || g.CurrentTurnIndex != 0 {
		t.Fatalf("expected no players and turn 0, got %d players turn %d", len(g.Players), g.CurrentTurnIndex)
	}
	if len(g.Contributions) != 1 {
		t.Fatalf("expected seeded prompt, got %d contributions", len(g.Contributions))
	}
	c := g.Contributions[0]
	if c.PlayerID != SystemAuthor || c.Sentence != "It was dark." || c.Order != 0 {
		t.Fatalf("unexpected seed contribution %+v", c)
	}
	if g.MaxPlayers == nil || *g.MaxPlayers != 4 {
		t.Fatalf("expected max players 4, got %v", g.MaxPlayers)
	}
	if !g.CreatedAt.Equal(g.UpdatedAt) {
		t.Fatal("createdAt and updatedAt should match on create")
	}
}

func TestCreateWithoutPrompt(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "Quiet", StartingPrompt: "   "})
	if len(g.Contributions) != 0 {
		t.Fatalf("blank prompt should not be seeded, got %d contributions", len(g.Contributions))
	}
	if g.MaxPlayers != nil {
		t.Fatal("max players should be unset")
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	m := testMachine(nil)
	if _, err := m.Create(CreateInput{Title: "   "}, "g1"); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := m.Create(CreateInput{Title: "x", MaxPlayers: intp(1)}, "g1"); !errors.Is(err, ErrInvalidMaxPlayers) {
		t.Fatalf("expected ErrInvalidMaxPlayers, got %v", err)
	}
}

func TestJoinActivatesWithSecondPlayer(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})

	g = mustApply(t, m, g, join("a", "Alice"))
	if g.Status != StatusWaiting {
		t.Fatalf("one player should keep the game waiting, got %s", g.Status)
	}
	g = mustApply(t, m, g, join("b", "Bob"))
	if g.Status != StatusActive {
		t.Fatalf("second player should activate the game, got %s", g.Status)
	}
	if g.CurrentTurnIndex != 0 {
		t.Fatalf("first player should be up, got turn %d", g.CurrentTurnIndex)
	}
	if g.Players[1].Name != "Bob" || g.Players[1].ID != "b" {
		t.Fatalf("unexpected second player %+v", g.Players[1])
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})
	g = mustApply(t, m, g, join("a", "Alice"))

	next, changed, err := m.Apply(g, join("a", "Someone Else"))
	if err != nil {
		t.Fatalf("rejoin should succeed: %v", err)
	}
	if changed {
		t.Fatal("rejoin should be a no-op")
	}
	if len(next.Players) != 1 || next.Players[0].Name != "Alice" {
		t.Fatalf("rejoin should not alter players: %+v", next.Players)
	}
	if !next.UpdatedAt.Equal(g.UpdatedAt) {
		t.Fatal("rejoin should not touch updatedAt")
	}
}

func TestJoinRespectsCapacity(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x", MaxPlayers: intp(2)})
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, join("b", "Bob"))

	if _, _, err := m.Apply(g, join("c", "Carol")); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
	// A player already seated can still rejoin a full game.
	if _, _, err := m.Apply(g, join("b", "Bob")); err != nil {
		t.Fatalf("present player rejoin on full game: %v", err)
	}
}

func TestJoinTerminalGame(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, Cancel{})

	if _, _, err := m.Apply(g, join("b", "Bob")); !errors.Is(err, ErrNotJoinable) {
		t.Fatalf("expected ErrNotJoinable, got %v", err)
	}
	if _, _, err := m.Apply(g, join("a", "Alice")); !errors.Is(err, ErrNotJoinable) {
		t.Fatalf("expected ErrNotJoinable for seated player too, got %v", err)
	}
}

func TestJoinActiveGameSlotsIntoRotation(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, join("b", "Bob"))
	g = mustApply(t, m, g, submit("a", "One."))
	g = mustApply(t, m, g, join("c", "Carol"))

	if g.CurrentTurnIndex != 1 {
		t.Fatalf("late join should not move the turn, got %d", g.CurrentTurnIndex)
	}
	g = mustApply(t, m, g, submit("b", "Two."))
	if g.CurrentTurnIndex != 2 {
		t.Fatalf("expected Carol up next, got turn %d", g.CurrentTurnIndex)
	}
	g = mustApply(t, m, g, submit("c", "Three."))
	if g.CurrentTurnIndex != 0 {
		t.Fatalf("expected rotation to wrap, got turn %d", g.CurrentTurnIndex)
	}
}

func TestSubmitRotatesTurns(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x", StartingPrompt: "Once upon a time."})
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, join("b", "Bob"))

	g = mustApply(t, m, g, submit("a", "  There was a fox.  "))
	g = mustApply(t, m, g, submit("b", "It was hungry."))
	g = mustApply(t, m, g, submit("a", "The end."))

	want := []struct {
		player, sentence string
	}{
		{SystemAuthor, "Once upon a time."},
		{"a", "There was a fox."},
		{"b", "It was hungry."},
		{"a", "The end."},
	}
	if len(g.Contributions) != len(want) {
		t.Fatalf("expected %d contributions, got %d", len(want), len(g.Contributions))
	}
	for i, w := range want {
		c := g.Contributions[i]
		if c.Order != i || c.PlayerID != w.player || c.Sentence != w.sentence {
			t.Fatalf("contribution %d: got %+v, want %s %q", i, c, w.player, w.sentence)
		}
	}
	if g.CurrentTurnIndex != 1 {
		t.Fatalf("expected Bob up, got turn %d", g.CurrentTurnIndex)
	}
}

func TestSubmitRejections(t *testing.T) {
	m := testMachine(nil)
	waiting := mustCreate(t, m, CreateInput{Title: "x"})
	waiting = mustApply(t, m, waiting, join("a", "Alice"))
	active := mustApply(t, m, waiting, join("b", "Bob"))

	tests := []struct {
		name string
		g    Game
		a    Submit
		want error
	}{
		{"empty sentence", active, submit("a", "  "), ErrEmptySentence},
		{"waiting game", waiting, submit("a", "Hi."), ErrNotActive},
		{"stranger", active, submit("z", "Hi."), ErrNotInGame},
		{"out of turn", active, submit("b", "Hi."), ErrNotPlayerTurn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, changed, err := m.Apply(tc.g, tc.a)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if changed {
				t.Fatal("rejected submit should not report a change")
			}
			if len(next.Contributions) != len(tc.g.Contributions) {
				t.Fatal("rejected submit should not append")
			}
		})
	}
}

func TestStart(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})

	if _, _, err := m.Apply(g, Start{}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, Start{})
	if g.Status != StatusActive {
		t.Fatalf("expected active, got %s", g.Status)
	}
	// A solo player keeps the turn.
	g = mustApply(t, m, g, submit("a", "Alone."))
	if g.CurrentTurnIndex != 0 {
		t.Fatalf("solo rotation should stay at 0, got %d", g.CurrentTurnIndex)
	}
	// Starting an already active game is accepted.
	g = mustApply(t, m, g, Start{})

	g = mustApply(t, m, g, Complete{})
	if _, _, err := m.Apply(g, Start{}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestCompleteAndCancel(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, join("b", "Bob"))

	done := mustApply(t, m, g, Complete{})
	if done.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if _, _, err := m.Apply(done, submit("a", "More.")); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive after completion, got %v", err)
	}
	if _, _, err := m.Apply(done, Cancel{}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}

	cancelled := mustApply(t, m, g, Cancel{})
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, _, err := m.Apply(cancelled, Complete{}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x", MaxPlayers: intp(3)})
	g = mustApply(t, m, g, join("a", "Alice"))
	g = mustApply(t, m, g, join("b", "Bob"))
	before := g.Clone()

	next := mustApply(t, m, g, submit("a", "Hello."))
	next.Players[0].Name = "Mallory"
	*next.MaxPlayers = 9

	if len(g.Contributions) != len(before.Contributions) {
		t.Fatal("input contributions changed")
	}
	if g.Players[0].Name != "Alice" {
		t.Fatal("input players aliased by result")
	}
	if *g.MaxPlayers != 3 {
		t.Fatal("input max players aliased by result")
	}
	if g.CurrentTurnIndex != before.CurrentTurnIndex || !g.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatal("input game fields changed")
	}
}

func TestUpdatedAtAdvancesOnChange(t *testing.T) {
	m := testMachine(nil)
	g := mustCreate(t, m, CreateInput{Title: "x"})
	next := mustApply(t, m, g, join("a", "Alice"))
	if !next.UpdatedAt.After(g.UpdatedAt) {
		t.Fatalf("updatedAt should advance: %v -> %v", g.UpdatedAt, next.UpdatedAt)
	}
	if !next.CreatedAt.Equal(g.CreatedAt) {
		t.Fatal("createdAt should never change")
	}
	if !next.Players[0].JoinedAt.Equal(next.UpdatedAt) {
		t.Fatal("joinedAt should be the action time")
	}
}

func TestNameModeJoin(t *testing.T) {
	m := testMachine(ByName{})
	g := mustCreate(t, m, CreateInput{Title: "x"})
	g = mustApply(t, m, g, Join{Identity: Identity{Name: "Alice"}})

	if g.Players[0].ID != "p1" {
		t.Fatalf("expected generated id p1, got %s", g.Players[0].ID)
	}
	next, changed, err := m.Apply(g, Join{Identity: Identity{Name: "  ALICE "}})
	if err != nil || changed {
		t.Fatalf("case-insensitive rejoin should be a no-op, got changed=%v err=%v", changed, err)
	}
	if len(next.Players) != 1 {
		t.Fatalf("expected one player, got %d", len(next.Players))
	}
	if _, _, err := m.Apply(g, Join{Identity: Identity{Name: "alice", PlayerID: "other"}}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if _, _, err := m.Apply(g, Join{Identity: Identity{Name: "alice", PlayerID: "p1"}}); err != nil {
		t.Fatalf("matching player id should rejoin: %v", err)
	}
	if _, _, err := m.Apply(g, Join{Identity: Identity{Name: "Bob", PlayerID: "p1"}}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("reused player id under a new name should be rejected, got %v", err)
	}
}

func TestNameModeSubmit(t *testing.T) {
	m := testMachine(ByName{})
	g := mustCreate(t, m, CreateInput{Title: "x"})
	g = mustApply(t, m, g, Join{Identity: Identity{Name: "Alice"}})
	g = mustApply(t, m, g, Join{Identity: Identity{Name: "Bob"}})

	g = mustApply(t, m, g, Submit{Identity: Identity{Name: "alice"}, Sentence: "Hi."})
	if g.Contributions[0].PlayerID != "p1" {
		t.Fatalf("contribution should carry the stored id, got %s", g.Contributions[0].PlayerID)
	}
	if _, _, err := m.Apply(g, Submit{Identity: Identity{Name: "ALICE"}, Sentence: "Again."}); !errors.Is(err, ErrNotPlayerTurn) {
		t.Fatalf("expected ErrNotPlayerTurn, got %v", err)
	}
	if _, _, err := m.Apply(g, Submit{Identity: Identity{Name: "Eve"}, Sentence: "Hi."}); !errors.Is(err, ErrNotInGame) {
		t.Fatalf("expected ErrNotInGame, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	m := testMachine(nil)
	base := mustCreate(t, m, CreateInput{Title: "x", StartingPrompt: "Go."})
	base = mustApply(t, m, base, join("a", "Alice"))

	tests := []struct {
		name   string
		mutate func(g *Game)
	}{
		{"empty id", func(g *Game) { g.ID = "" }},
		{"unknown status", func(g *Game) { g.Status = "paused" }},
		{"turn out of range", func(g *Game) { g.CurrentTurnIndex = 1 }},
		{"turn with no players", func(g *Game) { g.Players = nil; g.CurrentTurnIndex = 1 }},
		{"order gap", func(g *Game) { g.Contributions[0].Order = 3 }},
		{"over capacity", func(g *Game) { g.MaxPlayers = intp(2); g.Players = append(g.Players, Player{ID: "b"}, Player{ID: "c"}) }},
		{"duplicate player", func(g *Game) { g.Players = append(g.Players, Player{ID: "a"}) }},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base game should be valid: %v", err)
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := base.Clone()
			tc.mutate(&g)
			if err := g.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
