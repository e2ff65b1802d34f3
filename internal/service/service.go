package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/storychain/internal/game"
	"github.com/kiliankoe/storychain/internal/metrics"
	"github.com/kiliankoe/storychain/internal/store"
)

// maxCreateAttempts bounds id collisions on create. Ids come from a space
// far larger than any live key set, so hitting it means the generator is
// broken rather than the store being full.
const maxCreateAttempts = 16

type Options struct {
	Logger  *zerolog.Logger
	Metrics *metrics.Recorder
	// NewGameID generates candidate game ids; defaults to UUIDs.
	NewGameID func() string
	// ExportFile, when set, receives the story of every completed game.
	ExportFile string
}

// Service runs game actions as one atomic unit of work per game.
type Service struct {
	store      store.Store
	machine    *game.Machine
	log        zerolog.Logger
	metrics    *metrics.Recorder
	newGameID  func() string
	exportFile string
}

func New(st store.Store, m *game.Machine, opts Options) *Service {
	s := &Service{
		store:      st,
		machine:    m,
		log:        log.Logger,
		metrics:    opts.Metrics,
		newGameID:  opts.NewGameID,
		exportFile: opts.ExportFile,
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	if s.newGameID == nil {
		s.newGameID = game.NewUUID
	}
	return s
}

// IdentityMode reports which identity scheme joins and submits use.
func (s *Service) IdentityMode() string { return s.machine.Identity.Mode() }

// Create stores a new waiting game and returns its id.
func (s *Service) Create(ctx context.Context, in game.CreateInput) (string, error) {
	const action = "create"
	if strings.TrimSpace(in.Title) == "" {
		return "", s.fail(action, "", game.ErrInvalidTitle)
	}
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := s.newGameID()
		g, err := s.machine.Create(in, id)
		if err != nil {
			return "", s.fail(action, "", err)
		}
		err = s.store.Create(ctx, g)
		if errors.Is(err, store.ErrExists) {
			s.log.Debug().Str("gameId", id).Msg("game id collision")
			continue
		}
		if err != nil {
			return "", s.fail(action, id, err)
		}
		s.ok(action, g)
		return id, nil
	}
	return "", s.fail(action, "", fmt.Errorf("no free game id after %d attempts", maxCreateAttempts))
}

func (s *Service) Join(ctx context.Context, gameID string, id game.Identity) error {
	if gameID == "" {
		return s.reject("join", Missing("gameId"))
	}
	if err := s.machine.Identity.Validate(id, true); err != nil {
		return s.fail("join", gameID, err)
	}
	_, err := s.perform(ctx, gameID, game.Join{Identity: id})
	return err
}

func (s *Service) Submit(ctx context.Context, gameID string, id game.Identity, sentence string) error {
	if gameID == "" {
		return s.reject("submit", Missing("gameId"))
	}
	if err := s.machine.Identity.Validate(id, false); err != nil {
		return s.fail("submit", gameID, err)
	}
	if strings.TrimSpace(sentence) == "" {
		return s.fail("submit", gameID, game.ErrEmptySentence)
	}
	_, err := s.perform(ctx, gameID, game.Submit{Identity: id, Sentence: sentence})
	return err
}

func (s *Service) Start(ctx context.Context, gameID string) error {
	return s.simple(ctx, gameID, game.Start{})
}

func (s *Service) Complete(ctx context.Context, gameID string) error {
	g, err := s.simpleGame(ctx, gameID, game.Complete{})
	if err != nil {
		return err
	}
	s.export(g)
	return nil
}

func (s *Service) Cancel(ctx context.Context, gameID string) error {
	return s.simple(ctx, gameID, game.Cancel{})
}

// View returns the read projection of a game without running any action.
func (s *Service) View(ctx context.Context, gameID string) (game.View, error) {
	if gameID == "" {
		return game.View{}, s.reject("view", Missing("gameId"))
	}
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return game.View{}, s.fail("view", gameID, err)
	}
	return game.NewView(g), nil
}

func (s *Service) simple(ctx context.Context, gameID string, a game.Action) error {
	_, err := s.simpleGame(ctx, gameID, a)
	return err
}

func (s *Service) simpleGame(ctx context.Context, gameID string, a game.Action) (game.Game, error) {
	if gameID == "" {
		return game.Game{}, s.reject(a.Name(), Missing("gameId"))
	}
	return s.perform(ctx, gameID, a)
}

func (s *Service) perform(ctx context.Context, gameID string, a game.Action) (game.Game, error) {
	g, err := s.store.Atomic(ctx, gameID, func(cur game.Game) (game.Game, bool, error) {
		return s.machine.Apply(cur, a)
	})
	if err != nil {
		return game.Game{}, s.fail(a.Name(), gameID, err)
	}
	s.ok(a.Name(), g)
	return g, nil
}

func (s *Service) export(g game.Game) {
	if s.exportFile == "" {
		return
	}
	if err := game.ExportFile(s.exportFile, g); err != nil {
		s.log.Error().Err(err).Str("gameId", g.ID).Msg("failed to export story")
		return
	}
	s.log.Info().Str("gameId", g.ID).Str("file", s.exportFile).Msg("exported story")
}

func (s *Service) ok(action string, g game.Game) {
	s.metrics.RecordAction(action, "ok")
	s.log.Info().
		Str("action", action).
		Str("gameId", g.ID).
		Str("status", string(g.Status)).
		Int("players", len(g.Players)).
		Int("contributions", len(g.Contributions)).
		Msg("game:" + action)
}

func (s *Service) fail(action, gameID string, err error) error {
	se := classify(err)
	if se.Kind == KindInternal {
		s.log.Error().Err(err).Str("action", action).Str("gameId", gameID).Msg("game action failed")
	} else {
		s.log.Debug().Str("action", action).Str("gameId", gameID).Str("code", se.Code).Msg("game action rejected")
	}
	s.metrics.RecordAction(action, se.Code)
	return se
}

func (s *Service) reject(action string, se *Error) error {
	s.metrics.RecordAction(action, se.Code)
	return se
}
