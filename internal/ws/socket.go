package ws

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/storychain/internal/game"
	"github.com/kiliankoe/storychain/internal/service"
)

// requestTimeout bounds a single socket action against the store.
const requestTimeout = 10 * time.Second

// Server exposes the game actions as socket.io events. Every event answers
// through its ack with the same body the HTTP API returns; nothing is ever
// pushed unprompted.
type Server struct {
	svc *service.Service
}

func New(svc *service.Service) *Server {
	return &Server{svc: svc}
}

type CreatePayload struct {
	Title          string   `json:"title"`
	StartingPrompt string   `json:"startingPrompt"`
	MaxPlayers     *float64 `json:"maxPlayers"`
}

type ActionPayload struct {
	GameID     string `json:"gameId"`
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	PlayerName string `json:"playerName"`
	Sentence   string `json:"sentence"`
}

// Mount attaches the Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "game:create", func(s socketio.Conn, p CreatePayload) map[string]any {
		return srv.Create(p)
	})
	io.OnEvent("/", "game:join", func(s socketio.Conn, p ActionPayload) map[string]any {
		return srv.Join(p)
	})
	io.OnEvent("/", "game:submit", func(s socketio.Conn, p ActionPayload) map[string]any {
		return srv.Submit(p)
	})
	io.OnEvent("/", "game:start", func(s socketio.Conn, p ActionPayload) map[string]any {
		return srv.Start(p)
	})
	io.OnEvent("/", "game:complete", func(s socketio.Conn, p ActionPayload) map[string]any {
		return srv.Complete(p)
	})
	io.OnEvent("/", "game:cancel", func(s socketio.Conn, p ActionPayload) map[string]any {
		return srv.Cancel(p)
	})
	io.OnEvent("/", "game:state", func(s socketio.Conn, p ActionPayload) map[string]any {
		return srv.State(p)
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve stopped")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) Create(p CreatePayload) map[string]any {
	in := game.CreateInput{Title: p.Title, StartingPrompt: p.StartingPrompt}
	if p.MaxPlayers != nil {
		n := *p.MaxPlayers
		if n < 2 || n != math.Trunc(n) || n > math.MaxInt32 {
			return errBody(game.ErrInvalidMaxPlayers)
		}
		limit := int(n)
		in.MaxPlayers = &limit
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	id, err := srv.svc.Create(ctx, in)
	if err != nil {
		return errBody(err)
	}
	return map[string]any{"gameId": id}
}

func (srv *Server) Join(p ActionPayload) map[string]any {
	return srv.do(func(ctx context.Context) error {
		return srv.svc.Join(ctx, p.GameID, p.identity())
	}, "joined")
}

func (srv *Server) Submit(p ActionPayload) map[string]any {
	return srv.do(func(ctx context.Context) error {
		return srv.svc.Submit(ctx, p.GameID, p.identity(), p.Sentence)
	}, "submitted")
}

func (srv *Server) Start(p ActionPayload) map[string]any {
	return srv.do(func(ctx context.Context) error {
		return srv.svc.Start(ctx, p.GameID)
	}, "started")
}

func (srv *Server) Complete(p ActionPayload) map[string]any {
	return srv.do(func(ctx context.Context) error {
		return srv.svc.Complete(ctx, p.GameID)
	}, "completed")
}

func (srv *Server) Cancel(p ActionPayload) map[string]any {
	return srv.do(func(ctx context.Context) error {
		return srv.svc.Cancel(ctx, p.GameID)
	}, "cancelled")
}

func (srv *Server) State(p ActionPayload) map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	v, err := srv.svc.View(ctx, p.GameID)
	if err != nil {
		return errBody(err)
	}
	return map[string]any{"state": v}
}

func (srv *Server) do(fn func(ctx context.Context) error, flag string) map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return errBody(err)
	}
	return map[string]any{flag: true}
}

func (p ActionPayload) identity() game.Identity {
	id := game.Identity{PlayerID: p.PlayerID, Name: p.Name}
	if id.Name == "" {
		id.Name = p.PlayerName
	}
	return id
}

func errBody(err error) map[string]any {
	se := service.AsError(err)
	return map[string]any{"error": se.Message, "code": se.Code}
}
