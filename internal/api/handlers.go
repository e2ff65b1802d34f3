package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kiliankoe/storychain/internal/game"
	"github.com/kiliankoe/storychain/internal/service"
)

// Handler serves the game actions over plain JSON HTTP.
type Handler struct {
	svc     *service.Service
	devMode bool
}

func NewHandler(svc *service.Service, devMode bool) *Handler {
	return &Handler{svc: svc, devMode: devMode}
}

func (h *Handler) Mount(r gin.IRoutes) {
	r.POST("/createGame", h.createGame)
	r.POST("/joinGame", h.joinGame)
	r.POST("/submitSentence", h.submitSentence)
	r.POST("/startGame", h.startGame)
	r.POST("/completeGame", h.completeGame)
	r.POST("/cancelGame", h.cancelGame)
	r.GET("/getGameState", h.getGameState)
}

// body is a loosely typed JSON object. Fields of the wrong type are treated
// as absent, the same as a missing key.
type body map[string]any

func readBody(c *gin.Context) body {
	b := body{}
	if c.Request.ContentLength == 0 {
		return b
	}
	if err := c.ShouldBindJSON(&b); err != nil {
		return body{}
	}
	return b
}

func (b body) str(key string) string {
	s, _ := b[key].(string)
	return s
}

func (b body) has(key string) bool {
	_, ok := b[key]
	return ok
}

func (h *Handler) createGame(c *gin.Context) {
	b := readBody(c)
	if b.str("title") == "" {
		h.writeError(c, game.ErrInvalidTitle)
		return
	}
	in := game.CreateInput{Title: b.str("title"), StartingPrompt: b.str("startingPrompt")}
	if b.has("maxPlayers") {
		n, ok := b["maxPlayers"].(float64)
		if !ok || n < 2 || n != math.Trunc(n) || n > math.MaxInt32 {
			h.writeError(c, game.ErrInvalidMaxPlayers)
			return
		}
		limit := int(n)
		in.MaxPlayers = &limit
	}
	id, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"gameId": id})
}

// identity reads the acting player. In name mode the name may come as
// playerName or name.
func (h *Handler) identity(b body) game.Identity {
	id := game.Identity{PlayerID: b.str("playerId"), Name: b.str("name")}
	if h.svc.IdentityMode() == game.ModeName && b.str("playerName") != "" {
		id.Name = b.str("playerName")
	}
	return id
}

func (h *Handler) joinGame(c *gin.Context) {
	b := readBody(c)
	if b.str("gameId") == "" {
		h.writeError(c, service.Missing("gameId"))
		return
	}
	if err := h.svc.Join(c.Request.Context(), b.str("gameId"), h.identity(b)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"joined": true})
}

func (h *Handler) submitSentence(c *gin.Context) {
	b := readBody(c)
	gameID := b.str("gameId")
	if gameID == "" {
		h.writeError(c, service.Missing("gameId"))
		return
	}
	id := h.identity(b)
	if h.svc.IdentityMode() == game.ModeID && id.PlayerID == "" {
		h.writeError(c, service.Missing("playerId"))
		return
	}
	if b.str("sentence") == "" {
		h.writeError(c, service.Missing("sentence"))
		return
	}
	if err := h.svc.Submit(c.Request.Context(), gameID, id, b.str("sentence")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted": true})
}

func (h *Handler) startGame(c *gin.Context) {
	if err := h.svc.Start(c.Request.Context(), readBody(c).str("gameId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true})
}

func (h *Handler) completeGame(c *gin.Context) {
	if err := h.svc.Complete(c.Request.Context(), readBody(c).str("gameId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

func (h *Handler) cancelGame(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), readBody(c).str("gameId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) getGameState(c *gin.Context) {
	v, err := h.svc.View(c.Request.Context(), c.Query("gameId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
