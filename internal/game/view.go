package game

type PlayerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ContributionView struct {
	Order    int    `json:"order"`
	PlayerID string `json:"playerId"`
	Author   string `json:"author"`
	Sentence string `json:"sentence"`
}

// View is the read projection returned by getGameState. Timestamps are
// milliseconds since the epoch.
type View struct {
	GameID                string             `json:"gameId"`
	Title                 string             `json:"title"`
	Status                Status             `json:"status"`
	Players               []PlayerView       `json:"players"`
	CurrentTurnIndex      int                `json:"currentTurnIndex"`
	CurrentTurnPlayerID   *string            `json:"currentTurnPlayerId"`
	CurrentTurnPlayerName *string            `json:"currentTurnPlayerName"`
	Contributions         []ContributionView `json:"contributions"`
	StartingPrompt        string             `json:"startingPrompt,omitempty"`
	CreatedAt             int64              `json:"createdAt"`
	UpdatedAt             int64              `json:"updatedAt"`
	MaxPlayers            *int               `json:"maxPlayers"`
}

func NewView(g Game) View {
	v := View{
		GameID:           g.ID,
		Title:            g.Title,
		Status:           g.Status,
		Players:          make([]PlayerView, 0, len(g.Players)),
		CurrentTurnIndex: g.CurrentTurnIndex,
		Contributions:    make([]ContributionView, 0, len(g.Contributions)),
		StartingPrompt:   g.StartingPrompt,
		CreatedAt:        g.CreatedAt.UnixMilli(),
		UpdatedAt:        g.UpdatedAt.UnixMilli(),
		MaxPlayers:       g.MaxPlayers,
	}
	names := make(map[string]string, len(g.Players))
	for _, p := range g.Players {
		v.Players = append(v.Players, PlayerView{ID: p.ID, Name: p.Name})
		names[p.ID] = p.Name
	}
	if p, ok := g.CurrentPlayer(); ok {
		id, name := p.ID, p.Name
		v.CurrentTurnPlayerID = &id
		v.CurrentTurnPlayerName = &name
	}
	for _, c := range g.Contributions {
		author := names[c.PlayerID]
		if c.PlayerID == SystemAuthor {
			author = SystemAuthor
		}
		v.Contributions = append(v.Contributions, ContributionView{
			Order:    c.Order,
			PlayerID: c.PlayerID,
			Author:   author,
			Sentence: c.Sentence,
		})
	}
	return v
}
