// bingo/player.go
package bingo

// Player is the identity of a room participant as reported by the service.
// The zero value stands for "nobody": no UUID, no name, blank team.
type Player struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Team        Team   `json:"-"`
	IsSpectator bool   `json:"is_spectator"`
}

// wirePlayer is the JSON shape of a player sub-object in events and feed
// entries. The whole object may be absent, which decodes to the zero Player.
type wirePlayer struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	IsSpectator bool   `json:"is_spectator"`
}

func (w *wirePlayer) player() Player {
	if w == nil {
		return Player{}
	}
	return Player{
		UUID:        w.UUID,
		Name:        w.Name,
		Team:        ParseTeam(w.Color),
		IsSpectator: w.IsSpectator,
	}
}
