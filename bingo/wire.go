// bingo/wire.go
// Outbound command bodies. These are the exact field sets the service
// expects; building them involves no I/O.
package bingo

import (
	"net/url"
	"strconv"
)

// socketAuth is the first frame sent on the persistent connection.
type socketAuth struct {
	SocketKey string `json:"socket_key"`
}

type joinBody struct {
	Room        string `json:"room"`
	Password    string `json:"password"`
	Nickname    string `json:"nickname"`
	IsSpectator bool   `json:"is_spectator"`
}

type colorBody struct {
	Room  string `json:"room"`
	Color string `json:"color"`
}

type selectBody struct {
	Room        string `json:"room"`
	Color       string `json:"color"`
	Slot        int    `json:"slot"`
	RemoveColor bool   `json:"remove_color"`
}

type chatBody struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// roomBody is shared by the reveal-card and new-card calls.
type roomBody struct {
	Room string `json:"room"`
}

// Room creation constants. game_type 18 is "Custom (Advanced)"; the variant
// selects fixed (18) versus randomized (172) boards; lockout_mode is 1 for
// non-lockout and 2 for lockout.
const (
	gameTypeCustomAdvanced = 18

	variantFixedBoard = 18
	variantRandomized = 172

	lockoutModeOff = 1
	lockoutModeOn  = 2
)

// createRoomForm builds the form posted to the service root. The nickname
// field here is a fixed label shown in the room history; the creator joins
// under their real nickname right after.
func createRoomForm(s CreateRoomSettings, boardJSON, csrfToken string) url.Values {
	variant := variantFixedBoard
	if s.Randomized {
		variant = variantRandomized
	}
	lockout := lockoutModeOff
	if s.Lockout {
		lockout = lockoutModeOn
	}

	return url.Values{
		"room_name":           {s.Name},
		"passphrase":          {s.Password},
		"nickname":            {creatorNickname},
		"game_type":           {strconv.Itoa(gameTypeCustomAdvanced)},
		"variant_type":        {strconv.Itoa(variant)},
		"custom_json":         {boardJSON},
		"lockout_mode":        {strconv.Itoa(lockout)},
		"seed":                {s.Seed},
		// The creating request always registers as a spectator; the real
		// join that follows carries the caller's own preference.
		"is_spectator":        {"true"},
		"hide_card":           {strconv.FormatBool(s.HideCard)},
		"csrfmiddlewaretoken": {csrfToken},
	}
}
