// bingo/team.go
// Team flags and the color names/hex values used on the wire.
package bingo

import "strings"

// Team is a bit flag over the color palette offered by the room service. A
// player holds at most one color, but a square in a non-lockout room can be
// owned by several teams at once, so the flag form is kept for both.
type Team uint16

const (
	// TeamBlank is the zero value: no team. It is never combined with a
	// color bit.
	TeamBlank Team = 0

	TeamPink   Team = 1 << 1
	TeamRed    Team = 1 << 2
	TeamOrange Team = 1 << 3
	TeamBrown  Team = 1 << 4
	TeamYellow Team = 1 << 5
	TeamGreen  Team = 1 << 6
	TeamTeal   Team = 1 << 7
	TeamBlue   Team = 1 << 8
	TeamNavy   Team = 1 << 9
	TeamPurple Team = 1 << 10
)

var teamNames = map[Team]string{
	TeamPink:   "pink",
	TeamRed:    "red",
	TeamOrange: "orange",
	TeamBrown:  "brown",
	TeamYellow: "yellow",
	TeamGreen:  "green",
	TeamTeal:   "teal",
	TeamBlue:   "blue",
	TeamNavy:   "navy",
	TeamPurple: "purple",
}

var teamHex = map[Team]string{
	TeamPink:   "#ED86AA",
	TeamRed:    "#FF4944",
	TeamOrange: "#FF9C12",
	TeamBrown:  "#AB5C23",
	TeamYellow: "#D8D014",
	TeamGreen:  "#31D814",
	TeamTeal:   "#419695",
	TeamBlue:   "#409CFF",
	TeamNavy:   "#0D48B5",
	TeamPurple: "#822DBF",
}

// Name returns the lowercase color name the service expects, or "blank".
func (t Team) Name() string {
	if name, ok := teamNames[t]; ok {
		return name
	}
	return "blank"
}

func (t Team) String() string { return t.Name() }

// HexColor returns the display color of the team. Blank and unknown values
// map to white.
func (t Team) HexColor() string {
	if hex, ok := teamHex[t]; ok {
		return hex
	}
	return "#FFFFFF"
}

// ParseTeam maps a single color name to its team. Empty or unknown names map
// to TeamBlank.
func ParseTeam(name string) Team {
	name = strings.ToLower(strings.TrimSpace(name))
	for team, n := range teamNames {
		if n == name {
			return team
		}
	}
	return TeamBlank
}

// ParseTeams maps a space-separated list of color names, as found in a
// square's "colors" field, to the teams it denotes. Blank entries are
// dropped, so an empty or unknown list yields an empty slice.
func ParseTeams(names string) []Team {
	teams := []Team{}
	for _, name := range strings.Fields(names) {
		if team := ParseTeam(name); team != TeamBlank {
			teams = append(teams, team)
		}
	}
	return teams
}

// AllTeams lists every color team in palette order.
func AllTeams() []Team {
	return []Team{
		TeamPink, TeamRed, TeamOrange, TeamBrown, TeamYellow,
		TeamGreen, TeamTeal, TeamBlue, TeamNavy, TeamPurple,
	}
}
