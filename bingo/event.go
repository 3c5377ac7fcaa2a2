// bingo/event.go
// Decoding of the frames broadcast by the room service into domain events.
package bingo

import "encoding/json"

// EventKind discriminates the closed set of domain events.
type EventKind int

const (
	// EventConnected: a player (possibly this client) joined the room.
	EventConnected EventKind = iota + 1
	// EventDisconnected: a player left the room.
	EventDisconnected
	// EventChat: a chat message.
	EventChat
	// EventColor: a player changed team; the new team is in Player.Team.
	EventColor
	// EventGoal: a square was marked or cleared.
	EventGoal
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventChat:
		return "chat"
	case EventColor:
		return "color"
	case EventGoal:
		return "goal"
	default:
		return "unknown"
	}
}

// Event is one decoded occurrence from the live stream or the historical
// feed. Kind selects which of the optional fields are meaningful: Room for
// connection events, Text for chat, Square and Removed for goal events.
// Player and Timestamp are carried by every kind.
type Event struct {
	Kind      EventKind
	Room      string
	Player    Player
	Timestamp uint64
	Text      string
	Square    Square
	Removed   bool
}

// wireEvent is the superset JSON shape of every broadcast frame.
type wireEvent struct {
	Type      string      `json:"type"`
	EventType string      `json:"event_type"`
	Room      string      `json:"room"`
	Player    *wirePlayer `json:"player"`
	Timestamp uint64      `json:"timestamp"`
	Text      string      `json:"text"`
	Square    *wireSquare `json:"square"`
}

// ParseEvent decodes one raw frame. It reports ok=false for frames that are
// not JSON objects or whose type is not one this client handles; it never
// panics, whatever the payload looks like. Callers own the logging of
// unhandled frames.
func ParseEvent(raw []byte) (Event, bool) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, false
	}
	return w.event()
}

func (w *wireEvent) event() (Event, bool) {
	ev := Event{
		Room:      w.Room,
		Player:    w.Player.player(),
		Timestamp: w.Timestamp,
	}

	switch w.Type {
	case "connection":
		switch w.EventType {
		case "connected":
			ev.Kind = EventConnected
		case "disconnected":
			ev.Kind = EventDisconnected
		default:
			return Event{}, false
		}
	case "chat":
		ev.Kind = EventChat
		ev.Text = w.Text
	case "color":
		ev.Kind = EventColor
	case "goal":
		ev.Kind = EventGoal
		ev.Square = w.Square.square()
		if w.Square != nil {
			ev.Removed = w.Square.Remove
		}
	default:
		return Event{}, false
	}

	return ev, true
}
