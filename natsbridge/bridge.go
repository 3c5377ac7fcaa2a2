// natsbridge/bridge.go
// Republishes a client's room events onto NATS subjects so external
// consumers can follow a room without holding the client.
package natsbridge

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/WarperSan/BingoAPI/bingo"
	"github.com/WarperSan/BingoAPI/internal/logger"
)

const (
	streamName     = "BINGO"
	subjectPrefix  = "bingo"
	streamSubjects = subjectPrefix + ".>"
)

// Bridge publishes room events as JSON to `bingo.<room>.<kind>` subjects.
// With JetStream available the events are persisted into the BINGO stream;
// otherwise they go out as plain publishes.
type Bridge struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log *logger.Logger
}

// New wires a bridge to an established NATS connection. JetStream setup
// failures are logged and degrade the bridge to core publishes rather than
// failing it.
func New(nc *nats.Conn, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.NewLogger("natsbridge")
	}
	b := &Bridge{nc: nc, log: log}

	js, err := nc.JetStream()
	if err != nil {
		log.Warnf("JetStream unavailable, events will not be persisted: %v", err)
		return b
	}

	streamConfig := &nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{streamSubjects},
		Storage:  nats.FileStorage,
	}
	if _, err := js.StreamInfo(streamName); err != nil {
		if _, err := js.AddStream(streamConfig); err != nil {
			log.Errorf("Error creating stream %s: %v", streamName, err)
			return b
		}
		log.Infof("Created stream: %s", streamName)
	} else {
		if _, err := js.UpdateStream(streamConfig); err != nil {
			log.Errorf("Error updating stream %s: %v", streamName, err)
			return b
		}
	}

	b.js = js
	return b
}

// Attach subscribes the bridge to every event of the given client. The
// subscription lasts for the client's current room membership.
func (b *Bridge) Attach(c *bingo.Client) {
	c.Subscribe(bingo.Subscriber{
		SelfConnected: func(roomID string, self bingo.Player) {
			b.publish(roomID, "connected", connectionPayload(roomID, self, true))
		},
		PeerConnected: func(roomID string, player bingo.Player) {
			b.publish(roomID, "connected", connectionPayload(roomID, player, false))
		},
		SelfDisconnected: func() {
			// Membership is already cleared; announce without a room
			// segment consumers could filter on.
			b.publish("", "disconnected", map[string]interface{}{"self": true})
		},
		PeerDisconnected: func(roomID string, player bingo.Player) {
			b.publish(roomID, "disconnected", connectionPayload(roomID, player, false))
		},
		SelfChat: func(text string, timestamp uint64) {
			b.publish(c.RoomID(), "chat", chatPayload(c.Self(), text, timestamp, true))
		},
		PeerChat: func(player bingo.Player, text string, timestamp uint64) {
			b.publish(c.RoomID(), "chat", chatPayload(player, text, timestamp, false))
		},
		SelfTeamChanged: func(oldTeam, newTeam bingo.Team) {
			b.publish(c.RoomID(), "color", colorPayload(c.Self(), oldTeam, newTeam, true))
		},
		PeerTeamChanged: func(player bingo.Player, oldTeam, newTeam bingo.Team) {
			b.publish(c.RoomID(), "color", colorPayload(player, oldTeam, newTeam, false))
		},
		SelfMarked: func(square bingo.Square) {
			b.publish(c.RoomID(), "goal", goalPayload(c.Self(), square, false, true))
		},
		PeerMarked: func(player bingo.Player, square bingo.Square) {
			b.publish(c.RoomID(), "goal", goalPayload(player, square, false, false))
		},
		SelfCleared: func(square bingo.Square) {
			b.publish(c.RoomID(), "goal", goalPayload(c.Self(), square, true, true))
		},
		PeerCleared: func(player bingo.Player, square bingo.Square) {
			b.publish(c.RoomID(), "goal", goalPayload(player, square, true, false))
		},
	})
}

func (b *Bridge) publish(roomID, kind string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Errorf("Failed to marshal %s event: %v", kind, err)
		return
	}

	subject := eventSubject(roomID, kind)
	if b.js != nil {
		if _, err := b.js.Publish(subject, data); err != nil {
			b.log.Errorf("Failed to publish to %s: %v", subject, err)
		}
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		b.log.Errorf("Failed to publish to %s: %v", subject, err)
	}
}

// eventSubject builds `bingo.<room>.<kind>`. NATS tokens cannot be empty,
// so an unknown room becomes an underscore.
func eventSubject(roomID, kind string) string {
	if roomID == "" {
		roomID = "_"
	}
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, roomID, kind)
}

func connectionPayload(roomID string, player bingo.Player, self bool) map[string]interface{} {
	return map[string]interface{}{
		"room":         roomID,
		"uuid":         player.UUID,
		"name":         player.Name,
		"color":        player.Team.Name(),
		"is_spectator": player.IsSpectator,
		"self":         self,
	}
}

func chatPayload(player bingo.Player, text string, timestamp uint64, self bool) map[string]interface{} {
	return map[string]interface{}{
		"uuid":      player.UUID,
		"name":      player.Name,
		"text":      text,
		"timestamp": timestamp,
		"self":      self,
	}
}

func colorPayload(player bingo.Player, oldTeam, newTeam bingo.Team, self bool) map[string]interface{} {
	return map[string]interface{}{
		"uuid":     player.UUID,
		"name":     player.Name,
		"old_team": oldTeam.Name(),
		"new_team": newTeam.Name(),
		"self":     self,
	}
}

func goalPayload(player bingo.Player, square bingo.Square, removed, self bool) map[string]interface{} {
	colors := make([]string, len(square.Teams))
	for i, team := range square.Teams {
		colors[i] = team.Name()
	}
	return map[string]interface{}{
		"uuid":   player.UUID,
		"name":   player.Name,
		"slot":   square.Index,
		"goal":   square.Name,
		"colors": colors,
		"remove": removed,
		"self":   self,
	}
}
