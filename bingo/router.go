// bingo/router.go
// Classification and fan-out of decoded events.
package bingo

// Handler is the overridable hook a client invokes for every occurrence,
// already split into self and peer variants so callers never compare
// identities themselves. Embed BaseHandler and override what you need.
type Handler interface {
	OnSelfConnected(roomID string, self Player)
	OnPeerConnected(roomID string, player Player)

	// OnSelfDisconnected fires after Disconnect has finished its cleanup.
	// The local session's own departure is driven by Disconnect, never by a
	// wire event.
	OnSelfDisconnected()
	OnPeerDisconnected(roomID string, player Player)

	OnSelfChat(text string, timestamp uint64)
	OnPeerChat(player Player, text string, timestamp uint64)

	OnSelfTeamChanged(oldTeam, newTeam Team)
	OnPeerTeamChanged(player Player, oldTeam, newTeam Team)

	OnSelfMarked(square Square)
	OnPeerMarked(player Player, square Square)

	OnSelfCleared(square Square)
	OnPeerCleared(player Player, square Square)
}

// BaseHandler implements Handler with no-ops.
type BaseHandler struct{}

func (BaseHandler) OnSelfConnected(string, Player)           {}
func (BaseHandler) OnPeerConnected(string, Player)           {}
func (BaseHandler) OnSelfDisconnected()                      {}
func (BaseHandler) OnPeerDisconnected(string, Player)        {}
func (BaseHandler) OnSelfChat(string, uint64)                {}
func (BaseHandler) OnPeerChat(Player, string, uint64)        {}
func (BaseHandler) OnSelfTeamChanged(Team, Team)             {}
func (BaseHandler) OnPeerTeamChanged(Player, Team, Team)     {}
func (BaseHandler) OnSelfMarked(Square)                      {}
func (BaseHandler) OnPeerMarked(Player, Square)              {}
func (BaseHandler) OnSelfCleared(Square)                     {}
func (BaseHandler) OnPeerCleared(Player, Square)             {}

// Subscriber is a set of optional callbacks for decoupled observers. Nil
// fields are skipped. For every occurrence the Handler hook fires first,
// then each subscriber in registration order, with identical semantics.
type Subscriber struct {
	SelfConnected func(roomID string, self Player)
	PeerConnected func(roomID string, player Player)

	SelfDisconnected func()
	PeerDisconnected func(roomID string, player Player)

	SelfChat func(text string, timestamp uint64)
	PeerChat func(player Player, text string, timestamp uint64)

	SelfTeamChanged func(oldTeam, newTeam Team)
	PeerTeamChanged func(player Player, oldTeam, newTeam Team)

	SelfMarked func(square Square)
	PeerMarked func(player Player, square Square)

	SelfCleared func(square Square)
	PeerCleared func(player Player, square Square)
}

// Subscribe registers callbacks on this client. Registrations last for the
// current room membership: they are dropped when the membership ends.
func (c *Client) Subscribe(sub Subscriber) {
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
}

func (c *Client) snapshotSubs() []Subscriber {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Subscriber(nil), c.subs...)
}

// dispatch routes one decoded event. The receive loop calls it serially, so
// handlers see events in exact receipt order and act as back-pressure on the
// read side.
func (c *Client) dispatch(ev Event) {
	switch ev.Kind {
	case EventConnected:
		c.handleConnected(ev)
	case EventDisconnected:
		c.handleDisconnected(ev)
	case EventChat:
		c.handleChat(ev)
	case EventColor:
		c.handleColor(ev)
	case EventGoal:
		c.handleGoal(ev)
	}
}

// handleConnected resolves the handshake: the first Connected seen while not
// yet a member is this client's own identity being assigned.
func (c *Client) handleConnected(ev Event) {
	c.mu.Lock()
	isSelf := c.roomID == ""
	if isSelf {
		c.roomID = ev.Room
		c.self = ev.Player
	}
	c.mu.Unlock()

	if isSelf {
		c.handler.OnSelfConnected(ev.Room, ev.Player)
		for _, sub := range c.snapshotSubs() {
			if sub.SelfConnected != nil {
				sub.SelfConnected(ev.Room, ev.Player)
			}
		}
		return
	}

	c.handler.OnPeerConnected(ev.Room, ev.Player)
	for _, sub := range c.snapshotSubs() {
		if sub.PeerConnected != nil {
			sub.PeerConnected(ev.Room, ev.Player)
		}
	}
}

func (c *Client) handleDisconnected(ev Event) {
	if c.RoomID() == "" {
		// Should not happen before our own handshake; drop it.
		c.log.Debugf("Disconnected event for %q before membership, ignoring", ev.Player.Name)
		return
	}

	c.handler.OnPeerDisconnected(ev.Room, ev.Player)
	for _, sub := range c.snapshotSubs() {
		if sub.PeerDisconnected != nil {
			sub.PeerDisconnected(ev.Room, ev.Player)
		}
	}
}

func (c *Client) handleChat(ev Event) {
	if c.isSelf(ev.Player) {
		c.handler.OnSelfChat(ev.Text, ev.Timestamp)
		for _, sub := range c.snapshotSubs() {
			if sub.SelfChat != nil {
				sub.SelfChat(ev.Text, ev.Timestamp)
			}
		}
		return
	}

	c.handler.OnPeerChat(ev.Player, ev.Text, ev.Timestamp)
	for _, sub := range c.snapshotSubs() {
		if sub.PeerChat != nil {
			sub.PeerChat(ev.Player, ev.Text, ev.Timestamp)
		}
	}
}

// handleColor fires team-change notifications. The wire carries only the new
// color, so a peer's old team is reported as TeamBlank; for this client the
// cached identity supplies it.
func (c *Client) handleColor(ev Event) {
	newTeam := ev.Player.Team

	c.mu.Lock()
	isSelf := c.self.UUID == ev.Player.UUID
	oldTeam := TeamBlank
	if isSelf {
		oldTeam = c.self.Team
		c.self.Team = newTeam
	}
	c.mu.Unlock()

	if isSelf {
		c.handler.OnSelfTeamChanged(oldTeam, newTeam)
		for _, sub := range c.snapshotSubs() {
			if sub.SelfTeamChanged != nil {
				sub.SelfTeamChanged(oldTeam, newTeam)
			}
		}
		return
	}

	c.handler.OnPeerTeamChanged(ev.Player, oldTeam, newTeam)
	for _, sub := range c.snapshotSubs() {
		if sub.PeerTeamChanged != nil {
			sub.PeerTeamChanged(ev.Player, oldTeam, newTeam)
		}
	}
}

func (c *Client) handleGoal(ev Event) {
	if ev.Removed {
		if c.isSelf(ev.Player) {
			c.handler.OnSelfCleared(ev.Square)
			for _, sub := range c.snapshotSubs() {
				if sub.SelfCleared != nil {
					sub.SelfCleared(ev.Square)
				}
			}
			return
		}
		c.handler.OnPeerCleared(ev.Player, ev.Square)
		for _, sub := range c.snapshotSubs() {
			if sub.PeerCleared != nil {
				sub.PeerCleared(ev.Player, ev.Square)
			}
		}
		return
	}

	if c.isSelf(ev.Player) {
		c.handler.OnSelfMarked(ev.Square)
		for _, sub := range c.snapshotSubs() {
			if sub.SelfMarked != nil {
				sub.SelfMarked(ev.Square)
			}
		}
		return
	}
	c.handler.OnPeerMarked(ev.Player, ev.Square)
	for _, sub := range c.snapshotSubs() {
		if sub.PeerMarked != nil {
			sub.PeerMarked(ev.Player, ev.Square)
		}
	}
}

func (c *Client) isSelf(p Player) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self.UUID == p.UUID
}
