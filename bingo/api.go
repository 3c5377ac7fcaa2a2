// bingo/api.go
// One-shot room actions. Each issues a single HTTP exchange (create is a
// short fixed sequence) and returns an outcome; mutations never travel over
// the persistent connection.
package bingo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// creatorNickname is the fixed label the create-room form registers under;
// the creator then joins under their own nickname.
const creatorNickname = "BingoAPI"

// roomCodeRe matches a room code in the URL the create-room post redirects
// to. Matching the path segment rather than a fixed-length suffix keeps this
// working if the service ever changes its code length.
var roomCodeRe = regexp.MustCompile(`/room/([A-Za-z0-9_-]+)/?$`)

// CreateRoomSettings describes the room to create and how its creator joins
// it.
type CreateRoomSettings struct {
	Name     string
	Password string
	// Nickname the creator joins under once the room exists.
	Nickname string
	// Randomized selects a randomized board over a fixed one.
	Randomized bool
	// Lockout restricts every square to a single owning team.
	Lockout bool
	// Seed for board generation; empty means the service picks one.
	Seed  string
	Goals []Goal
	// Spectator controls how the creator joins, not how the room is made.
	Spectator bool
	// HideCard keeps the card hidden until revealed.
	HideCard bool
}

// JoinRoomSettings identifies the room to join and who joins it.
type JoinRoomSettings struct {
	Code      string
	Password  string
	Nickname  string
	Spectator bool
}

// CreateRoom creates a room and immediately joins it: fetch the anti-forgery
// token from the service root, post the creation form, extract the new room
// code from the redirect URL, then run the regular join handshake. Returns
// the room code.
func (c *Client) CreateRoom(ctx context.Context, settings CreateRoomSettings) (string, error) {
	c.log.Debug("Fetching csrf token")
	token, err := c.csrfToken(ctx)
	if err != nil {
		return "", err
	}

	boardJSON, err := BoardJSON(settings.Goals)
	if err != nil {
		return "", fmt.Errorf("serializing goals: %w", err)
	}

	c.log.Debugf("Creating room %q", settings.Name)
	resp, err := c.postForm(ctx, c.cfg.BaseURL+"/", token, createRoomForm(settings, boardJSON, token))
	if err != nil {
		return "", err
	}
	if resp.isError() {
		return "", resp.errorf("creating room %q", settings.Name)
	}

	match := roomCodeRe.FindStringSubmatch(resp.URL)
	if match == nil {
		return "", fmt.Errorf("%w: %s", ErrNoRoomCode, resp.URL)
	}
	code := match[1]
	c.log.Infof("Room %q created with code %q", settings.Name, code)

	err = c.JoinRoom(ctx, JoinRoomSettings{
		Code:      code,
		Password:  settings.Password,
		Nickname:  settings.Nickname,
		Spectator: settings.Spectator,
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// JoinRoom posts the join request, extracts the connection credential from
// the response, and hands it to the session to open the persistent
// connection. It returns only once the handshake event has been observed
// (or the attempt timed out and was torn down).
func (c *Client) JoinRoom(ctx context.Context, settings JoinRoomSettings) error {
	c.log.Debugf("Joining room %q", settings.Code)

	resp, err := c.postJSON(ctx, c.cfg.BaseURL+"/api/join-room", joinBody{
		Room:        settings.Code,
		Password:    settings.Password,
		Nickname:    settings.Nickname,
		IsSpectator: settings.Spectator,
	})
	if err != nil {
		return err
	}
	if resp.isError() {
		return resp.errorf("joining room %q", settings.Code)
	}

	var joined struct {
		SocketKey string `json:"socket_key"`
	}
	if err := json.Unmarshal(resp.Body, &joined); err != nil || joined.SocketKey == "" {
		return ErrNoSocketKey
	}

	return c.connect(ctx, joined.SocketKey)
}

// ChangeTeam switches this client to the given team.
func (c *Client) ChangeTeam(ctx context.Context, team Team) error {
	roomID := c.RoomID()
	if roomID == "" {
		return ErrNotInRoom
	}

	resp, err := c.putJSON(ctx, c.cfg.BaseURL+"/api/color", colorBody{Room: roomID, Color: team.Name()})
	if err != nil {
		return err
	}
	if resp.isError() {
		return resp.errorf("changing team to %q", team)
	}

	c.mu.Lock()
	c.self.Team = team
	c.mu.Unlock()
	return nil
}

// MarkSquare claims the 1-based square index for this client's team.
func (c *Client) MarkSquare(ctx context.Context, index int) error {
	return c.selectSquare(ctx, index, false)
}

// ClearSquare removes this client's team from the 1-based square index.
func (c *Client) ClearSquare(ctx context.Context, index int) error {
	return c.selectSquare(ctx, index, true)
}

func (c *Client) selectSquare(ctx context.Context, index int, remove bool) error {
	if index < 1 || index > MaxSquares {
		return ErrSquareOutOfRange
	}

	c.mu.Lock()
	roomID := c.roomID
	team := c.self.Team
	c.mu.Unlock()
	if roomID == "" {
		return ErrNotInRoom
	}

	resp, err := c.putJSON(ctx, c.cfg.BaseURL+"/api/select", selectBody{
		Room:        roomID,
		Color:       team.Name(),
		Slot:        index,
		RemoveColor: remove,
	})
	if err != nil {
		return err
	}
	if resp.isError() {
		return resp.errorf("selecting square %d", index)
	}
	return nil
}

// SendMessage posts a chat message to the room.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	roomID := c.RoomID()
	if roomID == "" {
		return ErrNotInRoom
	}

	resp, err := c.putJSON(ctx, c.cfg.BaseURL+"/api/chat", chatBody{Room: roomID, Text: text})
	if err != nil {
		return err
	}
	if resp.isError() {
		return resp.errorf("sending message")
	}
	return nil
}

// RevealCard reveals the card for the entire room.
func (c *Client) RevealCard(ctx context.Context) error {
	roomID := c.RoomID()
	if roomID == "" {
		return ErrNotInRoom
	}

	resp, err := c.putJSON(ctx, c.cfg.BaseURL+"/api/revealed", roomBody{Room: roomID})
	if err != nil {
		return err
	}
	if resp.isError() {
		return resp.errorf("revealing card")
	}
	return nil
}

// NewCard asks the service to regenerate the room's card.
func (c *Client) NewCard(ctx context.Context) error {
	roomID := c.RoomID()
	if roomID == "" {
		return ErrNotInRoom
	}

	resp, err := c.putJSON(ctx, c.cfg.BaseURL+"/api/new-card", roomBody{Room: roomID})
	if err != nil {
		return err
	}
	if resp.isError() {
		return resp.errorf("requesting new card")
	}
	return nil
}

// GetBoard fetches the current board snapshot. A response that is not the
// expected array yields an empty board, since the service legitimately
// omits it in some empty states.
func (c *Client) GetBoard(ctx context.Context) ([]Square, error) {
	roomID := c.RoomID()
	if roomID == "" {
		return nil, ErrNotInRoom
	}

	resp, err := c.get(ctx, c.cfg.BaseURL+"/room/"+roomID+"/board")
	if err != nil {
		return nil, err
	}
	if resp.isError() {
		return nil, resp.errorf("fetching board for room %q", roomID)
	}

	var wire []wireSquare
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return []Square{}, nil
	}

	squares := make([]Square, len(wire))
	for i := range wire {
		squares[i] = wire[i].square()
	}
	return squares, nil
}

// GetFeed fetches the room's historical event log, independent of the live
// stream. Entries this client does not understand are logged and skipped;
// the remainder keeps its order.
func (c *Client) GetFeed(ctx context.Context) ([]Event, error) {
	roomID := c.RoomID()
	if roomID == "" {
		return nil, ErrNotInRoom
	}

	resp, err := c.get(ctx, c.cfg.BaseURL+"/room/"+roomID+"/feed")
	if err != nil {
		return nil, err
	}
	if resp.isError() {
		return nil, resp.errorf("fetching feed for room %q", roomID)
	}

	var feed struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(resp.Body, &feed); err != nil {
		return []Event{}, nil
	}

	events := make([]Event, 0, len(feed.Events))
	for _, raw := range feed.Events {
		event, ok := ParseEvent(raw)
		if !ok {
			c.log.Debugf("Skipping unhandled feed entry: %s", raw)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
