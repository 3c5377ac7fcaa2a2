package bingo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testRoomCode = "AbCdEfGhIjKlMnOpQrStUv"

// fakeService is an in-process stand-in for the room service: the HTTP
// surface plus the broadcast websocket endpoint.
type fakeService struct {
	t   *testing.T
	srv *httptest.Server

	upgrader websocket.Upgrader

	mu         sync.Mutex
	onSocket   func(conn *websocket.Conn, auth map[string]string)
	createForm url.Values
	joinBodies []joinBody
	putBodies  map[string][]string
	boardJSON  string
	feedJSON   string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	fs := &fakeService{
		t:         t,
		putBodies: make(map[string][]string),
		boardJSON: "[]",
		feedJSON:  `{"events": []}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", fs.handleRoot)
	mux.HandleFunc("/api/join-room", fs.handleJoin)
	mux.HandleFunc("/api/color", fs.handlePut)
	mux.HandleFunc("/api/select", fs.handlePut)
	mux.HandleFunc("/api/chat", fs.handlePut)
	mux.HandleFunc("/api/revealed", fs.handlePut)
	mux.HandleFunc("/api/new-card", fs.handlePut)
	mux.HandleFunc("/room/"+testRoomCode, fs.handleRoomPage)
	mux.HandleFunc("/room/"+testRoomCode+"/board", fs.handleBoard)
	mux.HandleFunc("/room/"+testRoomCode+"/feed", fs.handleFeed)
	mux.HandleFunc("/broadcast", fs.handleSocket)

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

// client builds a Client pointed at the fake service with test-friendly
// timing.
func (fs *fakeService) client(handler Handler) *Client {
	cfg := Config{
		BaseURL:        fs.srv.URL,
		SocketURL:      "ws" + strings.TrimPrefix(fs.srv.URL, "http") + "/broadcast",
		PollInterval:   5 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
	}
	return NewClient(cfg, handler, nil)
}

func (fs *fakeService) setOnSocket(fn func(conn *websocket.Conn, auth map[string]string)) {
	fs.mu.Lock()
	fs.onSocket = fn
	fs.mu.Unlock()
}

// sendConnected pushes the handshake event for the given player.
func sendConnected(t *testing.T, conn *websocket.Conn, uuid, name, color string) {
	t.Helper()
	sendEvent(t, conn, map[string]interface{}{
		"type":       "connection",
		"event_type": "connected",
		"room":       testRoomCode,
		"player":     map[string]interface{}{"uuid": uuid, "name": name, "color": color},
		"timestamp":  100,
	})
}

func sendEvent(t *testing.T, conn *websocket.Conn, event map[string]interface{}) {
	t.Helper()
	if err := conn.WriteJSON(event); err != nil {
		t.Errorf("writing event: %v", err)
	}
}

func (fs *fakeService) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Write([]byte(`<html><body><form>
			<input type="hidden" name="csrfmiddlewaretoken" value="test-token">
		</form></body></html>`))
		return
	}

	// Room creation: record the form, then land on the room page the way
	// the real service redirects.
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fs.mu.Lock()
	fs.createForm = r.PostForm
	fs.mu.Unlock()
	http.Redirect(w, r, "/room/"+testRoomCode, http.StatusFound)
}

func (fs *fakeService) handleRoomPage(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("<html><body>room</body></html>"))
}

func (fs *fakeService) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fs.mu.Lock()
	fs.joinBodies = append(fs.joinBodies, body)
	fs.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"socket_key": "key-" + body.Room})
}

func (fs *fakeService) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, r.Body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fs.mu.Lock()
	fs.putBodies[r.URL.Path] = append(fs.putBodies[r.URL.Path], buf.String())
	fs.mu.Unlock()
	w.Write([]byte(`{}`))
}

func (fs *fakeService) handleBoard(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	body := fs.boardJSON
	fs.mu.Unlock()
	w.Write([]byte(body))
}

func (fs *fakeService) handleFeed(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	body := fs.feedJSON
	fs.mu.Unlock()
	w.Write([]byte(body))
}

func (fs *fakeService) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	var auth map[string]string
	if err := conn.ReadJSON(&auth); err != nil {
		conn.Close()
		return
	}

	fs.mu.Lock()
	onSocket := fs.onSocket
	fs.mu.Unlock()
	if onSocket != nil {
		onSocket(conn, auth)
	}

	// Drain until the client closes so the closing handshake completes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			conn.Close()
			return
		}
	}
}

// joinLive joins the fake room and returns once the session is live,
// handing back the server side of the persistent connection.
func joinLive(t *testing.T, fs *fakeService, c *Client, uuid, name string) *websocket.Conn {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	fs.setOnSocket(func(conn *websocket.Conn, auth map[string]string) {
		if auth["socket_key"] != "key-"+testRoomCode {
			t.Errorf("auth frame = %v, want the join credential", auth)
		}
		sendConnected(t, conn, uuid, name, "red")
		connCh <- conn
	})

	err := c.JoinRoom(context.Background(), JoinRoomSettings{
		Code:     testRoomCode,
		Password: "pw",
		Nickname: name,
	})
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}

	select {
	case conn := <-connCh:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no server-side connection")
		return nil
	}
}

func TestJoinRoom_HandshakeMakesSessionLive(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)

	joinLive(t, fs, c, "u-self", "alice")
	defer c.Disconnect()

	if got := c.RoomID(); got != testRoomCode {
		t.Errorf("RoomID = %q, want %q", got, testRoomCode)
	}
	self := c.Self()
	if self.UUID != "u-self" || self.Name != "alice" || self.Team != TeamRed {
		t.Errorf("Self = %+v", self)
	}
}

func TestJoinRoom_TimeoutTearsDownAndAllowsRetry(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)
	c.cfg.ConnectTimeout = 100 * time.Millisecond

	// First attempt: the service never confirms the handshake.
	err := c.JoinRoom(context.Background(), JoinRoomSettings{Code: testRoomCode, Nickname: "n"})
	if !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("JoinRoom = %v, want ErrConnectTimeout", err)
	}
	if c.RoomID() != "" {
		t.Fatalf("RoomID = %q after timeout, want empty", c.RoomID())
	}

	// The failed attempt must not leave a half-open session behind: a
	// fresh join is accepted and completes.
	c.cfg.ConnectTimeout = 2 * time.Second
	joinLive(t, fs, c, "u-self", "alice")
	defer c.Disconnect()

	if got := c.RoomID(); got != testRoomCode {
		t.Errorf("RoomID after retry = %q, want %q", got, testRoomCode)
	}
}

func TestConnect_RejectedWhileLive(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)
	joinLive(t, fs, c, "u-self", "alice")
	defer c.Disconnect()

	err := c.JoinRoom(context.Background(), JoinRoomSettings{Code: testRoomCode, Nickname: "again"})
	if !errors.Is(err, ErrNotIdle) {
		t.Fatalf("second JoinRoom = %v, want ErrNotIdle", err)
	}
}

func TestRouter_SelfVersusPeerChat(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)

	type chat struct {
		self bool
		from string
		text string
	}
	chats := make(chan chat, 4)
	c.Subscribe(Subscriber{
		SelfChat: func(text string, ts uint64) {
			chats <- chat{self: true, text: text}
		},
		PeerChat: func(p Player, text string, ts uint64) {
			chats <- chat{from: p.UUID, text: text}
		},
	})

	conn := joinLive(t, fs, c, "A", "alice")
	defer c.Disconnect()

	sendEvent(t, conn, map[string]interface{}{
		"type": "chat", "text": "mine",
		"player": map[string]interface{}{"uuid": "A", "name": "alice"},
	})
	sendEvent(t, conn, map[string]interface{}{
		"type": "chat", "text": "theirs",
		"player": map[string]interface{}{"uuid": "B", "name": "bob"},
	})

	first := recv(t, chats)
	if !first.self || first.text != "mine" {
		t.Errorf("first chat = %+v, want self %q", first, "mine")
	}
	second := recv(t, chats)
	if second.self || second.from != "B" || second.text != "theirs" {
		t.Errorf("second chat = %+v, want peer B %q", second, "theirs")
	}

	recvNone(t, chats)
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chat notification")
		var zero T
		return zero
	}
}

func recvNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra notification: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRouter_HookFiresBeforeSubscribers(t *testing.T) {
	fs := newFakeService(t)

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 1)

	h := &orderHandler{record: func(who string) {
		mu.Lock()
		order = append(order, who)
		mu.Unlock()
	}}
	c := fs.client(h)
	c.Subscribe(Subscriber{
		PeerChat: func(Player, string, uint64) {
			mu.Lock()
			order = append(order, "subscriber-1")
			mu.Unlock()
		},
	})
	c.Subscribe(Subscriber{
		PeerChat: func(Player, string, uint64) {
			mu.Lock()
			order = append(order, "subscriber-2")
			mu.Unlock()
			done <- struct{}{}
		},
	})

	conn := joinLive(t, fs, c, "A", "alice")
	defer c.Disconnect()

	sendEvent(t, conn, map[string]interface{}{
		"type": "chat", "text": "hello",
		"player": map[string]interface{}{"uuid": "B"},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"hook", "subscriber-1", "subscriber-2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

type orderHandler struct {
	BaseHandler
	record func(string)
}

func (h *orderHandler) OnPeerChat(Player, string, uint64) { h.record("hook") }

func TestRouter_GoalMarkAndColorUpdateSelf(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)

	marks := make(chan Square, 1)
	teams := make(chan Team, 1)
	c.Subscribe(Subscriber{
		SelfMarked:      func(sq Square) { marks <- sq },
		SelfTeamChanged: func(_, newTeam Team) { teams <- newTeam },
	})

	conn := joinLive(t, fs, c, "A", "alice")
	defer c.Disconnect()

	sendEvent(t, conn, map[string]interface{}{
		"type":   "goal",
		"player": map[string]interface{}{"uuid": "A", "color": "red"},
		"square": map[string]interface{}{"name": "Win a duel", "slot": "slot7", "colors": "red", "remove": false},
	})
	square := recv(t, marks)
	if square.Index != 7 || len(square.Teams) != 1 || square.Teams[0] != TeamRed {
		t.Errorf("marked square = %+v", square)
	}

	sendEvent(t, conn, map[string]interface{}{
		"type":   "color",
		"player": map[string]interface{}{"uuid": "A", "color": "blue"},
	})
	if newTeam := recv(t, teams); newTeam != TeamBlue {
		t.Errorf("new team = %v, want blue", newTeam)
	}
	if got := c.Self().Team; got != TeamBlue {
		t.Errorf("self team = %v, want blue", got)
	}
}

func TestDisconnect_IdempotentAndOrdered(t *testing.T) {
	fs := newFakeService(t)

	var mu sync.Mutex
	notified := 0
	roomAtNotify := "?"

	c := fs.client(nil)
	joinLive(t, fs, c, "A", "alice")

	c.Subscribe(Subscriber{
		SelfDisconnected: func() {
			mu.Lock()
			notified++
			mu.Unlock()
			// Cleanup precedes notification: no residual membership.
			roomAtNotify = c.RoomID()
		},
	})

	c.Disconnect()
	c.Disconnect()

	mu.Lock()
	defer mu.Unlock()
	if notified != 1 {
		t.Errorf("self-disconnected fired %d times, want 1", notified)
	}
	if roomAtNotify != "" {
		t.Errorf("room at notification = %q, want empty", roomAtNotify)
	}
	if c.RoomID() != "" || c.Self() != (Player{}) {
		t.Errorf("session not cleared: room=%q self=%+v", c.RoomID(), c.Self())
	}
}

func TestCreateRoom_EndToEnd(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)

	fs.setOnSocket(func(conn *websocket.Conn, auth map[string]string) {
		sendConnected(t, conn, "u-self", "alice", "red")
	})

	code, err := c.CreateRoom(context.Background(), CreateRoomSettings{
		Name:     "test room",
		Password: "pw",
		Nickname: "alice",
		Lockout:  true,
		Seed:     "1234",
		Goals:    []Goal{{Title: "Goal A"}, {Title: "Goal B"}},
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	defer c.Disconnect()

	if code != testRoomCode {
		t.Errorf("room code = %q, want %q", code, testRoomCode)
	}

	fs.mu.Lock()
	form := fs.createForm
	joins := append([]joinBody(nil), fs.joinBodies...)
	fs.mu.Unlock()

	wantFields := map[string]string{
		"room_name":           "test room",
		"passphrase":          "pw",
		"game_type":           "18",
		"variant_type":        "18",
		"lockout_mode":        "2",
		"seed":                "1234",
		"custom_json":         `[{"name":"Goal A"},{"name":"Goal B"}]`,
		"csrfmiddlewaretoken": "test-token",
	}
	for field, want := range wantFields {
		if got := form.Get(field); got != want {
			t.Errorf("form[%s] = %q, want %q", field, got, want)
		}
	}

	// The join must reuse exactly the code extracted from the redirect.
	if len(joins) != 1 {
		t.Fatalf("got %d join calls, want 1", len(joins))
	}
	if joins[0].Room != testRoomCode || joins[0].Nickname != "alice" {
		t.Errorf("join body = %+v", joins[0])
	}
}

func TestActions_OverTheFakeService(t *testing.T) {
	fs := newFakeService(t)
	c := fs.client(nil)
	joinLive(t, fs, c, "A", "alice")
	defer c.Disconnect()

	ctx := context.Background()
	if err := c.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := c.ChangeTeam(ctx, TeamBlue); err != nil {
		t.Fatalf("ChangeTeam: %v", err)
	}
	if err := c.RevealCard(ctx); err != nil {
		t.Fatalf("RevealCard: %v", err)
	}

	fs.mu.Lock()
	chatBodies := fs.putBodies["/api/chat"]
	colorBodies := fs.putBodies["/api/color"]
	revealBodies := fs.putBodies["/api/revealed"]
	fs.mu.Unlock()

	if len(chatBodies) != 1 || chatBodies[0] != `{"room":"`+testRoomCode+`","text":"hello"}` {
		t.Errorf("chat bodies = %v", chatBodies)
	}
	if len(colorBodies) != 1 || colorBodies[0] != `{"room":"`+testRoomCode+`","color":"blue"}` {
		t.Errorf("color bodies = %v", colorBodies)
	}
	if len(revealBodies) != 1 || revealBodies[0] != `{"room":"`+testRoomCode+`"}` {
		t.Errorf("reveal bodies = %v", revealBodies)
	}

	if got := c.Self().Team; got != TeamBlue {
		t.Errorf("self team after ChangeTeam = %v, want blue", got)
	}
}

func TestGetBoard_OverTheFakeService(t *testing.T) {
	fs := newFakeService(t)
	fs.boardJSON = `[
		{"name": "First", "slot": "slot1", "colors": "red blue"},
		{"name": "Second", "slot": "slot2", "colors": ""}
	]`
	c := fs.client(nil)
	joinLive(t, fs, c, "A", "alice")
	defer c.Disconnect()

	squares, err := c.GetBoard(context.Background())
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if len(squares) != 2 {
		t.Fatalf("got %d squares, want 2", len(squares))
	}
	if squares[0].Index != 1 || len(squares[0].Teams) != 2 {
		t.Errorf("squares[0] = %+v", squares[0])
	}
	if squares[1].Index != 2 || len(squares[1].Teams) != 0 {
		t.Errorf("squares[1] = %+v", squares[1])
	}
}
