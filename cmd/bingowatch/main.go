// cmd/bingowatch/main.go
// Joins (or creates) a room and logs everything that happens in it until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WarperSan/BingoAPI/bingo"
	"github.com/WarperSan/BingoAPI/internal/logger"
	"github.com/WarperSan/BingoAPI/internal/util"
	"github.com/WarperSan/BingoAPI/natsbridge"
)

func main() {
	var (
		configPath = flag.String("config", "logger_config.json", "logger configuration file")
		room       = flag.String("room", "", "room code to join")
		password   = flag.String("password", "", "room password")
		nickname   = flag.String("nick", "bingowatch", "nickname to join under")
		spectator  = flag.Bool("spectator", true, "join as a spectator")
		create     = flag.Bool("create", false, "create the room instead of joining")
		roomName   = flag.String("name", "bingowatch room", "room name when creating")
		goalList   = flag.String("goals", "", "comma-separated goal titles when creating")
		lockout    = flag.Bool("lockout", false, "create the room in lockout mode")
		randomized = flag.Bool("randomized", true, "create the room with a randomized board")
		useNATS    = flag.Bool("nats", false, "republish room events to NATS (NATS_URL)")
		timeout    = flag.Duration("timeout", bingo.DefaultConnectTimeout, "handshake timeout")
	)
	flag.Parse()

	config := logger.DefaultLogConfig()
	if err := util.LoadJSONFile(*configPath, &config); err != nil {
		fmt.Printf("Error loading logger config: %v, using defaults\n", err)
	}
	logger.InitLogger(config)
	log := logger.NewLogger("bingowatch")

	cfg := bingo.DefaultConfig()
	cfg.ConnectTimeout = *timeout

	client := bingo.NewClient(cfg, &watchHandler{log: logger.NewLogger("room")}, nil)

	if *useNATS {
		natsURL := os.Getenv("NATS_URL")
		if natsURL == "" {
			natsURL = nats.DefaultURL
		}
		nc, err := nats.Connect(natsURL)
		if err != nil {
			log.Fatalf("Error connecting to NATS at %s: %v", natsURL, err)
		}
		defer nc.Close()
		natsbridge.New(nc, nil).Attach(client)
		log.Infof("Republishing room events to %s", natsURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+10*time.Second)
	defer cancel()

	if *create {
		goals := buildGoals(*goalList)
		code, err := client.CreateRoom(ctx, bingo.CreateRoomSettings{
			Name:       *roomName,
			Password:   *password,
			Nickname:   *nickname,
			Randomized: *randomized,
			Lockout:    *lockout,
			Goals:      goals,
			Spectator:  *spectator,
		})
		if err != nil {
			log.Fatalf("Create failed: %v", err)
		}
		log.Infof("Created room %s", code)
	} else {
		if *room == "" {
			log.Fatal("Either -room or -create is required")
		}
		err := client.JoinRoom(ctx, bingo.JoinRoomSettings{
			Code:      *room,
			Password:  *password,
			Nickname:  *nickname,
			Spectator: *spectator,
		})
		if err != nil {
			log.Fatalf("Join failed: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	client.Disconnect()
}

func buildGoals(titles string) []bingo.Goal {
	reg := bingo.NewGoalRegistry()
	for i, title := range strings.Split(titles, ",") {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		_ = reg.Register(fmt.Sprintf("bingowatch.goal.%d", i), title)
	}
	return reg.ActiveGoals()
}

// watchHandler logs every room occurrence through the hook path.
type watchHandler struct {
	bingo.BaseHandler
	log *logger.Logger
}

func (h *watchHandler) OnSelfConnected(roomID string, self bingo.Player) {
	h.log.Infof("Connected to %s as %s (%s)", roomID, self.Name, self.Team)
}

func (h *watchHandler) OnPeerConnected(roomID string, player bingo.Player) {
	h.log.Infof("%s joined", player.Name)
}

func (h *watchHandler) OnSelfDisconnected() {
	h.log.Info("Disconnected")
}

func (h *watchHandler) OnPeerDisconnected(roomID string, player bingo.Player) {
	h.log.Infof("%s left", player.Name)
}

func (h *watchHandler) OnSelfChat(text string, timestamp uint64) {
	h.log.Infof("you: %s", text)
}

func (h *watchHandler) OnPeerChat(player bingo.Player, text string, timestamp uint64) {
	h.log.Infof("%s: %s", player.Name, text)
}

func (h *watchHandler) OnSelfTeamChanged(oldTeam, newTeam bingo.Team) {
	h.log.Infof("You are now on %s", newTeam)
}

func (h *watchHandler) OnPeerTeamChanged(player bingo.Player, oldTeam, newTeam bingo.Team) {
	h.log.Infof("%s is now on %s", player.Name, newTeam)
}

func (h *watchHandler) OnSelfMarked(square bingo.Square) {
	h.log.Infof("You marked %d (%s)", square.Index, square.Name)
}

func (h *watchHandler) OnPeerMarked(player bingo.Player, square bingo.Square) {
	h.log.Infof("%s marked %d (%s)", player.Name, square.Index, square.Name)
}

func (h *watchHandler) OnSelfCleared(square bingo.Square) {
	h.log.Infof("You cleared %d (%s)", square.Index, square.Name)
}

func (h *watchHandler) OnPeerCleared(player bingo.Player, square bingo.Square) {
	h.log.Infof("%s cleared %d (%s)", player.Name, square.Index, square.Name)
}
