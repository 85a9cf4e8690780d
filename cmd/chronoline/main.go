package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"chronoline/internal/deck"
	"chronoline/internal/engine"
	"chronoline/internal/session"
	"chronoline/pkg/types"
)

func main() {
	directoryURL := flag.String("directory", "http://localhost:8790", "session directory base URL")
	credentialURL := flag.String("credentials", "", "relay credential service URL (default: directory's own endpoint)")
	listen := flag.String("listen", "127.0.0.1:0", "host endpoint bind addr")
	advertise := flag.String("advertise", "", "addr registered with the directory (default: bound addr)")
	name := flag.String("name", "Player", "display name")
	difficulty := flag.String("difficulty", "normal", "bot difficulty: easy|normal|hard|expert")
	deckID := flag.String("deck", "", "deck id (default: catalogue default)")
	decksPath := flag.String("decks", "", "path to decks.yaml (default: built-in catalogue)")
	botDelay := flag.Duration("bot-delay", 2*time.Second, "pause before a bot moves")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	lvl := slog.LevelInfo
	if *verbose {
		lvl = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)

	if *credentialURL == "" {
		*credentialURL = *directoryURL + "/v1/turn-credentials"
	}

	cfg := types.SessionConfig{
		HostName:      *name,
		ListenAddr:    *listen,
		AdvertiseAddr: *advertise,
		DirectoryURL:  *directoryURL,
		CredentialURL: *credentialURL,
		Difficulty:    *difficulty,
		BotDelay:      *botDelay,
	}

	cat := loadCatalogue(*decksPath, log)
	d, err := cat.Get(*deckID)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	fmt.Printf("chronoline: deck %q (%d cards)\n", d.Name, len(d.Cards))
	fmt.Println("type 'help' for commands")
	repl(cfg, d.Cards, log)
}

func loadCatalogue(path string, log *slog.Logger) *deck.Catalogue {
	cat, err := deck.Load(path)
	if err != nil {
		log.Debug("no deck config, using built-in catalogue", "error", err)
		return deck.Builtin()
	}
	return cat
}

// game holds whichever side of a session this process is running.
type game struct {
	host  *session.Session
	proxy *session.Proxy
}

func (g *game) active() bool { return g.host != nil || g.proxy != nil }

func (g *game) playerID() engine.PlayerID {
	if g.host != nil {
		return g.host.HostPlayerID()
	}
	return g.proxy.PlayerID()
}

func (g *game) state() *engine.State {
	if g.host != nil {
		st := g.host.State()
		return &st
	}
	return g.proxy.State()
}

func (g *game) leave() {
	if g.host != nil {
		g.host.Close()
		g.host = nil
	}
	if g.proxy != nil {
		g.proxy.Close()
		g.proxy = nil
	}
}

func repl(cfg types.SessionConfig, cards []engine.Card, log *slog.Logger) {
	ctx := context.Background()
	var g game
	onState := func(st engine.State) { fmt.Println("*", st.Message) }

	s := bufio.NewScanner(os.Stdin)
	prompt := func() { fmt.Print("> ") }
	prompt()
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			prompt()
			continue
		}
		args := strings.Fields(line)
		switch strings.ToLower(args[0]) {
		case "help":
			printHelp()
		case "host":
			if g.active() {
				fmt.Println("already in a session; 'leave' first")
				break
			}
			host, err := session.Host(ctx, cfg, cards, deck.ErrorRate(cfg.Difficulty), log)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			g.host = host
			host.Subscribe(onState)
			fmt.Println("session code:", host.Code(), "(share it to let others join)")
		case "join":
			if len(args) < 2 {
				fmt.Println("usage: join <code>")
				break
			}
			if g.active() {
				fmt.Println("already in a session; 'leave' first")
				break
			}
			proxy, err := session.Join(ctx, cfg, strings.ToUpper(args[1]), cfg.HostName, log)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			g.proxy = proxy
			proxy.Subscribe(onState)
			fmt.Println("joined", strings.ToUpper(args[1]))
		case "bot":
			if g.host == nil {
				fmt.Println("only the host can add bots")
				break
			}
			if err := g.host.AddBot(); err != nil {
				fmt.Println("error:", err)
			}
		case "start":
			if g.host == nil {
				fmt.Println("only the host can start the game")
				break
			}
			if err := g.host.StartGame(); err != nil {
				fmt.Println("error:", err)
			}
		case "place":
			if len(args) < 3 {
				fmt.Println("usage: place <cardID> <slot>")
				break
			}
			if !g.active() {
				fmt.Println("not in a session")
				break
			}
			cardID, slot := mustInt(args[1]), mustInt(args[2])
			if g.host != nil {
				g.host.PlaceCard(cardID, slot)
			} else if err := g.proxy.PlaceCard(cardID, slot); err != nil {
				fmt.Println("error:", err)
			}
		case "hand":
			printHand(&g)
		case "board":
			printBoard(&g)
		case "leave":
			g.leave()
			fmt.Println("left the session")
		case "quit", "exit":
			g.leave()
			return
		default:
			fmt.Println("unknown command; type 'help'")
		}
		prompt()
	}
}

func printHand(g *game) {
	st := stateOf(g)
	if st == nil {
		return
	}
	me := st.PlayerByID(g.playerID())
	if me == nil {
		fmt.Println("not seated")
		return
	}
	for _, c := range me.Hand {
		fmt.Printf("  [%d] %s (%s)\n", c.ID, c.Name, formatYear(c.Year))
	}
}

func printBoard(g *game) {
	st := stateOf(g)
	if st == nil {
		return
	}
	fmt.Printf("phase=%s players=%d draw=%d discard=%d\n",
		st.Phase, len(st.Players), len(st.DrawPile), len(st.DiscardPile))
	for i, c := range st.Timeline {
		fmt.Printf("  %d: %-10s %s\n", i, formatYear(c.Year), c.Name)
	}
	if cur := st.CurrentPlayer(); cur != nil && st.Phase == engine.PhasePlaying {
		fmt.Println("turn:", cur.Name)
	}
}

func stateOf(g *game) *engine.State {
	if !g.active() {
		fmt.Println("not in a session")
		return nil
	}
	st := g.state()
	if st == nil {
		fmt.Println("waiting for state from host...")
	}
	return st
}

func formatYear(y int) string {
	if y < 0 {
		return fmt.Sprintf("%d BCE", -y)
	}
	return fmt.Sprintf("%d CE", y)
}

func mustInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func printHelp() {
	fmt.Println(`commands:
  host                start a new session and print its room code
  join <code>         join a session by room code
  bot                 add a bot to the lobby (host only)
  start               start the game (host only, needs 2+ players)
  place <card> <slot> place a card at a timeline position
  hand                show your hand
  board               show the timeline and session info
  leave               leave/close the current session
  quit                exit`)
}
