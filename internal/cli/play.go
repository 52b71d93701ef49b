package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/protocol"
)

// errQuit is returned by parseCommand when the player asks to leave
var errQuit = errors.New("quit")

func newPlayCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the match queue and play a game",
		Long: `Connect to the server, wait for an opponent and play one game.

Commands are read from stdin, one per line:
  play <x> <y>   place a stone
  say <text>     send a chat message
  draw           offer a draw
  accept         accept a draw offer
  resign         resign the game
  quit           disconnect

The command exits when the game ends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if user == "" {
				user = os.Getenv("FIRCTL_USER")
			}
			return play(ctx, connectURL(user), cmd.InOrStdin(), NewOutput(cfg.Output))
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Registered user id to play as; guests otherwise (env: FIRCTL_USER)")

	return cmd
}

func connectURL(user string) string {
	u := client.WebSocketURL("/connect")
	if user != "" {
		u += "?id=" + url.QueryEscape(user)
	}
	return u
}

// PlayEvent is one server frame as shown to the player
type PlayEvent struct {
	Event   string `json:"event"`
	Side    string `json:"side,omitempty"`
	X       *int   `json:"x,omitempty"`
	Y       *int   `json:"y,omitempty"`
	Message string `json:"message,omitempty"`
}

func eventFromResponse(resp model.Response) PlayEvent {
	ev := PlayEvent{
		Event:   string(resp.Kind),
		Side:    string(resp.Side),
		Message: resp.Text,
	}
	if resp.Kind == model.ResponseOpponentPlay {
		x, y := resp.Coord.X, resp.Coord.Y
		ev.X, ev.Y = &x, &y
	}
	return ev
}

func (o *Output) printPlayEvent(ev PlayEvent) {
	switch model.ResponseKind(ev.Event) {
	case model.ResponseStart:
		_, _ = fmt.Fprintf(o.w, "Game started, you play %s\n", ev.Side)
	case model.ResponseOpponentPlay:
		_, _ = fmt.Fprintf(o.w, "%s played %d %d\n", ev.Side, *ev.X, *ev.Y)
	case model.ResponseOpponentResign:
		_, _ = fmt.Fprintf(o.w, "%s resigned\n", ev.Side)
	case model.ResponseOpponentOfferDraw:
		_, _ = fmt.Fprintln(o.w, "Opponent offers a draw")
	case model.ResponseOpponentAcceptDraw:
		_, _ = fmt.Fprintln(o.w, "Opponent accepted the draw")
	case model.ResponseMessage:
		_, _ = fmt.Fprintf(o.w, "Opponent: %s\n", ev.Message)
	case model.ResponseGameEnd:
		_, _ = fmt.Fprintf(o.w, "Game over: %s\n", ev.Message)
	default:
		_, _ = fmt.Fprintf(o.w, "%s %s\n", ev.Event, ev.Message)
	}
}

// parseCommand turns one input line into a command. Empty lines yield ok=false.
func parseCommand(line string) (cmd model.Command, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return model.Command{}, false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "play", "p":
		if len(fields) != 3 {
			return model.Command{}, false, fmt.Errorf("usage: play <x> <y>")
		}
		x, err := strconv.Atoi(fields[1])
		if err != nil {
			return model.Command{}, false, fmt.Errorf("invalid x %q", fields[1])
		}
		y, err := strconv.Atoi(fields[2])
		if err != nil {
			return model.Command{}, false, fmt.Errorf("invalid y %q", fields[2])
		}
		return model.Command{Kind: model.CommandPlay, Coord: model.Coord{X: x, Y: y}}, true, nil
	case "say":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return model.Command{}, false, fmt.Errorf("usage: say <text>")
		}
		return model.Command{Kind: model.CommandMessage, Text: text}, true, nil
	case "draw":
		return model.Command{Kind: model.CommandOfferDraw}, true, nil
	case "accept":
		return model.Command{Kind: model.CommandAcceptDraw}, true, nil
	case "resign":
		return model.Command{Kind: model.CommandResign}, true, nil
	case "quit", "exit":
		return model.Command{}, false, errQuit
	default:
		return model.Command{}, false, fmt.Errorf("unknown command %q", fields[0])
	}
}

// play runs one game over a WebSocket. It returns once the server closes the
// connection, the player quits, or ctx is done.
func play(ctx context.Context, wsURL string, in io.Reader, out *Output) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = ws.Close() }()

	if cfg != nil && cfg.Verbose {
		out.PrintMessage("Waiting for an opponent")
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- readResponses(ws, out)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				// Input is exhausted; wait for the game to finish
				lines = nil
				continue
			}
			cmd, send, err := parseCommand(line)
			if errors.Is(err, errQuit) {
				return hangUp(ws)
			}
			if err != nil {
				out.PrintError(err)
				continue
			}
			if !send {
				continue
			}
			data, err := protocol.EncodeCommand(cmd)
			if err != nil {
				out.PrintError(err)
				continue
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
		case <-ctx.Done():
			return hangUp(ws)
		}
	}
}

func readResponses(ws *websocket.Conn, out *Output) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		resp, err := protocol.DecodeResponse(data)
		if err != nil {
			out.PrintError(err)
			continue
		}
		out.Print(eventFromResponse(resp))
	}
}

func hangUp(ws *websocket.Conn) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = ws.WriteMessage(websocket.CloseMessage, msg)
	return nil
}
