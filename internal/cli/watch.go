package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream room lifecycle events",
		Long: `Connect to the server's event stream and print room lifecycle changes
(starting, active, ending, terminated) as they happen.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return streamEvents(ctx, NewOutput(cfg.Output))
		},
	}

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(ctx context.Context, out *Output) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for a stream
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	err = readSSE(resp.Body, func(event, data string) {
		out.printSSEEvent(SSEEvent{Time: time.Now(), Event: event, Data: json.RawMessage(data)})
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if out.format != "json" {
		out.PrintMessage("Disconnected")
	}
	return nil
}

// readSSE parses an event stream and calls emit for every complete event
func readSSE(r io.Reader, emit func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				emit(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}
	return scanner.Err()
}

func (o *Output) printSSEEvent(ev SSEEvent) {
	if o.format == "json" {
		data, err := json.Marshal(ev)
		if err != nil {
			// Payload was not JSON; send it as a string
			data, _ = json.Marshal(map[string]any{"time": ev.Time, "event": ev.Event, "data": string(ev.Data)})
		}
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}
	_, _ = fmt.Fprintf(o.w, "[%s] %s: %s\n", ev.Time.Format("2006-01-02 15:04:05"), ev.Event, string(ev.Data))
}
