package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput, asHost bool
	var playerID int64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream session events over the websocket channel",
		Long: `Connect to the session's websocket endpoint and stream events in real-time.

Events include:
  - player_created: A player joined the session
  - player_rolled: A player rolled the dice
  - stat_updated: Current HP or stamina changed
  - player_updated: A player field changed
  - new_message_<id>: Chat message on a player's channel
  - increment: Heartbeat

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(asHost, playerID, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&asHost, "host", false, "Connect as the host (requires --host-password)")
	cmd.Flags().Int64Var(&playerID, "player-id", 0, "Connect as this player")

	return cmd
}

// WSEvent represents a received websocket frame
type WSEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// eventsURL builds the websocket URL for the configured server
func eventsURL(serverURL string, asHost bool, hostPassword string, playerID int64) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"

	q := url.Values{}
	if asHost {
		q.Set("role", "host")
		q.Set("credential", hostPassword)
	}
	if playerID > 0 {
		q.Set("player_id", strconv.FormatInt(playerID, 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func streamEvents(asHost bool, playerID int64, jsonOutput bool) error {
	if asHost && cfg.HostPassword == "" {
		return fmt.Errorf("--host-password or TABLESYNC_HOST_PASSWORD is required with --host")
	}
	wsURL, err := eventsURL(cfg.ServerURL, asHost, cfg.HostPassword, playerID)
	if err != nil {
		return err
	}

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Println("Connected to session")
	}

	for {
		var evt WSEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		evt.Time = time.Now()
		printEvent(evt, jsonOutput)
	}
}

func printEvent(evt WSEvent, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(evt.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, evt.Event, displayData)
}
