// Package ws carries board events over websockets.
//
// Client implements transport.Transport against a relay. Relay is a small
// development server that keeps one transport.Hub per board and bridges
// websocket connections onto it.
//
// Routes served by Relay and used by Client:
//
//	GET /health
//	GET /boards/{board}/snapshot   current tokens as JSON
//	GET /boards/{board}/ws         websocket event stream
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/transport"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	outboxSize = 256
	inboxSize  = 256
)

// Client is a websocket connection to one board on a relay.
type Client struct {
	conn    *websocket.Conn
	base    *url.URL
	boardID string
	http    *http.Client
	log     *logging.Logger

	outbox chan event.Event
	events chan event.Event
	done   chan struct{}

	closeOnce sync.Once
}

var _ transport.Transport = (*Client)(nil)

// Dial connects to boardID on the relay at serverURL (http or https).
func Dial(ctx context.Context, serverURL, boardID string, log *logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.Discard()
	}
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", serverURL)
	}
	if boardID == "" {
		return nil, errors.New("board id is required")
	}

	wsURL := *base
	wsURL.Scheme = strings.Replace(base.Scheme, "http", "ws", 1)
	wsURL.Path = boardPath(base.Path, boardID, "ws")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to board %q: %w", boardID, err)
	}

	c := &Client{
		conn:    conn,
		base:    base,
		boardID: boardID,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With(logging.Fields{"board": boardID}),
		outbox:  make(chan event.Event, outboxSize),
		events:  make(chan event.Event, inboxSize),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

func boardPath(prefix, boardID, leaf string) string {
	return strings.TrimRight(prefix, "/") + "/boards/" + url.PathEscape(boardID) + "/" + leaf
}

// Publish queues ev for sending. If the outbox is full the event is dropped.
func (c *Client) Publish(ev event.Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.outbox <- ev:
	default:
		c.log.Warn("outbox full, dropping event", logging.Fields{"op": string(ev.Op), "id": string(ev.ID)})
	}
}

// Events delivers events from other sessions.
func (c *Client) Events() <-chan event.Event {
	return c.events
}

// Snapshot fetches the board's current tokens from the relay.
func (c *Client) Snapshot(ctx context.Context) ([]board.Token, error) {
	u := *c.base
	u.Path = boardPath(c.base.Path, c.boardID, "snapshot")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch snapshot: status %s", resp.Status)
	}

	var tokens []board.Token
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return tokens, nil
}

// Close shuts the connection down. The events channel is closed once the read
// loop exits.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer close(c.events)

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("connection lost", logging.Fields{"error": err.Error()})
			}
			return
		}
		ev, err := event.Decode(data)
		if err != nil {
			c.log.Warn("discarding malformed event", logging.Fields{"error": err.Error()})
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.outbox:
			if err := c.write(ev); err != nil {
				c.log.Error("failed to send event", err, logging.Fields{"op": string(ev.Op), "id": string(ev.ID)})
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("ping failed", logging.Fields{"error": err.Error()})
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) write(ev event.Event) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(ev)
}
