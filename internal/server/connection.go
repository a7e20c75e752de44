package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/table"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Time a single command may wait for its table
	commandTimeout = 5 * time.Second
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one player's WebSocket session.
type Connection struct {
	conn     *websocket.Conn
	send     chan *Message
	playerID string
	tables   *table.Manager
	logger   *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.Mutex
	watching map[string]func()
	seated   map[string]bool
}

// NewConnection wraps an upgraded socket.
func NewConnection(conn *websocket.Conn, playerID string, tables *table.Manager, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: playerID,
		tables:   tables,
		logger:   logger.WithPrefix("conn").With("player", playerID),
		ctx:      ctx,
		cancel:   cancel,
		watching: make(map[string]func()),
		seated:   make(map[string]bool),
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close stops watching tables, folds the player out of any hand they are
// in and closes the socket.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		for _, unsubscribe := range c.watching {
			unsubscribe()
		}
		seated := make([]string, 0, len(c.seated))
		for id := range c.seated {
			seated = append(seated, id)
		}
		c.mu.Unlock()

		for _, tableID := range seated {
			c.standOnDisconnect(tableID)
		}
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) standOnDisconnect(tableID string) {
	t, err := c.tables.Get(tableID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := t.Stand(ctx, c.playerID, true); err != nil && !errors.Is(err, engine.ErrNotSeated) {
		c.logger.Warn("Failed to stand disconnected player", "table", tableID, "error", err)
	}
}

// SendMessage queues a message for the client. A client too slow to keep
// up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		go func() { _ = c.Close() }()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage runs one command and answers it with a response or an
// error carrying the same request id.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)

	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	result, err := c.dispatch(ctx, msg)
	if err != nil {
		c.reply(msg.RequestID, TypeError, ErrorData{Code: errorCode(err), Message: err.Error()})
		return
	}
	c.reply(msg.RequestID, TypeResponse, result)
}

func (c *Connection) dispatch(ctx context.Context, msg *Message) (any, error) {
	switch msg.Type {
	case TypeWatch:
		var data WatchData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		c.watch(t)
		return struct{}{}, nil

	case TypeSit:
		var data SitData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		seat, err := t.Sit(ctx, engine.Player{ID: c.playerID, Name: c.playerID}, data.Seat, data.BuyIn, data.SideDeposit)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.seated[t.ID()] = true
		c.mu.Unlock()
		c.watch(t)
		return SitResponse{Seat: seat}, nil

	case TypeStand:
		var data StandData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		if err := t.Stand(ctx, c.playerID, data.Immediate); err != nil {
			return nil, err
		}
		c.mu.Lock()
		delete(c.seated, t.ID())
		c.mu.Unlock()
		return struct{}{}, nil

	case TypeAction:
		var data ActionData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		action, err := rules.ParseAction(data.Action)
		if err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		return t.Act(ctx, c.playerID, action, data.Amount)

	case TypeValidActions:
		var data ValidActionsData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		actions, err := t.ValidActions(ctx, c.playerID)
		if err != nil {
			return nil, err
		}
		return ValidActionsResponse{Actions: actions}, nil

	case TypeProposeSideGame:
		var data ProposeSideGameData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		ttl := time.Duration(data.TTLMs) * time.Millisecond
		return t.ProposeSideGame(ctx, c.playerID, data.Kind, data.Stake, data.Params, data.Invitees, ttl)

	case TypeRespondSideGame:
		var data RespondSideGameData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		return t.RespondSideGame(ctx, c.playerID, data.GameID, data.Accept)

	case TypeActivateSideGame:
		var data ActivateSideGameData
		if err := decodeData(msg, &data); err != nil {
			return nil, err
		}
		t, err := c.tables.Get(data.TableID)
		if err != nil {
			return nil, err
		}
		return t.ActivateSideGame(ctx, c.playerID, data.GameID)
	}
	return nil, fmt.Errorf("unknown message type %q", msg.Type)
}

func decodeData(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("invalid %s data: %w", msg.Type, err)
	}
	return nil
}

func (c *Connection) reply(requestID, messageType string, data any) {
	m, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	m.RequestID = requestID
	_ = c.SendMessage(m)
}

// watch forwards a table's snapshots, with other players' hole cards
// hidden. Watching a table twice is a no-op.
func (c *Connection) watch(t *table.Table) {
	c.mu.Lock()
	if _, ok := c.watching[t.ID()]; ok {
		c.mu.Unlock()
		return
	}
	updates, unsubscribe := t.Subscribe()
	c.watching[t.ID()] = unsubscribe
	c.mu.Unlock()

	go func() {
		for {
			select {
			case snap := <-updates:
				m, err := NewMessage(TypeSnapshot, snap.ForViewer(c.playerID))
				if err != nil {
					c.logger.Error("Failed to encode snapshot", "table", t.ID(), "error", err)
					continue
				}
				if err := c.SendMessage(m); err != nil {
					return
				}
			case <-c.ctx.Done():
				return
			}
		}
	}()
}
