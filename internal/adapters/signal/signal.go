package signal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/app"
	"github.com/clanrich/signal/internal/config"
	"github.com/clanrich/signal/internal/core"
	"github.com/clanrich/signal/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller wires the websocket transport to the relay. One instance
// serves all connections.
type Controller struct {
	Relay *app.Relay
	Cfg   *config.Config
}

func NewController(relay *app.Relay, cfg *config.Config) *Controller {
	return &Controller{Relay: relay, Cfg: cfg}
}

// wsConn wraps one gorilla connection behind core.SignalConnection.
// Sends are fire-and-forget: a full send buffer drops the frame.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newClientID builds the process-unique connection id: accept timestamp
// plus a short random suffix.
func newClientID() domain.ClientID {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0][:6]
	return domain.ClientID(fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix))
}

// HandleSignal upgrades the request and runs the connection's pumps.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	id := newClientID()
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Relay.Registry.Add(id)
	log.Info().Str("module", "signal").Str("id", string(id)).Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, conn)
}

// disconnect is the implicit-leave path for transport close or error.
func (ctl *Controller) disconnect(id domain.ClientID) {
	if left, ok := ctl.Relay.Leave(id); ok {
		ctl.announceLeft(id, left)
	}
	ctl.Relay.Registry.Remove(id)
}

// AnnounceEvicted lets the sweeper notify survivors the same way a normal
// leave does.
func (ctl *Controller) AnnounceEvicted(id domain.ClientID, left app.LeaveResult) {
	ctl.announceLeft(id, left)
}
