// Package wsbridge attaches browser renderers over WebSocket. Each connection
// gets its own viewer session: the bridge streams frames to the renderer and
// applies the renderer's pointer and keyboard commands to the session.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/model"
)

const (
	DefaultFrameInterval = time.Second / 30
	DefaultMessageRate   = 20
	DefaultMessageBurst  = 10

	writeWait = 5 * time.Second
)

// Message types exchanged with renderers.
const (
	TypeScene  = "scene"
	TypeFrame  = "frame"
	TypeState  = "state"
	TypeError  = "error"
	TypeSelect = "select"
	TypeDesel  = "deselect"
	TypePick   = "pick"
	TypeToggle = "toggle_top_view"
	TypeExit   = "exit_view"
)

// SessionFactory opens a fresh session for a new renderer.
type SessionFactory func(ctx context.Context) (*session.Session, error)

// Config tunes the bridge. Zero values take the defaults above.
type Config struct {
	FrameInterval time.Duration
	// MessageRate and MessageBurst bound commands per connection.
	MessageRate  float64
	MessageBurst int
}

// Command is a renderer-to-server message.
type Command struct {
	Type      string             `json:"type"`
	BodyID    string             `json:"body_id,omitempty"`
	Origin    *model.Coordinates `json:"origin,omitempty"`
	Direction *model.Coordinates `json:"direction,omitempty"`
}

// Envelope is a server-to-renderer message.
type Envelope struct {
	Type   string             `json:"type"`
	Scene  *session.SceneView `json:"scene,omitempty"`
	Frame  *session.Frame     `json:"frame,omitempty"`
	Picked string             `json:"picked,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Handler upgrades requests on its route to WebSocket connections.
type Handler struct {
	newSession SessionFactory
	cfg        Config
	log        logging.Logger
	metrics    *observability.ViewerCollector
	upgrader   websocket.Upgrader
}

// NewHandler builds a bridge. metrics may be nil.
func NewHandler(newSession SessionFactory, cfg Config, log logging.Logger, metrics *observability.ViewerCollector) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.MessageRate <= 0 {
		cfg.MessageRate = DefaultMessageRate
	}
	if cfg.MessageBurst <= 0 {
		cfg.MessageBurst = DefaultMessageBurst
	}
	return &Handler{
		newSession: newSession,
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Renderers are served from arbitrary local dev origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ctx, _ = logging.EnsureRequestID(ctx)
	log := h.log.With(
		logging.String("remote_addr", r.RemoteAddr),
		logging.String("request_id", logging.RequestIDFromContext(ctx)),
	)

	sess, err := h.newSession(ctx)
	if err != nil {
		log.Error(ctx, "open session for renderer", logging.Err(err))
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return
	}
	defer sess.Close()

	h.metrics.RendererConnected()
	defer h.metrics.RendererDisconnected()
	started := time.Now()
	log.Info(ctx, "renderer connected")
	defer func() {
		log.Info(ctx, "renderer disconnected", logging.Duration("connected_for", time.Since(started)))
	}()

	c := &client{conn: conn}
	scene := sess.Scene()
	first, err := sess.Snapshot(ctx)
	if err != nil {
		return
	}
	if err := c.send(Envelope{Type: TypeScene, Scene: &scene, Frame: &first}); err != nil {
		log.Warn(ctx, "send scene", logging.Err(err))
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.streamFrames(ctx, c, sess, log)
	}()

	h.readCommands(ctx, c, sess, log)
	cancel()
	wg.Wait()
}

// streamFrames ticks the session at the configured interval and pushes each
// frame until ctx ends. A failed write closes the connection, which ends the
// read loop too.
func (h *Handler) streamFrames(ctx context.Context, c *client, sess *session.Session, log logging.Logger) {
	ticker := time.NewTicker(h.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f, err := sess.Tick(ctx, sess.Now())
			if err != nil {
				return
			}
			if err := c.send(Envelope{Type: TypeFrame, Frame: &f}); err != nil {
				log.Debug(ctx, "frame write failed", logging.Err(err))
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *Handler) readCommands(ctx context.Context, c *client, sess *session.Session, log logging.Logger) {
	limiter := rate.NewLimiter(rate.Limit(h.cfg.MessageRate), h.cfg.MessageBurst)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn(ctx, "renderer read failed", logging.Err(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			h.metrics.ObserveRendererMessage("invalid", "error")
			if c.send(Envelope{Type: TypeError, Error: "malformed message"}) != nil {
				return
			}
			continue
		}
		label := metricLabel(cmd.Type)
		if !limiter.Allow() {
			h.metrics.ObserveRendererMessage(label, "rate_limited")
			if c.send(Envelope{Type: TypeError, Error: "rate limited"}) != nil {
				return
			}
			continue
		}

		reply, err := h.apply(ctx, sess, cmd)
		if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			h.metrics.ObserveRendererMessage(label, "error")
			log.Debug(ctx, "renderer command rejected",
				logging.String("type", cmd.Type),
				logging.Err(err),
			)
			reply = Envelope{Type: TypeError, Error: err.Error()}
		} else {
			h.metrics.ObserveRendererMessage(label, "ok")
		}
		if c.send(reply) != nil {
			return
		}
	}
}

func (h *Handler) apply(ctx context.Context, sess *session.Session, cmd Command) (Envelope, error) {
	var (
		f   session.Frame
		id  string
		err error
	)
	switch cmd.Type {
	case TypeSelect:
		if cmd.BodyID == "" {
			return Envelope{}, errors.New("select needs body_id")
		}
		f, err = sess.Select(ctx, cmd.BodyID)
	case TypeDesel:
		f, err = sess.Select(ctx, "")
	case TypePick:
		ray, rerr := core.NewRay(cmd.Origin, cmd.Direction)
		if rerr != nil {
			return Envelope{}, rerr
		}
		id, f, err = sess.Pick(ctx, ray)
	case TypeToggle:
		f, err = sess.ToggleTopView(ctx)
	case TypeExit:
		f, err = sess.ExitView(ctx)
	default:
		return Envelope{}, fmt.Errorf("unknown message type %q", cmd.Type)
	}
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: TypeState, Frame: &f, Picked: id}, nil
}

// metricLabel keeps renderer-supplied strings out of label values.
func metricLabel(t string) string {
	switch t {
	case TypeSelect, TypeDesel, TypePick, TypeToggle, TypeExit:
		return t
	}
	return "unknown"
}

// client serialises writes; gorilla connections allow one writer at a time.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}
