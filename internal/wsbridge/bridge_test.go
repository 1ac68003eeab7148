package wsbridge

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
)

var bridgeStart = time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

func newBridge(t *testing.T, cfg Config) (string, *observability.ViewerCollector) {
	t.Helper()
	collector, err := observability.NewViewerCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewViewerCollector: %v", err)
	}
	factory := func(ctx context.Context) (*session.Session, error) {
		return session.New(ctx, session.Config{
			Clock:   timectrl.NewManualClock(bridgeStart),
			Metrics: collector,
		})
	}
	srv := httptest.NewServer(NewHandler(factory, cfg, logging.Noop(), collector))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), collector
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads envelopes until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, want string) Envelope {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("ReadJSON waiting for %q: %v", want, err)
		}
		if env.Type == want {
			return env
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, cmd Command) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnectSendsSceneFirst(t *testing.T) {
	url, collector := newBridge(t, Config{FrameInterval: time.Hour})
	conn := dial(t, url)

	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if env.Type != TypeScene || env.Scene == nil || env.Frame == nil {
		t.Fatalf("first message = %+v", env)
	}
	if len(env.Scene.Bodies) != 9 || len(env.Scene.Skyboxes) != 2 {
		t.Fatalf("scene = %+v", env.Scene)
	}
	if env.Frame.Camera.Position != (model.Coordinates{Z: 100}) || env.Frame.Mode != "free" {
		t.Fatalf("initial frame = %+v", env.Frame)
	}

	waitFor(t, func() bool { return testutil.ToFloat64(collector.ConnectedRenderers) == 1 })
	conn.Close()
	waitFor(t, func() bool {
		return testutil.ToFloat64(collector.ConnectedRenderers) == 0 &&
			testutil.ToFloat64(collector.ActiveSessions) == 0
	})
}

func TestCommandsDriveSession(t *testing.T) {
	url, collector := newBridge(t, Config{FrameInterval: time.Hour})
	conn := dial(t, url)
	next(t, conn, TypeScene)

	send(t, conn, Command{Type: TypeSelect, BodyID: "mars"})
	st := next(t, conn, TypeState)
	if st.Frame.Selected != "mars" || !st.Frame.Transitioning || st.Frame.Info != "Mars" {
		t.Fatalf("select state = %+v", st.Frame)
	}

	send(t, conn, Command{Type: TypeToggle})
	if st = next(t, conn, TypeState); st.Frame.Mode != "top_down" {
		t.Fatalf("toggle state = %+v", st.Frame)
	}

	send(t, conn, Command{Type: TypeDesel})
	if st = next(t, conn, TypeState); st.Frame.Selected != "" || st.Frame.Info != "" {
		t.Fatalf("deselect state = %+v", st.Frame)
	}

	send(t, conn, Command{
		Type:      TypePick,
		Origin:    &model.Coordinates{X: 120, Y: 50},
		Direction: &model.Coordinates{Y: -1},
	})
	if st = next(t, conn, TypeState); st.Picked != "saturn" || st.Frame.Selected != "saturn" {
		t.Fatalf("pick state = %+v", st)
	}

	if got := testutil.ToFloat64(collector.RendererMessages.WithLabelValues(TypeSelect, "ok")); got != 1 {
		t.Fatalf("select messages = %v, want 1", got)
	}
}

func TestRejectedCommands(t *testing.T) {
	url, collector := newBridge(t, Config{FrameInterval: time.Hour})
	conn := dial(t, url)
	next(t, conn, TypeScene)

	send(t, conn, Command{Type: TypeSelect, BodyID: "pluto"})
	if env := next(t, conn, TypeError); !strings.Contains(env.Error, "body not found") {
		t.Fatalf("unknown body error = %q", env.Error)
	}

	send(t, conn, Command{Type: "warp"})
	if env := next(t, conn, TypeError); !strings.Contains(env.Error, "unknown message type") {
		t.Fatalf("unknown type error = %q", env.Error)
	}

	send(t, conn, Command{Type: TypePick, Origin: &model.Coordinates{}})
	if env := next(t, conn, TypeError); !strings.Contains(env.Error, "invalid pick ray") {
		t.Fatalf("pick without direction error = %q", env.Error)
	}
	send(t, conn, Command{Type: TypePick, Origin: &model.Coordinates{}, Direction: &model.Coordinates{}})
	if env := next(t, conn, TypeError); !strings.Contains(env.Error, "zero pick direction") {
		t.Fatalf("zero direction error = %q", env.Error)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if env := next(t, conn, TypeError); env.Error != "malformed message" {
		t.Fatalf("malformed error = %q", env.Error)
	}

	if got := testutil.ToFloat64(collector.RendererMessages.WithLabelValues("unknown", "error")); got != 1 {
		t.Fatalf("unknown-type errors = %v, want 1", got)
	}
}

func TestRateLimit(t *testing.T) {
	url, collector := newBridge(t, Config{FrameInterval: time.Hour, MessageRate: 0.001, MessageBurst: 1})
	conn := dial(t, url)
	next(t, conn, TypeScene)

	send(t, conn, Command{Type: TypeToggle})
	next(t, conn, TypeState)
	send(t, conn, Command{Type: TypeToggle})
	if env := next(t, conn, TypeError); env.Error != "rate limited" {
		t.Fatalf("second toggle = %+v", env)
	}
	if got := testutil.ToFloat64(collector.RendererMessages.WithLabelValues(TypeToggle, "rate_limited")); got != 1 {
		t.Fatalf("rate limited = %v, want 1", got)
	}
}

func TestFramesStream(t *testing.T) {
	url, _ := newBridge(t, Config{FrameInterval: 10 * time.Millisecond})
	conn := dial(t, url)
	next(t, conn, TypeScene)

	a := next(t, conn, TypeFrame)
	b := next(t, conn, TypeFrame)
	if b.Frame.Seq <= a.Frame.Seq {
		t.Fatalf("frame seq %d then %d", a.Frame.Seq, b.Frame.Seq)
	}
	if b.Frame.Rotations["earth"] <= 0 {
		t.Fatalf("earth has not spun: %+v", b.Frame.Rotations)
	}
}

func TestSessionFactoryFailureClosesConnection(t *testing.T) {
	factory := func(context.Context) (*session.Session, error) { return nil, errors.New("boom") }
	srv := httptest.NewServer(NewHandler(factory, Config{}, logging.Noop(), nil))
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Fatalf("ReadMessage = %v, want internal-error close", err)
	}
}
