package input

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sceneforge/sceneforge/internal/core/events"
)

func TestPumpInjectsFramesAsBroadcast(t *testing.T) {
	dispatcher := events.NewDispatcher(nil)
	evtType := events.NewType()

	received := make(chan events.Event, 1)
	dispatcher.Register(events.Owner{ID: "sink"}, events.Registration{
		Type: evtType, Scope: events.ScopeBroadcast, Name: "sink",
		Handler: func(evt events.Event) error {
			received <- evt
			return nil
		},
	})
	// local listeners must never see external frames
	var localFired bool
	dispatcher.Register(events.Owner{ID: "obj"}, events.Registration{
		Type: evtType, Scope: events.ScopeLocal, Name: "l",
		Handler: func(events.Event) error {
			localFired = true
			return nil
		},
	})

	s := httptest.NewServer(NewPump(dispatcher, nil))
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frame := Frame{Type: evtType, Source: "pad-1", Data: map[string]any{"key": "w"}}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case evt := <-received:
		if evt.Source != "pad-1" {
			t.Fatalf("source not carried: %q", evt.Source)
		}
		if evt.Data["key"] != "w" {
			t.Fatalf("payload not carried: %v", evt.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame never reached the dispatcher")
	}
	if localFired {
		t.Fatal("external frame reached a local listener")
	}
}

func TestPumpSurvivesMalformedFrame(t *testing.T) {
	dispatcher := events.NewDispatcher(nil)
	s := httptest.NewServer(NewPump(dispatcher, nil))
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	// the connection is closed on a bad frame, not the server
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatal("expected the connection to be closed")
	}

	// a fresh connection still works
	conn2, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("redial: %v", err)
	}
	_ = conn2.Close()
}

func TestPingStopsWhenReadLoopEnds(t *testing.T) {
	// a server-side connection for the keepalive loop to run against
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conns := make(chan *websocket.Conn, 1)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- conn
	}))
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	serverConn := <-conns
	defer serverConn.Close()

	p := NewPump(events.NewDispatcher(nil), nil)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		p.ping(serverConn, done)
		close(finished)
	}()

	// the keepalive loop must exit as soon as the read loop signals,
	// well before the next ping tick
	close(done)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("keepalive loop kept running after the connection ended")
	}
}
