// Package input bridges external event sources into the dispatcher. The
// websocket pump is the reference source: a connected client sends JSON
// frames that are injected as broadcast events.
package input

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

const (
	readLimit  = 64 * 1024
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Frame is one inbound event frame.
type Frame struct {
	Type   int            `json:"type"`
	Source string         `json:"source"`
	Data   map[string]any `json:"data"`
}

// Pump accepts websocket connections and feeds their frames into the
// dispatcher. External frames are always injected as broadcast events; a
// client cannot target individual objects or scenes.
type Pump struct {
	upgrader   websocket.Upgrader
	dispatcher *events.Dispatcher
	log        log.Log
}

func NewPump(dispatcher *events.Dispatcher, logger log.Log) *Pump {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pump{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		dispatcher: dispatcher,
		log:        logger,
	}
}

// ServeHTTP upgrades the request and pumps frames until the client hangs up.
func (p *Pump) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	p.log.Info("input client connected", log.String("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go p.ping(conn, done)
	p.read(conn)
	close(done)
}

func (p *Pump) read(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.log.Warn("input client dropped", log.Err(err))
			}
			return
		}
		source := frame.Source
		if source == "" {
			source = conn.RemoteAddr().String()
		}
		if err := p.dispatcher.EmitExternal(frame.Type, source, frame.Data); err != nil {
			p.log.Warn("external event listeners failed",
				log.Int("event_type", frame.Type),
				log.Err(err),
			)
		}
	}
}

func (p *Pump) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
