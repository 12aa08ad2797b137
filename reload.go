package prender

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// ReloadPath is the websocket endpoint development documents connect to.
const ReloadPath = "/__prender/reload"

// reloadClientJS is embedded in every development-mode document. It reloads
// the page on any hub message and retries the connection when the server
// restarts.
const reloadClientJS = `(function() {
	function connect() {
		var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
		var ws = new WebSocket(proto + location.host + '` + ReloadPath + `');
		ws.onmessage = function() { location.reload(); };
		ws.onclose = function() { setTimeout(connect, 1000); };
	}
	connect();
})();`

// ReloadHub tracks connected development clients and tells them to reload
// when source files change.
type ReloadHub struct {
	log *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewReloadHub(log *zap.Logger) *ReloadHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReloadHub{
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and holds the connection open until the
// client goes away. Clients never send meaningful data; reads only drain
// control frames.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Debug("reload client rejected", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Debug("reload client connected", zap.Int("clients", n))

	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		c.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.Read(r.Context()); err != nil {
			return
		}
	}
}

// Broadcast tells every connected client to reload. Connections that fail to
// accept the message are dropped.
func (h *ReloadHub) Broadcast() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	h.log.Debug("broadcasting reload", zap.Int("clients", len(conns)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, []byte("reload")); err != nil {
			h.mu.Lock()
			delete(h.conns, c)
			h.mu.Unlock()
			c.Close(websocket.StatusGoingAway, "write failed")
		}
	}
}
