package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wagerlab/arenacore/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// socket upgrades the connection and reads the `token` query parameter; the
// connection joins no room until it sends battle:subscribe, at which point
// the hub validates that token. On disconnect it leaves every room (spec
// §4.7 "Rooms", §6 "Socket events").
func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.deps.Log != nil {
			h.deps.Log.WithError(err).Warn("websocket upgrade failed")
		}
		return
	}

	conn := hub.NewConn(ws)
	token := r.URL.Query().Get("token")
	go conn.WritePump()

	onSubscribe := func(room string) { h.deps.Hub.Join(room, token, conn) }
	onUnsubscribe := func(room string) { h.deps.Hub.Leave(room, conn) }

	conn.ReadLoop(onSubscribe, onUnsubscribe, h.handleSocketBattleRequest)
	h.deps.Hub.LeaveAll(conn)
}
