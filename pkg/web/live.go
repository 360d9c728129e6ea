package web

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/multiform-dev/multiform"
)

const (
	liveReadLimit   = 256 << 10
	liveReadTimeout = 60 * time.Second
	livePingPeriod  = 30 * time.Second
	liveWriteWait   = 10 * time.Second
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same-origin only; the check compares Origin against the Host
	// header and is gorilla's default behavior when CheckOrigin is nil.
}

// liveDraft is one draft the client wants validated.
type liveDraft struct {
	Data map[string][]string `json:"data"`
}

// liveVerdict is the verdict pushed back for each draft.
type liveVerdict struct {
	Valid  bool             `json:"valid"`
	Errors multiform.Errors `json:"errors,omitempty"`
}

// LiveHandler upgrades to a WebSocket and validates form drafts as they
// arrive: the client sends {"data": {field: [values]}} messages and
// receives a {"valid", "errors"} verdict for each. Files cannot travel
// over this channel, so file fields validate as unsubmitted.
func LiveHandler(name string, factory Factory, opts ...Option) http.Handler {
	cfg := newHandlerConfig(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := liveUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			cfg.logger.Debug("websocket upgrade", "form", name, "error", err)
			return
		}
		defer conn.Close()

		recordLiveSession(1)
		defer recordLiveSession(-1)
		cfg.logger.Info("live validation session opened", "form", name, "remote", r.RemoteAddr)

		conn.SetReadLimit(liveReadLimit)
		conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
		})

		// Pings and verdicts share the connection; gorilla allows one
		// writer at a time.
		var writeMu sync.Mutex
		done := make(chan struct{})
		defer close(done)
		go pingLoop(conn, &writeMu, done)

		for {
			var draft liveDraft
			if err := conn.ReadJSON(&draft); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					cfg.logger.Debug("live session read", "form", name, "error", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(liveReadTimeout))

			mf, err := factory(url.Values(draft.Data), nil)
			if err != nil {
				cfg.logger.Error("build form", "form", name, "error", err)
				return
			}

			start := time.Now()
			valid, _ := tracedValidate(r.Context(), name, mf)
			recordValidation(name, valid, time.Since(start).Seconds())

			verdict := liveVerdict{Valid: valid}
			if !valid {
				verdict.Errors = mf.Errors()
			}
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			err = conn.WriteJSON(verdict)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	})
}

// pingLoop keeps the connection alive until the read loop exits.
func pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
