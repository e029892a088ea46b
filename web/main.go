// Browser-based QR login: serves a page with the QR code and pushes the
// scan/confirm state over a websocket until the login completes.
package main

import (
	"flag"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/login"
)

// Session is one pending QR login.
type Session struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`

	qr *login.QRLogin
	mu sync.Mutex
}

// SessionManager tracks pending sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.Mutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

func (m *SessionManager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateUpdate is one websocket message.
type stateUpdate struct {
	State      string            `json:"state"`
	Credential *login.Credential `json:"credential,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	credPath := flag.String("out", "credential.json", "where to save the credential")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Init(*level, true)

	cfg := config.NewConfig()
	cli := client.New(cfg)
	manager := NewSessionManager()

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})

	// Start a QR session and hand the id back to the page.
	r.POST("/api/session", func(c *gin.Context) {
		channel := login.ChannelWeb
		if c.Query("channel") == "tv" {
			channel = login.ChannelTV
		}

		qr := login.NewQRLogin(cli, channel)
		if err := qr.Generate(); err != nil {
			logger.Log.Error().Err(err).Msg("failed to generate QR code")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		s := &Session{
			ID:        uuid.New().String(),
			Channel:   string(channel),
			State:     string(login.StateScan),
			CreatedAt: time.Now(),
			qr:        qr,
		}
		manager.Add(s)
		c.JSON(http.StatusOK, s)
	})

	// The QR image for a session.
	r.GET("/api/session/:id/qrcode.png", func(c *gin.Context) {
		s, ok := manager.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		qrURL, err := s.qr.URL()
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		png, err := qrcode.Encode(qrURL, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	// Live state over a websocket until done or expired.
	r.GET("/ws/:id", func(c *gin.Context) {
		s, ok := manager.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(*interval)
		defer ticker.Stop()

		for range ticker.C {
			s.mu.Lock()
			state, err := s.qr.Poll()
			s.mu.Unlock()

			if err != nil {
				_ = conn.WriteJSON(stateUpdate{State: "error", Error: err.Error()})
				return
			}

			update := stateUpdate{State: string(state)}
			if state == login.StateDone {
				cred, err := s.qr.Credential()
				if err != nil {
					_ = conn.WriteJSON(stateUpdate{State: "error", Error: err.Error()})
					return
				}
				if err := cred.Save(*credPath); err != nil {
					logger.Log.Error().Err(err).Msg("failed to save credential")
				} else {
					logger.Log.Info().Str("path", *credPath).Msg("credential saved")
				}
				update.Credential = cred
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if state == login.StateDone || state == login.StateExpired {
				manager.Remove(s.ID)
				return
			}
		}
	})

	logger.Log.Info().Str("addr", *addr).Msg("web QR login listening")
	if err := r.Run(*addr); err != nil {
		logger.Log.Fatal().Err(err).Msg("server failed")
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Bilibili QR Login</title></head>
<body>
<h3>Bilibili QR Login</h3>
<img id="qr" width="256" height="256" alt="qr code">
<p id="state">starting...</p>
<script>
fetch('/api/session', {method: 'POST'}).then(r => r.json()).then(s => {
  document.getElementById('qr').src = '/api/session/' + s.id + '/qrcode.png';
  const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/' + s.id);
  ws.onmessage = ev => {
    const u = JSON.parse(ev.data);
    document.getElementById('state').textContent = u.state + (u.error ? ': ' + u.error : '');
    if (u.state === 'done') { document.getElementById('state').textContent = 'logged in as ' + u.credential.DedeUserID; ws.close(); }
  };
});
</script>
</body>
</html>`
