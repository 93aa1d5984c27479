package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// Server is the HTTP server for the constellation monitor.
type Server struct {
	mux  *http.ServeMux
	hub  *WSHub
	addr string
}

// NewServer creates an HTTP server around a WebSocket hub.
func NewServer(addr string, hub *WSHub) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		hub:  hub,
		addr: addr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	s.hub.AddClient(conn)

	// Drain client messages until it hangs up.
	go func() {
		defer s.hub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

// Start starts the HTTP server. It blocks.
func (s *Server) Start() error {
	log.Printf("Constellation monitor at http://%s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// indexPage is a self-contained constellation scatter view, enough to
// eyeball the transmitted points without any build tooling.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Constellation Monitor</title>
<style>
 body { background: #111; color: #ddd; font-family: monospace; text-align: center; }
 canvas { background: #000; border: 1px solid #333; margin-top: 1em; }
</style>
</head>
<body>
<h3>Constellation Monitor</h3>
<canvas id="c" width="480" height="480"></canvas>
<div id="status">connecting...</div>
<script>
const canvas = document.getElementById('c');
const ctx = canvas.getContext('2d');
const status = document.getElementById('status');
const scale = 48; // pixels per unit
function plot(i, q) {
  ctx.fillStyle = 'rgba(0, 0, 0, 0.08)';
  ctx.fillRect(0, 0, canvas.width, canvas.height);
  ctx.fillStyle = '#3f6';
  for (let n = 0; n < i.length; n++) {
    const x = canvas.width / 2 + i[n] * scale;
    const y = canvas.height / 2 - q[n] * scale;
    ctx.fillRect(x - 1, y - 1, 2, 2);
  }
}
const ws = new WebSocket('ws://' + location.host + '/ws');
ws.onopen = () => { status.textContent = 'connected'; };
ws.onclose = () => { status.textContent = 'disconnected'; };
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === 'iq') plot(msg.payload.i, msg.payload.q);
  if (msg.type === 'status') status.textContent =
    msg.payload.status + ' (' + msg.payload.samples + ' samples)';
};
</script>
</body>
</html>
`
