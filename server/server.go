// Package server exposes the gait pipeline over HTTP: a WebSocket ingest
// endpoint streaming metrics back to each client, plus JSON endpoints for
// health and session diagnostics.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"headgait-stream/gait"
)

const (
	// pingInterval is how often the server pings an idle client; pongWait is
	// how long after the last pong (or read) the connection is considered dead.
	pingInterval = 20 * time.Second
	pongWait     = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Server owns the session registry and the shared processor.
type Server struct {
	proc     *gait.Processor
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id       string
	analyzer *gait.Analyzer
	started  time.Time
}

// New creates a server around a shared processor.
func New(proc *gait.Processor) *Server {
	return &Server{
		proc: proc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are phone apps and dashboards on arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleStream)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/reset", s.handleReset)
	return mux
}

// handleStream upgrades the connection and runs one full session on it: a
// read loop feeding the analyzer and a write pump streaming snapshots back.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] websocket upgrade failed: %v", err)
		return
	}

	sess := &session{
		id:       uuid.NewString(),
		analyzer: gait.NewAnalyzer(s.proc),
		started:  time.Now(),
	}
	s.register(sess)
	log.Printf("[Server] session %s connected from %s", sess.id, r.RemoteAddr)

	defer func() {
		s.unregister(sess.id)
		sess.analyzer.Close()
		conn.Close()
		log.Printf("[Server] session %s closed", sess.id)
	}()

	go s.writePump(conn, sess)
	s.readLoop(conn, sess)
}

// readLoop accepts inbound sample records until the connection dies. An
// unparsable record is logged and skipped; a parsable record missing fields
// is dropped silently. Valid samples feed the analyzer.
func (s *Server) readLoop(conn *websocket.Conn, sess *session) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Server] session %s read error: %v", sess.id, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		sample, ok, err := gait.ParseSample(data)
		if err != nil {
			log.Printf("[Server] session %s: ignoring unparsable record: %v", sess.id, err)
			continue
		}
		if !ok {
			continue
		}
		sess.analyzer.Push(sample)
	}
}

// writePump streams snapshots to the client in analysis order and keeps the
// connection alive with pings. It exits when the analyzer's snapshot channel
// closes or a write fails.
func (s *Server) writePump(conn *websocket.Conn, sess *session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-sess.analyzer.Snapshots():
			if !ok {
				// Analyzer is gone; drop the connection so the read
				// loop tears the session down.
				conn.Close()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				log.Printf("[Server] session %s write error: %v", sess.id, err)
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus reports the processor mode and every live session with its
// most recent metrics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type sessionStatus struct {
		ID         string               `json:"id"`
		BufferSize int                  `json:"buffer_size"`
		UptimeSec  float64              `json:"uptime_sec"`
		Metrics    gait.MetricsSnapshot `json:"metrics"`
	}

	s.mu.Lock()
	statuses := make([]sessionStatus, 0, len(s.sessions))
	for _, sess := range s.sessions {
		statuses = append(statuses, sessionStatus{
			ID:         sess.id,
			BufferSize: sess.analyzer.BufferLen(),
			UptimeSec:  time.Since(sess.started).Seconds(),
			Metrics:    sess.analyzer.LastSnapshot(),
		})
	}
	s.mu.Unlock()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"using_model": s.proc.UsingModel(),
		"sessions":    statuses,
	})
}

// handleReset clears one session's buffer and cumulative counters.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("session")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	sess.analyzer.Reset()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "session": id})
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SessionCount reports the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
