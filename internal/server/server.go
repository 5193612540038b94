// Package server implements the room relay peers connect through. It is a
// plain message bus: it admits uniquely named peers into rooms, fans
// envelopes out to their recipients, and replays recent history to late
// joiners. Game semantics live entirely in the peers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

// CloseNameTaken is the close code sent when a peer's name is already in
// use in the room.
const CloseNameTaken = 4401

// ErrNameTaken is returned when a joining peer's name collides with a
// connected peer.
var ErrNameTaken = errors.New("name already taken")

// Server hosts the WebSocket relay.
type Server struct {
	addr         string
	upgrader     websocket.Upgrader
	historyLimit int
	logger       *log.Logger
	clock        quartz.Clock

	mu    sync.RWMutex
	rooms map[string]*Room

	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewServer creates a relay listening on addr.
func NewServer(addr string, historyLimit int, logger *log.Logger, clock quartz.Clock) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The relay carries no secrets; any origin may join a room.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		historyLimit: historyLimit,
		logger:       logger.WithPrefix("server"),
		clock:        clock,
		rooms:        make(map[string]*Room),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Handler returns the relay's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rooms/{room}/{name}", s.handleJoin)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start starts the relay and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.logger.Info("Starting relay", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the relay down, closing every connection.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.Unlock()

	for _, room := range rooms {
		room.mu.RLock()
		for _, conn := range room.conns {
			_ = conn.Close()
		}
		room.mu.RUnlock()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Room returns the named room, creating it on first use.
func (s *Server) Room(name string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[name]
	if !ok {
		room = NewRoom(name, s.historyLimit, s.logger)
		s.rooms[name] = room
		s.logger.Info("Room created", "room", name)
	}
	return room
}

// handleJoin upgrades a peer and admits it to its room.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	roomName := strings.ToLower(r.PathValue("room"))
	peerName := r.PathValue("name")

	if roomName == "" || peerName == "" {
		http.Error(w, "room and name required", http.StatusBadRequest)
		return
	}
	if strings.EqualFold(peerName, "everyone") {
		http.Error(w, "reserved name", http.StatusBadRequest)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	room := s.Room(roomName)
	conn := NewConnection(wsConn, peerName, room, s.logger, s.clock)
	if err := room.Join(conn); err != nil {
		s.logger.Info("Rejecting duplicate name", "room", roomName, "peer", peerName)
		deadline := time.Now().Add(writeWait)
		_ = wsConn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseNameTaken, err.Error()), deadline)
		_ = wsConn.Close()
		return
	}
	conn.Start()

	go func() {
		select {
		case <-conn.Done():
		case <-s.ctx.Done():
			_ = conn.Close()
		}
		room.Leave(conn)
		s.reapRoom(room)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// reapRoom drops a room once its last peer leaves, discarding its history.
func (s *Server) reapRoom(room *Room) {
	if !room.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.rooms[room.Name()]; ok && current == room && room.Empty() {
		delete(s.rooms, room.Name())
		s.logger.Info("Room closed", "room", room.Name())
	}
}
