package server

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/brandosha/socialdistanceroom/internal/protocol"
)

// Room is one chat room: a named set of connected peers plus the recent
// message history replayed to late joiners. Rooms route envelopes without
// inspecting their payloads; the peers themselves hold all game state.
type Room struct {
	name         string
	historyLimit int
	logger       *log.Logger

	mu      sync.RWMutex
	conns   map[string]*Connection // keyed by lowercased name
	order   []string               // join order, original capitalization
	history []*protocol.Envelope
}

// NewRoom creates an empty room.
func NewRoom(name string, historyLimit int, logger *log.Logger) *Room {
	return &Room{
		name:         name,
		historyLimit: historyLimit,
		logger:       logger.WithPrefix("room").With("room", name),
		conns:        make(map[string]*Connection),
	}
}

// Name returns the room's name.
func (r *Room) Name() string {
	return r.name
}

// Join admits a connection: the joiner gets the current roster and the
// recent history, everyone else gets a presence announcement. Names must be
// unique per room, compared case-insensitively.
func (r *Room) Join(conn *Connection) error {
	key := strings.ToLower(conn.Name())

	r.mu.Lock()
	if _, taken := r.conns[key]; taken {
		r.mu.Unlock()
		return ErrNameTaken
	}
	r.conns[key] = conn
	r.order = append(r.order, conn.Name())

	roster := make([]string, 0, len(r.order)-1)
	for _, name := range r.order {
		if !strings.EqualFold(name, conn.Name()) {
			roster = append(roster, name)
		}
	}
	replay := make([]*protocol.Envelope, len(r.history))
	copy(replay, r.history)
	r.mu.Unlock()

	if env, err := protocol.NewEnvelope(protocol.MessageTypeRoster, []string{conn.Name()}, protocol.Roster{Players: roster}); err == nil {
		_ = conn.Send(env)
	}
	for _, env := range replay {
		_ = conn.Send(env)
	}

	r.announce(conn.Name(), true)
	r.logger.Info("Peer joined", "peer", conn.Name(), "total", r.Size())
	return nil
}

// Leave removes a connection and announces the departure.
func (r *Room) Leave(conn *Connection) {
	key := strings.ToLower(conn.Name())

	r.mu.Lock()
	current, ok := r.conns[key]
	if !ok || current != conn {
		// A later connection already took over this name.
		r.mu.Unlock()
		return
	}
	delete(r.conns, key)
	for i, name := range r.order {
		if strings.EqualFold(name, conn.Name()) {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.announce(conn.Name(), false)
	r.logger.Info("Peer left", "peer", conn.Name(), "total", r.Size())
}

// Route stamps the sender onto an envelope and delivers it: broadcast
// envelopes go to every other peer and into the history, addressed
// envelopes go only to the named peers.
func (r *Room) Route(from string, env *protocol.Envelope) {
	env.From = from

	if env.Broadcast() {
		r.record(env)

		r.mu.RLock()
		defer r.mu.RUnlock()
		for key, conn := range r.conns {
			if key == strings.ToLower(from) {
				continue
			}
			if err := conn.Send(env); err != nil {
				r.logger.Error("Failed to deliver envelope", "peer", conn.Name(), "error", err)
			}
		}
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, to := range env.To {
		if strings.EqualFold(to, from) {
			continue
		}
		conn, ok := r.conns[strings.ToLower(to)]
		if !ok {
			r.logger.Debug("Dropping envelope for absent peer", "to", to, "from", from)
			continue
		}
		if err := conn.Send(env); err != nil {
			r.logger.Error("Failed to deliver envelope", "peer", conn.Name(), "error", err)
		}
	}
}

// Roster returns the peers in join order.
func (r *Room) Roster() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Size returns the number of connected peers.
func (r *Room) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Empty reports whether the room has no peers left.
func (r *Room) Empty() bool {
	return r.Size() == 0
}

// announce fans out a presence change to every peer except the subject.
func (r *Room) announce(name string, connected bool) {
	env, err := protocol.NewEnvelope(protocol.MessageTypePeer, protocol.Everyone, protocol.Peer{
		Name:      name,
		Connected: connected,
	})
	if err != nil {
		r.logger.Error("Failed to create presence envelope", "error", err)
		return
	}
	env.From = name

	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, conn := range r.conns {
		if key == strings.ToLower(name) {
			continue
		}
		_ = conn.Send(env)
	}
}

// record appends a broadcast envelope to the replay history, dropping the
// oldest entries past the limit.
func (r *Room) record(env *protocol.Envelope) {
	if r.historyLimit == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, env)
	if len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
}
