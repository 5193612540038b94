// Package client implements one participant in a card room: the relay
// transport, the roster, the local game session, and the command pipeline
// that turns ".verb options" chat input into deterministic game actions
// every peer replays with the same seed.
package client

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/brandosha/socialdistanceroom/internal/game"
	"github.com/brandosha/socialdistanceroom/internal/protocol"
)

// EventKind classifies transcript events for the UI.
type EventKind int

const (
	// EventChat is a chat line from a peer or the local player.
	EventChat EventKind = iota

	// EventSystem is presence and room bookkeeping.
	EventSystem

	// EventGame is a game action's narrative outcome.
	EventGame

	// EventError is a command error, shown locally only.
	EventError
)

// Event is one transcript entry.
type Event struct {
	Kind EventKind
	Text string

	// ShownPile is the key of a pile whose contents this event reveals,
	// empty otherwise. The UI uses it to mark earlier reveals stale.
	ShownPile string

	// Modified lists the keys of piles this event changed.
	Modified []string
}

// PileInfo is a UI snapshot of one pile.
type PileInfo struct {
	Key   string
	Label string
	Count int

	// Cards is the rendered contents, only populated for the local
	// player's own hand.
	Cards []string
}

// Peer is one participant: it owns the local session and keeps it in sync
// with the room by replaying every broadcast action.
type Peer struct {
	name      string
	transport Transport
	logger    *log.Logger
	seedFn    func() uint32
	events    chan Event

	mu      sync.Mutex
	roster  []string
	session *game.Session
	seen    map[string]struct{}
}

// Option configures a Peer.
type Option func(*Peer)

// WithSeedFunc overrides the command seed source.
func WithSeedFunc(fn func() uint32) Option {
	return func(p *Peer) {
		p.seedFn = fn
	}
}

// NewPeer creates a peer named name speaking through transport. The roster
// starts with just the local player; the relay's roster message fills in
// the rest.
func NewPeer(name string, transport Transport, logger *log.Logger, opts ...Option) *Peer {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	p := &Peer{
		name:      name,
		transport: transport,
		logger:    logger.WithPrefix("peer"),
		seedFn:    rng.Uint32,
		events:    make(chan Event, 256),
		roster:    []string{name},
		seen:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the local player's display name.
func (p *Peer) Name() string {
	return p.name
}

// Events returns the transcript stream. It closes when Run returns.
func (p *Peer) Events() <-chan Event {
	return p.events
}

// Run processes envelopes from the transport until the context is done or
// the transport closes.
func (p *Peer) Run(ctx context.Context) error {
	defer close(p.events)

	for {
		select {
		case env, ok := <-p.transport.Receive():
			if !ok {
				return nil
			}
			p.handleEnvelope(env)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Input processes one line typed by the local player: a leading "." makes
// it a command, anything else is chat.
func (p *Peer) Input(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if strings.HasPrefix(line, ".") {
		p.command(line[1:])
		return
	}
	p.chat(line)
}

// Roster returns the room's players in join order.
func (p *Peer) Roster() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.roster...)
}

// InGame reports whether a session is active.
func (p *Peer) InGame() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Piles returns a UI snapshot: shared piles in creation order, then every
// hand. Only the local player's own hand includes card text.
func (p *Peer) Piles() []PileInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}

	var infos []PileInfo
	for _, name := range p.session.SharedPiles() {
		pile, _ := p.session.Pile(name)
		infos = append(infos, PileInfo{
			Key:   pileKey(pile),
			Label: name,
			Count: pile.Len(),
		})
	}
	for _, player := range p.roster {
		pile, ok := p.session.Hand(player)
		if !ok {
			continue
		}
		info := PileInfo{
			Key:   pileKey(pile),
			Label: player,
			Count: pile.Len(),
		}
		if strings.EqualFold(player, p.name) {
			for _, card := range pile.Cards() {
				info.Cards = append(info.Cards, p.session.CardText(card))
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// command parses and runs a dot command. The whole line is lowercased and
// split on whitespace; the raw tokens travel to the other peers untouched.
func (p *Peer) command(line string) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return
	}
	verb, options := fields[0], fields[1:]

	p.mu.Lock()
	defer p.mu.Unlock()

	if verb == "start" {
		p.startGame(options)
		return
	}

	if p.session == nil {
		p.emit(Event{Kind: EventError, Text: "No game is in progress. Start one with .start"})
		return
	}

	seed := p.seedFn()
	outcome, err := p.session.Execute(verb, options, seed, p.name)
	if err != nil {
		p.emitCommandError(err)
		return
	}

	text := outcome.Text
	if len(outcome.Cards) > 0 {
		text += "\n" + p.session.FormatCards(outcome.Cards, true)
	}
	p.emit(Event{
		Kind:      EventGame,
		Text:      text,
		ShownPile: shownKey(outcome),
		Modified:  modifiedKeys(outcome),
	})

	if outcome.Share {
		p.sendAction(verb, options, seed)
	}
}

// startGame creates a fresh session and announces it to the room.
func (p *Peer) startGame(options []string) {
	presetName, err := game.ParseStart(options)
	if err != nil {
		p.emitCommandError(err)
		return
	}

	seed := p.seedFn()
	session, announce, err := game.NewSession(presetName, seed, rosterRef{p}, p.name, p.logger)
	if err != nil {
		p.emitCommandError(err)
		return
	}
	p.session = session

	p.emit(Event{Kind: EventGame, Text: "You started " + game.Presets[presetName].DisplayName})
	for _, line := range announce {
		p.emit(Event{Kind: EventGame, Text: line})
	}

	p.sendAction("start", options, seed)
}

// chat broadcasts a plain line.
func (p *Peer) chat(text string) {
	env, err := protocol.NewEnvelope(protocol.MessageTypeChat, protocol.Everyone, protocol.Chat{Text: text})
	if err != nil {
		p.logger.Error("Failed to encode chat", "error", err)
		return
	}
	if err := p.transport.Send(env); err != nil {
		p.logger.Error("Failed to send chat", "error", err)
		p.emit(Event{Kind: EventError, Text: "Message not sent: " + err.Error()})
		return
	}
	p.emit(Event{Kind: EventChat, Text: "You: " + text})
}

// sendAction broadcasts a game command with its seed.
func (p *Peer) sendAction(verb string, options []string, seed uint32) {
	env, err := protocol.NewEnvelope(protocol.MessageTypeAction, protocol.Everyone, protocol.Action{
		Action:  verb,
		Options: options,
		Seed:    seed,
	})
	if err != nil {
		p.logger.Error("Failed to encode action", "error", err)
		return
	}
	if err := p.transport.Send(env); err != nil {
		p.logger.Error("Failed to send action", "error", err)
		p.emit(Event{Kind: EventError, Text: "Action not sent: " + err.Error()})
	}
}

// handleEnvelope dispatches one envelope from the relay.
func (p *Peer) handleEnvelope(env *protocol.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.seen[env.ID]; dup {
		p.logger.Debug("Dropping duplicate envelope", "id", env.ID)
		return
	}
	p.seen[env.ID] = struct{}{}

	switch env.Type {
	case protocol.MessageTypeChat:
		chat, err := protocol.DecodePayload[protocol.Chat](env)
		if err != nil {
			p.logger.Warn("Bad chat payload", "from", env.From, "error", err)
			return
		}
		p.emit(Event{Kind: EventChat, Text: env.From + ": " + chat.Text})

	case protocol.MessageTypeAction:
		action, err := protocol.DecodePayload[protocol.Action](env)
		if err != nil {
			p.logger.Warn("Bad action payload", "from", env.From, "error", err)
			return
		}
		p.replayAction(env.From, action)

	case protocol.MessageTypePeer:
		peer, err := protocol.DecodePayload[protocol.Peer](env)
		if err != nil {
			p.logger.Warn("Bad peer payload", "error", err)
			return
		}
		p.handlePresence(peer)

	case protocol.MessageTypeRoster:
		roster, err := protocol.DecodePayload[protocol.Roster](env)
		if err != nil {
			p.logger.Warn("Bad roster payload", "error", err)
			return
		}
		p.roster = append(append([]string(nil), roster.Players...), p.name)
		p.logger.Info("Joined room", "players", len(p.roster))

	default:
		p.logger.Warn("Unknown envelope type", "type", env.Type)
	}
}

// replayAction re-executes a peer's command against the local session.
func (p *Peer) replayAction(from string, action *protocol.Action) {
	if action.Action == "start" {
		presetName, err := game.ParseStart(action.Options)
		if err != nil {
			p.logger.Warn("Peer sent invalid start", "from", from, "error", err)
			return
		}
		session, announce, err := game.NewSession(presetName, action.Seed, rosterRef{p}, p.name, p.logger)
		if err != nil {
			p.logger.Error("Failed to start game from peer", "from", from, "error", err)
			p.emit(Event{Kind: EventError, Text: "Failed to start the game " + from + " launched"})
			return
		}
		p.session = session

		p.emit(Event{Kind: EventGame, Text: from + " started " + game.Presets[presetName].DisplayName})
		for _, line := range announce {
			p.emit(Event{Kind: EventGame, Text: line})
		}
		return
	}

	if p.session == nil {
		p.logger.Debug("Ignoring action with no game in progress", "from", from, "action", action.Action)
		return
	}

	outcome, err := p.session.Execute(action.Action, action.Options, action.Seed, from)
	if err != nil {
		// Their command, their problem; state did not change.
		p.logger.Warn("Peer action failed", "from", from, "action", action.Action, "error", err)
		return
	}

	if outcome.Silent {
		return
	}
	p.emit(Event{
		Kind:      EventGame,
		Text:      outcome.Text,
		ShownPile: shownKey(outcome),
		Modified:  modifiedKeys(outcome),
	})
}

// handlePresence updates the roster and the session's hands.
func (p *Peer) handlePresence(peer *protocol.Peer) {
	if peer.Connected {
		for _, name := range p.roster {
			if strings.EqualFold(name, peer.Name) {
				return
			}
		}
		p.roster = append(p.roster, peer.Name)
		if p.session != nil {
			p.session.AddPlayer(peer.Name)
		}
		p.emit(Event{Kind: EventSystem, Text: peer.Name + " connected"})
		return
	}

	for i, name := range p.roster {
		if strings.EqualFold(name, peer.Name) {
			p.roster = append(p.roster[:i], p.roster[i+1:]...)
			break
		}
	}
	if p.session != nil {
		p.session.RemovePlayer(peer.Name)
	}
	p.emit(Event{Kind: EventSystem, Text: peer.Name + " disconnected"})
}

// emitCommandError renders a command failure locally. Anything that is not
// a CommandError is an internal fault and gets a generic line.
func (p *Peer) emitCommandError(err error) {
	var cmdErr *game.CommandError
	if e, ok := err.(*game.CommandError); ok {
		cmdErr = e
	}
	if cmdErr == nil {
		p.logger.Error("Internal command fault", "error", err)
		p.emit(Event{Kind: EventError, Text: "Something went wrong running that command"})
		return
	}
	p.emit(Event{Kind: EventError, Text: cmdErr.Message})
}

// emit queues a transcript event, dropping it if the UI has fallen too far
// behind.
func (p *Peer) emit(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Dropping transcript event, UI not keeping up")
	}
}

// rosterRef adapts the peer's live roster to the session. It is only read
// while the peer's lock is held.
type rosterRef struct {
	p *Peer
}

func (r rosterRef) Players() []string {
	return r.p.roster
}

// pileKey uniquely names a pile for staleness tracking: hands share the
// name "hand", so the owner disambiguates.
func pileKey(pile *game.Pile) string {
	return pile.Owner() + "/" + pile.Name()
}

func shownKey(outcome *game.Outcome) string {
	if outcome.Shows == nil {
		return ""
	}
	return pileKey(outcome.Shows)
}

func modifiedKeys(outcome *game.Outcome) []string {
	keys := make([]string, 0, len(outcome.Modifies))
	for _, pile := range outcome.Modifies {
		keys = append(keys, pileKey(pile))
	}
	return keys
}
