// Package game implements the deterministic card-table engine: the typed
// option grammar, the pile and deck state, the action executor, and the
// preset bootstrap. Every peer in a room runs an identical copy and replays
// every command with its original seed, so all state transitions here must
// be pure functions of (action, options, seed, actor, roster).
package game

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/brandosha/socialdistanceroom/internal/deck"
)

// PresetActor is the reserved actor name used when a preset's setup routine
// drives the executor.
const PresetActor = "preset"

// Names that can never be used for piles, matching the words the grammar
// itself claims.
var reservedNames = []string{"me", "you", "everybody", "all", "from", "to", "onto", "by"}

// Roster supplies the ordered list of currently connected display names.
type Roster interface {
	Players() []string
}

// StaticRoster is a fixed player list, used by presets' tests and the local
// single-player mode.
type StaticRoster []string

func (r StaticRoster) Players() []string {
	return r
}

// Session owns the pile set for one game and dispatches commands through
// the option parser to the matching action handler. There is at most one
// mutator (the local event-processing sequence), so Session does no
// locking.
type Session struct {
	deck        *deck.Deck
	presetName  string
	shared      map[string]*Pile
	sharedOrder []string
	hands       map[string]*Pile
	roster      Roster
	self        string
	sortFormat  *Format
	logger      *log.Logger
}

// NewSession builds the pile set for a preset and runs its setup routine.
// The preset's Verify has to pass before any state exists. self is the
// local participant's display name; it only affects narrative phrasing,
// never pile state. The returned announcements are setup output for the
// transcript.
func NewSession(presetName string, seed uint32, roster Roster, self string, logger *log.Logger) (*Session, []string, error) {
	preset, ok := Presets[presetName]
	if !ok {
		return nil, nil, commandErrorf(KindAmbiguousReference, "No such preset %q", presetName)
	}
	if preset.Verify != nil {
		if err := preset.Verify(roster.Players()); err != nil {
			return nil, nil, err
		}
	}

	d := preset.NewDeck()
	s := &Session{
		deck:       d,
		presetName: presetName,
		shared:     map[string]*Pile{},
		hands:      map[string]*Pile{},
		roster:     roster,
		self:       strings.ToLower(self),
		sortFormat: mustFormat("pile=hand", `"by"`, "word="+d.DefaultSortKey()),
		logger:     logger.WithPrefix("game"),
	}
	s.addShared(NewPile("draw", SharedOwner))
	s.addShared(NewPile("discard", SharedOwner))
	for _, player := range roster.Players() {
		name := strings.ToLower(player)
		s.hands[name] = NewPile("hand", name)
	}

	announce, err := preset.Start(s, seed)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug("session started", "preset", presetName, "players", len(roster.Players()), "seed", seed)
	return s, announce, nil
}

// ParseStart validates the options of a start command and resolves the
// preset name, defaulting to standard.
func ParseStart(options []string) (string, error) {
	if len(options) > 1 {
		return "", commandErrorf(KindInvalidValue, "Unexpected option %q", options[1])
	}
	name := "standard"
	if len(options) == 1 {
		name = options[0]
	}
	if _, ok := Presets[name]; !ok {
		return "", commandErrorf(KindAmbiguousReference, "No such preset %q", name)
	}
	return name, nil
}

// Execute runs one command against the session: parse the raw option tokens
// with the verb's format, then apply the handler. A *CommandError return
// means the user got something wrong and no state changed; any other error
// is an internal fault.
func (s *Session) Execute(verb string, options []string, seed uint32, actor string) (*Outcome, error) {
	def, ok := actionTable[verb]
	if !ok {
		return nil, commandErrorf(KindUnknownCommand, "Unknown command %q", verb)
	}
	actor = strings.ToLower(actor)

	format := def.format
	if format == nil {
		format = s.sortFormat
	}
	opts, err := s.parseOptions(format, options, actor, def.allowOtherHands)
	if err != nil {
		return nil, err
	}
	return def.run(s, opts, actor, seed)
}

// Verbs returns the action names the executor understands.
func Verbs() []string {
	verbs := make([]string, 0, len(actionTable))
	for verb := range actionTable {
		verbs = append(verbs, verb)
	}
	return verbs
}

// Deck returns the active deck.
func (s *Session) Deck() *deck.Deck {
	return s.deck
}

// PresetName returns the name the session was started with.
func (s *Session) PresetName() string {
	return s.presetName
}

// SharedPiles returns the shared pile names in creation order, for UI
// enumeration.
func (s *Session) SharedPiles() []string {
	return append([]string(nil), s.sharedOrder...)
}

// Pile returns a shared pile or a hand by owner name. Display-only callers
// should use the returned pile's Cards snapshot.
func (s *Session) Pile(name string) (*Pile, bool) {
	name = strings.ToLower(name)
	if pile, ok := s.shared[name]; ok {
		return pile, true
	}
	pile, ok := s.hands[name]
	return pile, ok
}

// Hand returns a player's hand pile.
func (s *Session) Hand(player string) (*Pile, bool) {
	pile, ok := s.hands[strings.ToLower(player)]
	return pile, ok
}

// AddPlayer creates a hand for a newly connected peer.
func (s *Session) AddPlayer(name string) {
	name = strings.ToLower(name)
	if _, ok := s.hands[name]; !ok {
		s.hands[name] = NewPile("hand", name)
	}
}

// RemovePlayer destroys the hand of a disconnected peer. The cards in it
// are gone with them.
func (s *Session) RemovePlayer(name string) {
	delete(s.hands, strings.ToLower(name))
}

// CardText renders a card using the active deck.
func (s *Session) CardText(card deck.Card) string {
	return s.deck.CardText(card)
}

// FormatCards renders revealed cards one per line, optionally prefixed with
// their pile indices.
func (s *Session) FormatCards(cards []IndexedCard, indexed bool) string {
	return s.cardLines(cards, indexed)
}

func (s *Session) addShared(pile *Pile) {
	s.shared[pile.Name()] = pile
	s.sharedOrder = append(s.sharedOrder, pile.Name())
}

func (s *Session) cardLines(cards []IndexedCard, indexed bool) string {
	lines := make([]string, len(cards))
	for i, item := range cards {
		if indexed {
			lines[i] = strconv.Itoa(item.Index) + ": " + s.deck.CardText(item.Card)
		} else {
			lines[i] = s.deck.CardText(item.Card)
		}
	}
	return strings.Join(lines, "\n")
}
