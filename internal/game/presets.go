package game

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/brandosha/socialdistanceroom/internal/deck"
	"github.com/brandosha/socialdistanceroom/internal/randutil"
)

// Preset is a named game configuration: a deck, an optional player-count
// check, and a setup routine. Setup runs through the same executor players
// use, with the reserved preset actor, so it replays identically on every
// peer.
type Preset struct {
	// DisplayName completes the sentence "X started ...".
	DisplayName string

	NewDeck func() *deck.Deck

	// Verify runs before any session state exists.
	Verify func(players []string) error

	// Start performs setup and returns transcript announcements.
	Start func(s *Session, seed uint32) ([]string, error)
}

// Presets holds every known game preset. scum and president are the same
// game under two names.
var Presets = map[string]*Preset{}

func init() {
	Presets["standard"] = &Preset{
		DisplayName: "a standard game",
		NewDeck:     standardDeck,
		Start: func(s *Session, seed uint32) ([]string, error) {
			s.shared["draw"].SetCards(s.deck.FullSet())
			if _, err := s.Execute("shuffle", nil, seed, PresetActor); err != nil {
				return nil, err
			}
			return nil, nil
		},
	}

	Presets["uno"] = &Preset{
		DisplayName: "an uno game",
		NewDeck:     unoDeck,
		Verify: func(players []string) error {
			if len(players) < 2 {
				return commandErrorf(KindInvalidValue, "Can't play Uno with only 1 player")
			}
			return nil
		},
		Start: startUno,
	}

	scum := &Preset{
		DisplayName: "a game of scum",
		NewDeck:     scumDeck,
		Verify: func(players []string) error {
			if len(players) < 3 {
				return commandErrorf(KindInvalidValue, "Can't play scum with only %s", playerCount(len(players)))
			}
			return nil
		},
		Start: func(s *Session, seed uint32) ([]string, error) {
			copies := (len(s.roster.Players()) + 4) / 5
			for i := 0; i < copies; i++ {
				s.shared["draw"].PushBottom(s.deck.FullSet()...)
			}
			if _, err := s.Execute("shuffle", nil, seed, PresetActor); err != nil {
				return nil, err
			}
			if _, err := s.Execute("deal", nil, seed, PresetActor); err != nil {
				return nil, err
			}
			return nil, nil
		},
	}
	Presets["scum"] = scum
	Presets["president"] = scum

	Presets["mafia"] = &Preset{
		DisplayName: "a game of mafia",
		NewDeck:     mafiaDeck,
		Verify: func(players []string) error {
			if len(players) < 7 {
				return commandErrorf(KindInvalidValue, "Can't play mafia with only %s", playerCount(len(players)))
			}
			return nil
		},
		Start: startMafia,
	}
}

// PresetNames returns the registered preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// startUno shuffles, deals seven cards each, and flips a starting card,
// reshuffling any action or wild card back in until a plain numbered card
// shows.
func startUno(s *Session, seed uint32) ([]string, error) {
	players := s.roster.Players()
	copies := (len(players) + 9) / 10
	for i := 0; i < copies; i++ {
		s.shared["draw"].PushBottom(s.deck.FullSet()...)
	}

	if _, err := s.Execute("shuffle", nil, seed, PresetActor); err != nil {
		return nil, err
	}
	if _, err := s.Execute("deal", []string{"7"}, seed, PresetActor); err != nil {
		return nil, err
	}
	if _, err := s.Execute("move", []string{"top"}, seed, PresetActor); err != nil {
		return nil, err
	}

	// Uno numbers 0-9 occupy label indices 0-9; anything above is an
	// action or wild card and may not start the game.
	rng := randutil.New(seed)
	discard := s.shared["discard"]
	for discard.Cards()[0][1] > 9 {
		derived := rng.Uint32()
		if _, err := s.Execute("move", []string{"top", "from", "discard", "to", "random", "draw"}, derived, PresetActor); err != nil {
			return nil, err
		}
		if _, err := s.Execute("move", []string{"top"}, derived, PresetActor); err != nil {
			return nil, err
		}
	}

	starting := discard.Cards()[0]
	return []string{"Starting card:\n" + s.deck.CardText(starting)}, nil
}

// startMafia builds the role deck for the table: half Mafia, one Doctor,
// one Detective, Villagers for the rest, with no card dealt for the
// moderator. Roles stay in the draw pile for manual distribution.
func startMafia(s *Session, seed uint32) ([]string, error) {
	players := s.roster.Players()
	mafiaCount := len(players) / 2
	villagerCount := len(players) - mafiaCount - 3

	cards := make([]deck.Card, 0, len(players)-1)
	for i := 0; i < villagerCount; i++ {
		cards = append(cards, deck.NewCard(0))
	}
	cards = append(cards, deck.NewCard(1), deck.NewCard(2))
	for i := 0; i < mafiaCount; i++ {
		cards = append(cards, deck.NewCard(3))
	}

	s.shared["draw"].SetCards(cards)
	if _, err := s.Execute("shuffle", nil, seed, PresetActor); err != nil {
		return nil, err
	}
	return nil, nil
}

func playerCount(n int) string {
	if n == 1 {
		return "1 player"
	}
	return fmt.Sprintf("%d players", n)
}

func standardDeck() *deck.Deck {
	values := make([]string, 0, 14)
	for i := 2; i <= 10; i++ {
		values = append(values, strconv.Itoa(i))
	}
	values = append(values, "Jack", "Queen", "King", "Ace", "joke")
	suits := []string{"Diamonds", "Clubs", "Hearts", "Spades", "joke"}

	fullSet := make([]deck.Card, 0, 54)
	for value := 0; value <= 12; value++ {
		for suit := 0; suit <= 3; suit++ {
			fullSet = append(fullSet, deck.NewCard(value, suit))
		}
	}
	fullSet = append(fullSet, deck.NewCard(13, 4), deck.NewCard(13, 4))

	return deck.MustNew(
		[]deck.Key{
			{Names: []string{"value", "rank", "number"}},
			{Names: []string{"suit"}},
		},
		map[string][]string{"value": values, "suit": suits},
		func(labels []string) string {
			if labels[0] == "joke" || labels[1] == "joke" {
				return "Joker"
			}
			return labels[0] + " of " + labels[1]
		},
		fullSet,
	)
}

func unoDeck() *deck.Deck {
	colors := []string{"Red", "Yellow", "Green", "Blue", "Wild"}
	numbers := make([]string, 0, 15)
	for i := 0; i <= 9; i++ {
		numbers = append(numbers, strconv.Itoa(i))
	}
	numbers = append(numbers, "Skip", "Reverse", "+2", "Wild", "+4")

	// One zero per color, two of each other number and action card, four
	// Wilds and four +4s.
	fullSet := make([]deck.Card, 0, 108)
	for color := 0; color <= 3; color++ {
		for number := 0; number <= 12; number++ {
			fullSet = append(fullSet, deck.NewCard(color, number))
		}
	}
	for color := 0; color <= 3; color++ {
		for number := 1; number <= 12; number++ {
			fullSet = append(fullSet, deck.NewCard(color, number))
		}
	}
	for i := 0; i < 4; i++ {
		fullSet = append(fullSet, deck.NewCard(4, 13))
	}
	for i := 0; i < 4; i++ {
		fullSet = append(fullSet, deck.NewCard(4, 14))
	}

	return deck.MustNew(
		[]deck.Key{
			{Names: []string{"color"}},
			{Names: []string{"number"}},
		},
		map[string][]string{"color": colors, "number": numbers},
		func(labels []string) string {
			if labels[1] == "Wild" {
				return "Wild"
			}
			return labels[0] + " " + labels[1]
		},
		fullSet,
	)
}

func scumDeck() *deck.Deck {
	values := make([]string, 0, 13)
	for i := 3; i <= 10; i++ {
		values = append(values, strconv.Itoa(i))
	}
	values = append(values, "Jack", "Queen", "King", "Ace", "2")
	suits := []string{"Diamonds", "Clubs", "Hearts", "Spades"}

	fullSet := make([]deck.Card, 0, 52)
	for value := 0; value <= 12; value++ {
		for suit := 0; suit <= 3; suit++ {
			fullSet = append(fullSet, deck.NewCard(value, suit))
		}
	}

	return deck.MustNew(
		[]deck.Key{
			{Names: []string{"value", "rank", "number"}},
			{Names: []string{"suit"}},
		},
		map[string][]string{"value": values, "suit": suits},
		func(labels []string) string {
			return labels[0] + " of " + labels[1]
		},
		fullSet,
	)
}

func mafiaDeck() *deck.Deck {
	return deck.MustNew(
		[]deck.Key{{Names: []string{"name"}}},
		map[string][]string{"name": {"Villager", "Doctor", "Detective", "Mafia"}},
		func(labels []string) string { return labels[0] },
		[]deck.Card{deck.NewCard(0), deck.NewCard(1), deck.NewCard(2), deck.NewCard(3)},
	)
}
