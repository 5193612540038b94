// Package deck defines the card model for a game: what dimensions a card
// has, what the values of each dimension are called, how a card is rendered
// as text, and the enumerated full set making up one copy of the deck.
package deck

import (
	"fmt"
	"slices"
)

// Key is one sortable dimension of a card. A key may be known under several
// alias names (for example value/rank/number all naming the same dimension);
// the first name is canonical and indexes the label table.
type Key struct {
	Names []string
}

// Canonical returns the name used to look up the key's labels.
func (k Key) Canonical() string {
	return k.Names[0]
}

// Matches reports whether name is one of the key's aliases.
func (k Key) Matches(name string) bool {
	return slices.Contains(k.Names, name)
}

// FormatFunc renders a card given the resolved label for each key, in key
// order.
type FormatFunc func(labels []string) string

// Deck is immutable after construction and owned by a game preset.
type Deck struct {
	keys    []Key
	labels  map[string][]string
	format  FormatFunc
	fullSet []Card
}

// New builds a deck and validates that every card of the full set is within
// bounds of the key definitions. A failure here is a preset definition bug,
// not a user error.
func New(keys []Key, labels map[string][]string, format FormatFunc, fullSet []Card) (*Deck, error) {
	for _, key := range keys {
		if len(key.Names) == 0 {
			return nil, fmt.Errorf("deck: key with no names")
		}
		if _, ok := labels[key.Canonical()]; !ok {
			return nil, fmt.Errorf("deck: no labels for key %q", key.Canonical())
		}
	}

	d := &Deck{
		keys:    keys,
		labels:  labels,
		format:  format,
		fullSet: fullSet,
	}
	for _, card := range fullSet {
		if !d.Valid(card) {
			return nil, fmt.Errorf("deck: full set contains invalid card %v", card)
		}
	}
	return d, nil
}

// MustNew is New for statically defined presets.
func MustNew(keys []Key, labels map[string][]string, format FormatFunc, fullSet []Card) *Deck {
	d, err := New(keys, labels, format, fullSet)
	if err != nil {
		panic(err)
	}
	return d
}

// Valid reports whether the card fits this deck's key definitions.
func (d *Deck) Valid(card Card) bool {
	if len(card) != len(d.keys) {
		return false
	}
	for i, value := range card {
		if value < 0 || value >= len(d.labels[d.keys[i].Canonical()]) {
			return false
		}
	}
	return true
}

// CardText renders a card for display.
func (d *Deck) CardText(card Card) string {
	if !d.Valid(card) {
		return "invalid card"
	}

	labels := make([]string, len(card))
	for i, value := range card {
		labels[i] = d.labels[d.keys[i].Canonical()][value]
	}
	return d.format(labels)
}

// FullSet returns a fresh copy of one complete deck.
func (d *Deck) FullSet() []Card {
	cards := make([]Card, len(d.fullSet))
	for i, card := range d.fullSet {
		cards[i] = card.Clone()
	}
	return cards
}

// Size returns the number of cards in one copy of the deck.
func (d *Deck) Size() int {
	return len(d.fullSet)
}

// KeyIndex resolves a sort-by name, alias-aware. Returns -1 when no key
// matches.
func (d *Deck) KeyIndex(name string) int {
	for i, key := range d.keys {
		if key.Matches(name) {
			return i
		}
	}
	return -1
}

// KeyCount returns the number of sortable dimensions.
func (d *Deck) KeyCount() int {
	return len(d.keys)
}

// DefaultSortKey returns the canonical name of the first key, used when a
// sort command names no key.
func (d *Deck) DefaultSortKey() string {
	return d.keys[0].Canonical()
}

// Labels returns the ordered label list for the key at index i.
func (d *Deck) Labels(i int) []string {
	return d.labels[d.keys[i].Canonical()]
}
