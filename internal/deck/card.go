package deck

import "slices"

// Card is an ordered tuple of label indices, one per sortable key of the
// deck it belongs to. Cards are treated as immutable values; anything that
// needs a mutable view takes a copy first.
type Card []int

// NewCard creates a card from the given key indices.
func NewCard(indices ...int) Card {
	return Card(indices)
}

// Clone returns an independent copy of the card.
func (c Card) Clone() Card {
	return slices.Clone(c)
}

// Equal reports whether two cards have identical indices.
func (c Card) Equal(other Card) bool {
	return slices.Equal(c, other)
}
