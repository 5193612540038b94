package game

import (
	"slices"

	"github.com/brandosha/socialdistanceroom/internal/deck"
	"github.com/brandosha/socialdistanceroom/internal/randutil"
)

// SharedOwner is the owner tag of piles that belong to the table rather than
// a player.
const SharedOwner = "shared"

// Position names where in a pile cards are taken from or placed.
type Position int

const (
	Top Position = iota
	Bottom
	Random
)

func (p Position) String() string {
	switch p {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// CardsRefKind discriminates the three shapes a cards reference can take.
type CardsRefKind int

const (
	// RefAll selects the whole pile.
	RefAll CardsRefKind = iota

	// RefIndices selects explicit 1-based positions.
	RefIndices

	// RefPosition selects an amount of cards from the top, bottom, or at
	// random.
	RefPosition
)

// CardsRef is a resolved-but-not-yet-applied selection of cards in a pile.
type CardsRef struct {
	Kind     CardsRefKind
	Indices  []int // 1-based, deduplicated, in the order given
	Position Position
	Amount   int // -1 means "all" in a positional reference
}

// AllCards selects every card of a pile.
func AllCards() CardsRef {
	return CardsRef{Kind: RefAll}
}

// IndexedCard pairs a card with its 1-based position at resolution time.
type IndexedCard struct {
	Card  deck.Card
	Index int
}

// Pile is an ordered sequence of cards. Index 0 is the top. The owner tag
// never changes after creation.
type Pile struct {
	name  string
	owner string
	cards []deck.Card
}

// NewPile creates an empty pile. An empty owner means shared.
func NewPile(name, owner string) *Pile {
	if owner == "" {
		owner = SharedOwner
	}
	return &Pile{name: name, owner: owner}
}

func (p *Pile) Name() string  { return p.name }
func (p *Pile) Owner() string { return p.owner }
func (p *Pile) Len() int      { return len(p.cards) }

// Shared reports whether the pile belongs to the table.
func (p *Pile) Shared() bool {
	return p.owner == SharedOwner
}

// IsHand reports whether the pile is a player's hand.
func (p *Pile) IsHand() bool {
	return !p.Shared()
}

// Cards returns a snapshot of the pile's contents, top first.
func (p *Pile) Cards() []deck.Card {
	out := make([]deck.Card, len(p.cards))
	for i, c := range p.cards {
		out[i] = c.Clone()
	}
	return out
}

// PushTop prepends cards, keeping their relative order, so cards[0] becomes
// the new top.
func (p *Pile) PushTop(cards ...deck.Card) {
	p.cards = append(slices.Clone(cards), p.cards...)
}

// PushBottom appends cards, keeping their relative order.
func (p *Pile) PushBottom(cards ...deck.Card) {
	p.cards = append(p.cards, cards...)
}

// InsertAt places one card before the 0-based position i.
func (p *Pile) InsertAt(i int, card deck.Card) {
	p.cards = slices.Insert(p.cards, i, card)
}

// TakeTop removes and returns the top card.
func (p *Pile) TakeTop() (deck.Card, bool) {
	if len(p.cards) == 0 {
		return nil, false
	}
	card := p.cards[0]
	p.cards = p.cards[1:]
	return card, true
}

// SetCards replaces the pile's contents. Used by preset setup only.
func (p *Pile) SetCards(cards []deck.Card) {
	p.cards = slices.Clone(cards)
}

// GetCards resolves a reference into concrete cards without mutating the
// pile. Explicit indices outside the pile are an error, not silently
// dropped. Random selection draws distinct positions without replacement;
// the result order follows the draw order.
func (p *Pile) GetCards(ref CardsRef, rng *randutil.Rand) ([]IndexedCard, error) {
	switch ref.Kind {
	case RefAll:
		out := make([]IndexedCard, len(p.cards))
		for i, card := range p.cards {
			out[i] = IndexedCard{Card: card, Index: i + 1}
		}
		return out, nil

	case RefIndices:
		out := make([]IndexedCard, 0, len(ref.Indices))
		for _, index := range ref.Indices {
			if index < 1 {
				return nil, commandErrorf(KindInvalidIndex, "%d is not a valid card index", index)
			}
			if index > len(p.cards) {
				return nil, commandErrorf(KindInvalidIndex, "There is no card at index %d", index)
			}
			out = append(out, IndexedCard{Card: p.cards[index-1], Index: index})
		}
		return out, nil

	case RefPosition:
		amount := ref.Amount
		if amount < 0 || amount > len(p.cards) {
			amount = len(p.cards)
		}

		var indices []int
		switch ref.Position {
		case Top:
			for i := 1; i <= amount; i++ {
				indices = append(indices, i)
			}
		case Bottom:
			for i := len(p.cards) - amount + 1; i <= len(p.cards); i++ {
				indices = append(indices, i)
			}
		case Random:
			pool := make([]int, len(p.cards))
			for i := range pool {
				pool[i] = i + 1
			}
			for i := 0; i < amount; i++ {
				j := rng.Intn(len(pool))
				indices = append(indices, pool[j])
				pool = slices.Delete(pool, j, j+1)
			}
		}

		out := make([]IndexedCard, len(indices))
		for i, index := range indices {
			out[i] = IndexedCard{Card: p.cards[index-1], Index: index}
		}
		return out, nil
	}

	return nil, commandErrorf(KindInvalidValue, "Unrecognized cards reference")
}

// RemoveCards resolves a reference and removes the selected positions,
// highest index first so earlier removals don't shift later ones. The
// returned cards keep the original resolution order. Relative order of the
// cards left behind is unchanged.
func (p *Pile) RemoveCards(ref CardsRef, rng *randutil.Rand) ([]deck.Card, error) {
	resolved, err := p.GetCards(ref, rng)
	if err != nil {
		return nil, err
	}

	byIndex := slices.Clone(resolved)
	slices.SortFunc(byIndex, func(a, b IndexedCard) int {
		return b.Index - a.Index
	})
	for _, item := range byIndex {
		p.cards = slices.Delete(p.cards, item.Index-1, item.Index)
	}

	removed := make([]deck.Card, len(resolved))
	for i, item := range resolved {
		removed[i] = item.Card
	}
	return removed, nil
}

// Shuffle reorders the pile by repeatedly drawing a uniformly random
// remaining position, so the resulting permutation is a pure function of
// the seed stream.
func (p *Pile) Shuffle(rng *randutil.Rand) {
	remaining := make([]int, len(p.cards))
	for i := range remaining {
		remaining[i] = i
	}

	shuffled := make([]deck.Card, 0, len(p.cards))
	for range p.cards {
		j := rng.Intn(len(remaining))
		shuffled = append(shuffled, p.cards[remaining[j]])
		remaining = slices.Delete(remaining, j, j+1)
	}
	p.cards = shuffled
}

// Sort stably reorders the pile by the named key, alias-aware. Cards compare
// by the chosen key first, then by the remaining keys in their declared
// order as tie-breakers.
func (p *Pile) Sort(d *deck.Deck, sortBy string) error {
	primary := d.KeyIndex(sortBy)
	if primary == -1 {
		return commandErrorf(KindInvalidValue, "Unable to sort by %q", sortBy)
	}

	order := []int{primary}
	for i := 0; i < d.KeyCount(); i++ {
		if i != primary {
			order = append(order, i)
		}
	}

	slices.SortStableFunc(p.cards, func(a, b deck.Card) int {
		for _, key := range order {
			if diff := a[key] - b[key]; diff != 0 {
				return diff
			}
		}
		return 0
	})
	return nil
}
