package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeck(t *testing.T) *Deck {
	t.Helper()

	d, err := New(
		[]Key{
			{Names: []string{"value", "rank"}},
			{Names: []string{"suit"}},
		},
		map[string][]string{
			"value": {"2", "3", "Ace"},
			"suit":  {"Hearts", "Spades"},
		},
		func(labels []string) string { return labels[0] + " of " + labels[1] },
		[]Card{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}},
	)
	require.NoError(t, err)
	return d
}

func TestNewRejectsOutOfBoundsCard(t *testing.T) {
	t.Parallel()

	_, err := New(
		[]Key{{Names: []string{"value"}}},
		map[string][]string{"value": {"a", "b"}},
		func(labels []string) string { return labels[0] },
		[]Card{{2}},
	)
	require.Error(t, err)
}

func TestNewRejectsMissingLabels(t *testing.T) {
	t.Parallel()

	_, err := New(
		[]Key{{Names: []string{"value"}}, {Names: []string{"suit"}}},
		map[string][]string{"value": {"a"}},
		func(labels []string) string { return labels[0] },
		nil,
	)
	require.Error(t, err)
}

func TestValid(t *testing.T) {
	t.Parallel()
	d := testDeck(t)

	assert.True(t, d.Valid(Card{0, 0}))
	assert.True(t, d.Valid(Card{2, 1}))
	assert.False(t, d.Valid(Card{3, 0}), "value index out of range")
	assert.False(t, d.Valid(Card{0, 2}), "suit index out of range")
	assert.False(t, d.Valid(Card{0}), "wrong arity")
	assert.False(t, d.Valid(Card{-1, 0}))
}

func TestCardText(t *testing.T) {
	t.Parallel()
	d := testDeck(t)

	assert.Equal(t, "Ace of Hearts", d.CardText(Card{2, 0}))
	assert.Equal(t, "2 of Spades", d.CardText(Card{0, 1}))
	assert.Equal(t, "invalid card", d.CardText(Card{9, 9}))
}

func TestFullSetIsACopy(t *testing.T) {
	t.Parallel()
	d := testDeck(t)

	set := d.FullSet()
	require.Len(t, set, 6)
	set[0][0] = 99

	again := d.FullSet()
	assert.Equal(t, Card{0, 0}, again[0], "mutating a returned set must not corrupt the deck")
}

func TestKeyIndexAliases(t *testing.T) {
	t.Parallel()
	d := testDeck(t)

	assert.Equal(t, 0, d.KeyIndex("value"))
	assert.Equal(t, 0, d.KeyIndex("rank"))
	assert.Equal(t, 1, d.KeyIndex("suit"))
	assert.Equal(t, -1, d.KeyIndex("color"))
}

func TestDefaultSortKey(t *testing.T) {
	t.Parallel()
	d := testDeck(t)

	assert.Equal(t, "value", d.DefaultSortKey())
}

func TestCardEqualityAndClone(t *testing.T) {
	t.Parallel()

	a := NewCard(1, 2)
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b[0] = 5
	assert.False(t, a.Equal(b))
	assert.Equal(t, 1, a[0])
}
