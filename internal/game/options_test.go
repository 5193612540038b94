package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestSession(t *testing.T, players ...string) *Session {
	t.Helper()
	if len(players) == 0 {
		players = []string{"Alice", "Bob", "Carol"}
	}
	s, _, err := NewSession("standard", 1, StaticRoster(players), players[0], discardLogger())
	require.NoError(t, err)
	return s
}

func requireKind(t *testing.T, err error, kind ErrorKind) *CommandError {
	t.Helper()
	require.Error(t, err)
	cmdErr, ok := err.(*CommandError)
	require.True(t, ok, "expected *CommandError, got %T: %v", err, err)
	require.Equal(t, kind, cmdErr.Kind, "unexpected error kind for %q", cmdErr.Message)
	return cmdErr
}

func TestCompileFormatVariadicMustBeLast(t *testing.T) {
	t.Parallel()

	_, err := CompileFormat([]string{"cards", "pile"})
	require.Error(t, err, "variadic slot followed by another slot in the same group")

	_, err = CompileFormat([]string{"cards", `"from"`, "pile"})
	require.NoError(t, err, "separator starts a new group")
}

func TestCompileFormatUnknownType(t *testing.T) {
	t.Parallel()

	_, err := CompileFormat([]string{"frobnicate"})
	require.Error(t, err)
}

func TestParseDefaultsWhenNoInput(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	values, err := s.parseOptions(mustFormat("pile=draw"), nil, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "draw", values.Pile(0).Name())
}

func TestParseMissingRequired(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	_, err := s.parseOptions(mustFormat("amount"), nil, "alice", false)
	requireKind(t, err, KindMissingRequired)
}

func TestParseAmount(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("amount")

	values, err := s.parseOptions(format, []string{"all"}, "alice", false)
	require.NoError(t, err)
	assert.True(t, values.Amount(0).All)

	values, err = s.parseOptions(format, []string{"3"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, AmountValue{N: 3}, values.Amount(0))

	for _, bad := range []string{"0", "-1", "3.5", "03", "+3", "x"} {
		_, err := s.parseOptions(format, []string{bad}, "alice", false)
		require.Error(t, err, "amount %q should be rejected", bad)
	}
}

func TestParseNumberAllowsNegatives(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("number")

	values, err := s.parseOptions(format, []string{"-4"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, -4, values.Number(0))

	_, err = s.parseOptions(format, []string{"04"}, "alice", false)
	require.Error(t, err, "non-canonical integers are ambiguous across peers")
}

func TestParsePosition(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("position")

	for token, want := range map[string]Position{"top": Top, "bottom": Bottom, "random": Random} {
		values, err := s.parseOptions(format, []string{token}, "alice", false)
		require.NoError(t, err)
		assert.Equal(t, want, values.Position(0))
	}

	_, err := s.parseOptions(format, []string{"middle"}, "alice", false)
	requireKind(t, err, KindMissingRequired) // invalid token, no default to fall back to
}

func TestParsePlayer(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("player")

	values, err := s.parseOptions(format, []string{"me"}, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, "bob", values.Player(0))

	values, err = s.parseOptions(format, []string{"carol"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "carol", values.Player(0))

	_, err = s.parseOptions(format, []string{"mallory"}, "alice", false)
	requireKind(t, err, KindMissingRequired)
}

func TestParsePlayers(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("players")

	values, err := s.parseOptions(format, []string{"everyone"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, values.Players(0))

	values, err = s.parseOptions(format, []string{"others"}, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, values.Players(0))

	values, err = s.parseOptions(format, []string{"bob", "me"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, values.Players(0))

	// "others" from an actor outside the roster is just an unknown name.
	_, err = s.parseOptions(format, []string{"others"}, "preset", false)
	require.Error(t, err)
}

func TestParsePile(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("pile")

	values, err := s.parseOptions(format, []string{"hand"}, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, "bob", values.Pile(0).Owner())

	values, err = s.parseOptions(format, []string{"alice"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", values.Pile(0).Owner())

	_, err = s.parseOptions(format, []string{"bob"}, "alice", false)
	requireKind(t, err, KindPermissionDenied)

	values, err = s.parseOptions(format, []string{"bob"}, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, "bob", values.Pile(0).Owner())

	values, err = s.parseOptions(format, []string{"discard"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "discard", values.Pile(0).Name())

	_, err = s.parseOptions(format, []string{"nonsense"}, "alice", false)
	requireKind(t, err, KindAmbiguousReference)
}

func TestHardErrorsNeverFallBackToDefaults(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	// The pile has a default, but an unknown pile name is a definite wrong
	// reference and must not be papered over.
	_, err := s.parseOptions(mustFormat("pile=draw"), []string{"nonsense"}, "alice", false)
	requireKind(t, err, KindAmbiguousReference)

	_, err = s.parseOptions(mustFormat("pile=draw"), []string{"bob"}, "alice", false)
	requireKind(t, err, KindPermissionDenied)
}

func TestParseCards(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("cards")

	values, err := s.parseOptions(format, []string{"all"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, RefAll, values.Cards(0).Kind)

	values, err = s.parseOptions(format, []string{"3", "1", "3", "2"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, RefIndices, values.Cards(0).Kind)
	assert.Equal(t, []int{3, 1, 2}, values.Cards(0).Indices, "duplicates collapse, first occurrence order kept")

	values, err = s.parseOptions(format, []string{"top"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, CardsRef{Kind: RefPosition, Position: Top, Amount: 1}, values.Cards(0))

	values, err = s.parseOptions(format, []string{"bottom", "3"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, CardsRef{Kind: RefPosition, Position: Bottom, Amount: 3}, values.Cards(0))

	values, err = s.parseOptions(format, []string{"random", "all"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, -1, values.Cards(0).Amount, "positional all selects the whole pile")

	_, err = s.parseOptions(format, []string{"sideways"}, "alice", false)
	requireKind(t, err, KindInvalidValue)

	_, err = s.parseOptions(format, []string{"top", "many"}, "alice", false)
	requireKind(t, err, KindInvalidValue)

	_, err = s.parseOptions(format, []string{"1", "two", "3"}, "alice", false)
	requireKind(t, err, KindInvalidValue)
}

func TestParseGroupsBySeparators(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("cards", `"from"`, "pile=draw", `"to"`, "position=top", "pile=discard")

	values, err := s.parseOptions(format,
		[]string{"1", "2", "from", "draw", "to", "bottom", "discard"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, values.Cards(0).Indices)
	assert.Equal(t, "draw", values.Pile(1).Name())
	assert.Equal(t, Bottom, values.Position(2))
	assert.Equal(t, "discard", values.Pile(3).Name())
}

func TestParseMissingSeparatorUsesDefaults(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	format := mustFormat("amount=all", `"from"`, "pile=draw", `"to"`, "players=everyone")

	values, err := s.parseOptions(format, []string{"2"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, AmountValue{N: 2}, values.Amount(0))
	assert.Equal(t, "draw", values.Pile(1).Name())
	assert.Equal(t, []string{"alice", "bob", "carol"}, values.Players(2))
}

func TestParseSoftFailureLeavesTokenForNextSlot(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)
	// "bottom" is not an amount; the amount slot falls back to its default
	// and the token is consumed by the position slot instead.
	format := mustFormat("amount=1", `"from"`, "position=top", "pile=draw")

	values, err := s.parseOptions(format, []string{"bottom"}, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, AmountValue{N: 1}, values.Amount(0))
	assert.Equal(t, Bottom, values.Position(1))
	assert.Equal(t, "draw", values.Pile(2).Name())
}

func TestParseUnexpectedOption(t *testing.T) {
	t.Parallel()
	s := newTestSession(t)

	_, err := s.parseOptions(mustFormat("pile=draw"), []string{"draw", "extra"}, "alice", false)
	cmdErr := requireKind(t, err, KindInvalidValue)
	assert.Contains(t, cmdErr.Message, "Unexpected option")
}

func TestSplitGroupsQuirks(t *testing.T) {
	t.Parallel()
	format := mustFormat("cards", `"from"`, "pile", `"to"`, "players")

	// The later separator is located first over the whole token list; the
	// exact procedure is load-bearing for cross-peer replay.
	groups := format.splitGroups([]string{"1", "from", "draw", "to", "bob"})
	assert.Equal(t, [][]string{{"1"}, {"draw"}, {"bob"}}, groups)

	groups = format.splitGroups([]string{"1", "to", "bob"})
	assert.Equal(t, [][]string{{"1"}, {}, {"bob"}}, groups)

	groups = format.splitGroups(nil)
	require.Len(t, groups, 3)
	for _, group := range groups {
		assert.Empty(t, group)
	}
}
