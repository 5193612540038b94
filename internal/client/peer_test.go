package client

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandosha/socialdistanceroom/internal/protocol"
)

// fakeTransport records sends and lets tests inject envelopes.
type fakeTransport struct {
	sent    []*protocol.Envelope
	receive chan *protocol.Envelope
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{receive: make(chan *protocol.Envelope, 64)}
}

func (f *fakeTransport) Send(env *protocol.Envelope) error {
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) Receive() <-chan *protocol.Envelope { return f.receive }
func (f *fakeTransport) Close() error                       { return nil }

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func fixedSeed(seed uint32) func() uint32 {
	return func() uint32 { return seed }
}

func newTestPeer(t *testing.T, name string, seed uint32) (*Peer, *fakeTransport) {
	t.Helper()
	transport := newFakeTransport()
	p := NewPeer(name, transport, testLogger(), WithSeedFunc(fixedSeed(seed)))
	return p, transport
}

// drainEvents collects everything currently queued.
func drainEvents(p *Peer) []Event {
	var events []Event
	for {
		select {
		case e := <-p.events:
			events = append(events, e)
		default:
			return events
		}
	}
}

// deliver stamps the sender and hands the envelope to the peer, the way the
// relay would.
func deliver(p *Peer, from string, env *protocol.Envelope) {
	copied := *env
	copied.From = from
	p.handleEnvelope(&copied)
}

func TestChatRoundTrip(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 1)

	alice.Input("hello room")

	require.Len(t, transport.sent, 1)
	assert.Equal(t, protocol.MessageTypeChat, transport.sent[0].Type)
	assert.True(t, transport.sent[0].Broadcast())

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, EventChat, events[0].Kind)
	assert.Equal(t, "You: hello room", events[0].Text)

	bob, _ := newTestPeer(t, "Bob", 1)
	deliver(bob, "Alice", transport.sent[0])
	events = drainEvents(bob)
	require.Len(t, events, 1)
	assert.Equal(t, "Alice: hello room", events[0].Text)
}

func TestCommandWithoutGame(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 1)

	alice.Input(".take")

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.Contains(t, events[0].Text, "No game is in progress")
	assert.Empty(t, transport.sent, "errors stay local")
}

func TestStartGame(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 7)

	alice.Input(".start")

	require.True(t, alice.InGame())
	events := drainEvents(alice)
	require.NotEmpty(t, events)
	assert.Equal(t, "You started a standard game", events[0].Text)

	require.Len(t, transport.sent, 1)
	action, err := protocol.DecodePayload[protocol.Action](transport.sent[0])
	require.NoError(t, err)
	assert.Equal(t, "start", action.Action)
	assert.Empty(t, action.Options)
	assert.Equal(t, uint32(7), action.Seed)
}

func TestStartUnoAloneFails(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 7)

	alice.Input(".start uno")

	assert.False(t, alice.InGame())
	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.Empty(t, transport.sent, "a game that failed to start is not announced")
}

func TestCommandInputIsLowercasedAndTokenized(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 7)

	alice.Input(".start")
	drainEvents(alice)
	alice.Input(".TAKE   2  FROM Bottom DRAW")

	events := drainEvents(alice)
	require.NotEmpty(t, events)
	assert.Equal(t, EventGame, events[0].Kind)
	assert.Contains(t, events[0].Text, "You took 2 cards from the bottom of the draw pile")

	require.Len(t, transport.sent, 2)
	action, err := protocol.DecodePayload[protocol.Action](transport.sent[1])
	require.NoError(t, err)
	assert.Equal(t, "take", action.Action)
	assert.Equal(t, []string{"2", "from", "bottom", "draw"}, action.Options)
}

func TestLocalOnlyOutcomesAreNotBroadcast(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 7)

	alice.Input(".start")
	drainEvents(alice)
	alice.Input(".count")

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Text, "in your hand")
	assert.Len(t, transport.sent, 1, "only the start went out")
}

func TestCommandErrorsStayLocal(t *testing.T) {
	t.Parallel()
	alice, transport := newTestPeer(t, "Alice", 7)

	alice.Input(".start")
	drainEvents(alice)
	alice.Input(".take 1 from top hand")

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.Len(t, transport.sent, 1, "failed commands are not broadcast")
}

func TestReplayKeepsPeersInSync(t *testing.T) {
	t.Parallel()

	// Alice and Bob share a room; everything Alice broadcasts, Bob replays.
	alice, aliceOut := newTestPeer(t, "Alice", 7)
	bob, _ := newTestPeer(t, "Bob", 99)

	// Relay roster: Alice was alone, Bob joined second.
	rosterEnv, err := protocol.NewEnvelope(protocol.MessageTypeRoster, []string{"Bob"}, protocol.Roster{Players: []string{"Alice"}})
	require.NoError(t, err)
	deliver(bob, "", rosterEnv)

	peerEnv, err := protocol.NewEnvelope(protocol.MessageTypePeer, protocol.Everyone, protocol.Peer{Name: "Bob", Connected: true})
	require.NoError(t, err)
	deliver(alice, "Bob", peerEnv)
	drainEvents(alice)

	alice.Input(".start")
	alice.Input(".deal 5")
	alice.Input(".shuffle discard")
	drainEvents(alice)

	for _, env := range aliceOut.sent {
		deliver(bob, "Alice", env)
	}

	events := drainEvents(bob)
	require.NotEmpty(t, events)
	assert.Equal(t, "Alice started a standard game", events[0].Text)

	assert.Equal(t, countsOnly(alice.Piles()), countsOnly(bob.Piles()),
		"peers converge on identical pile counts")
}

// countsOnly strips card text, which only the owning peer renders.
func countsOnly(infos []PileInfo) []PileInfo {
	for i := range infos {
		infos[i].Cards = nil
	}
	return infos
}

func TestReplaySilentOutcomesSuppressed(t *testing.T) {
	t.Parallel()

	alice, aliceOut := newTestPeer(t, "Alice", 7)
	bob, _ := newTestPeer(t, "Bob", 7)
	carol, _ := newTestPeer(t, "Carol", 7)

	join := func(p *Peer, existing []string) {
		env, err := protocol.NewEnvelope(protocol.MessageTypeRoster, []string{p.Name()}, protocol.Roster{Players: existing})
		require.NoError(t, err)
		deliver(p, "", env)
	}
	announce := func(p *Peer, name string) {
		env, err := protocol.NewEnvelope(protocol.MessageTypePeer, protocol.Everyone, protocol.Peer{Name: name, Connected: true})
		require.NoError(t, err)
		deliver(p, name, env)
	}

	join(bob, []string{"Alice"})
	join(carol, []string{"Alice", "Bob"})
	announce(alice, "Bob")
	announce(alice, "Carol")
	announce(bob, "Carol")
	drainEvents(alice)
	drainEvents(bob)
	drainEvents(carol)

	alice.Input(".start")
	alice.Input(".deal 2 to bob")
	drainEvents(alice)

	for _, env := range aliceOut.sent {
		deliver(bob, "Alice", env)
		deliver(carol, "Alice", env)
	}

	bobEvents := drainEvents(bob)
	require.Len(t, bobEvents, 2, "start and the deal")
	assert.Contains(t, bobEvents[1].Text, "Alice dealt out 2 cards")

	carolEvents := drainEvents(carol)
	require.Len(t, carolEvents, 1, "carol only sees the start; the deal was not to her")
}

func TestDuplicateEnvelopesDropped(t *testing.T) {
	t.Parallel()
	alice, _ := newTestPeer(t, "Alice", 1)

	env, err := protocol.NewEnvelope(protocol.MessageTypeChat, protocol.Everyone, protocol.Chat{Text: "once"})
	require.NoError(t, err)

	deliver(alice, "Bob", env)
	deliver(alice, "Bob", env)

	events := drainEvents(alice)
	assert.Len(t, events, 1)
}

func TestPresenceUpdatesRosterAndHands(t *testing.T) {
	t.Parallel()
	alice, _ := newTestPeer(t, "Alice", 7)

	alice.Input(".start")
	drainEvents(alice)

	connect, err := protocol.NewEnvelope(protocol.MessageTypePeer, protocol.Everyone, protocol.Peer{Name: "Bob", Connected: true})
	require.NoError(t, err)
	deliver(alice, "Bob", connect)

	assert.Equal(t, []string{"Alice", "Bob"}, alice.Roster())
	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, EventSystem, events[0].Kind)
	assert.Equal(t, "Bob connected", events[0].Text)

	// Bob's hand exists now.
	found := false
	for _, info := range alice.Piles() {
		if info.Key == "bob/hand" {
			found = true
			assert.Equal(t, 0, info.Count)
			assert.Empty(t, info.Cards, "other hands never show their cards")
		}
	}
	assert.True(t, found, "a hand appears for the new peer")

	disconnect, err := protocol.NewEnvelope(protocol.MessageTypePeer, protocol.Everyone, protocol.Peer{Name: "Bob", Connected: false})
	require.NoError(t, err)
	deliver(alice, "Bob", disconnect)

	assert.Equal(t, []string{"Alice"}, alice.Roster())
	for _, info := range alice.Piles() {
		assert.NotEqual(t, "bob/hand", info.Key, "the hand leaves with the peer")
	}
}

func TestPilesShowOwnHand(t *testing.T) {
	t.Parallel()
	alice, _ := newTestPeer(t, "Alice", 7)

	alice.Input(".start")
	alice.Input(".take 2")
	drainEvents(alice)

	infos := alice.Piles()
	require.NotEmpty(t, infos)
	assert.Equal(t, "shared/draw", infos[0].Key)
	assert.Equal(t, 52, infos[0].Count)

	var hand *PileInfo
	for i := range infos {
		if infos[i].Key == "alice/hand" {
			hand = &infos[i]
		}
	}
	require.NotNil(t, hand)
	assert.Equal(t, 2, hand.Count)
	assert.Len(t, hand.Cards, 2, "the local player sees their own cards")
}

func TestShownAndModifiedKeys(t *testing.T) {
	t.Parallel()
	alice, _ := newTestPeer(t, "Alice", 7)

	alice.Input(".start")
	drainEvents(alice)
	alice.Input(".take")

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, "alice/hand", events[0].ShownPile)
	assert.ElementsMatch(t, []string{"shared/draw", "alice/hand"}, events[0].Modified)
}
