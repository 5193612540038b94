package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(MessageTypeAction, Everyone, Action{
		Action:  "deal",
		Options: []string{"2", "from", "draw"},
		Seed:    0xdeadbeef,
	})
	require.NoError(t, err)
	require.NotEmpty(t, env.ID)
	assert.True(t, env.Broadcast())

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, MessageTypeAction, decoded.Type)

	action, err := DecodePayload[Action](&decoded)
	require.NoError(t, err)
	assert.Equal(t, "deal", action.Action)
	assert.Equal(t, []string{"2", "from", "draw"}, action.Options)
	assert.Equal(t, uint32(0xdeadbeef), action.Seed)
}

func TestOptionTokensSurviveVerbatim(t *testing.T) {
	t.Parallel()

	// Replay depends on the exact tokens, including ones that would not
	// parse; the protocol must not normalize them.
	tokens := []string{"top", "", "03", "All"}
	env, err := NewEnvelope(MessageTypeAction, []string{"bob"}, Action{Action: "take", Options: tokens, Seed: 1})
	require.NoError(t, err)
	assert.False(t, env.Broadcast())

	data, err := json.Marshal(env)
	require.NoError(t, err)
	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	action, err := DecodePayload[Action](&decoded)
	require.NoError(t, err)
	assert.Equal(t, tokens, action.Options)
}

func TestEnvelopeIDsAreUnique(t *testing.T) {
	t.Parallel()

	a, err := NewEnvelope(MessageTypeChat, Everyone, Chat{Text: "hi"})
	require.NoError(t, err)
	b, err := NewEnvelope(MessageTypeChat, Everyone, Chat{Text: "hi"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDecodeWrongPayload(t *testing.T) {
	t.Parallel()

	env := &Envelope{Type: MessageTypePeer, Payload: json.RawMessage(`"not an object"`)}
	_, err := DecodePayload[Peer](env)
	require.Error(t, err)
}
