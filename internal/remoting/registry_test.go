package remoting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/movierun/movie/internal/actor"
)

type pingMsg struct {
	actor.BaseMessage
	N int `json:"n"`
}

func (pingMsg) MessageType() string { return "Ping" }

func TestMessageRegistryRoundTrip(t *testing.T) {
	t.Parallel()

	reg := NewMessageRegistry()
	RegisterMessage(reg, "ping", func(b []byte) (pingMsg, error) {
		var p pingMsg
		err := json.Unmarshal(b, &p)
		return p, err
	})

	tag, err := reg.TagFor(pingMsg{N: 3})
	require.NoError(t, err)
	require.Equal(t, "ping", tag)

	payload, err := json.Marshal(pingMsg{N: 3})
	require.NoError(t, err)

	decoded, err := reg.Decode("ping", payload)
	require.NoError(t, err)
	require.Equal(t, pingMsg{N: 3}, decoded)
}

func TestMessageRegistryUnknownTag(t *testing.T) {
	t.Parallel()

	reg := NewMessageRegistry()

	_, err := reg.Decode("missing", []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownMessageTag)

	_, err = reg.TagFor(pingMsg{})
	require.ErrorIs(t, err, ErrUnknownMessageTag)
}
