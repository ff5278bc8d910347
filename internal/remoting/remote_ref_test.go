package remoting

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/movierun/movie/internal/path"
	"github.com/movierun/movie/internal/wire"
)

type echoReply struct {
	N int `json:"n"`
}

// TestRemoteActorRefAskRoundTrip wires a RemoteActorRef to a Server that
// replies to every AskRequest by doubling the payload's "n" field,
// exercising encode -> send -> server dispatch -> AskResponse -> decode.
func TestRemoteActorRefAskRoundTrip(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln, func(ic *InboundConnection, env *wire.Envelope) {
		if env.Kind != wire.KindAskRequest {
			return
		}
		var req pingMsg
		_ = json.Unmarshal(env.Payload, &req)

		payload, _ := json.Marshal(echoReply{N: req.N * 2})
		_ = ic.conn.Send(AskResponseFor(env.CorrelationID, "pong", payload, nil))
	})
	go func() { _ = srv.Serve(context.Background()) }()
	t.Cleanup(func() { _ = srv.Stop() })

	tcpAddr := ln.Addr().(*net.TCPAddr)
	remoteAddr := path.Address{
		Protocol: path.TCPProtocol, System: "remote",
		Host: "127.0.0.1", Port: tcpAddr.Port,
	}
	localAddr := path.Address{Protocol: path.LocalProtocol, System: "local"}

	pool := NewPool(remoteAddr, localAddr, 2, func(*wire.Envelope) {})
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, pool.Connect(context.Background()))

	registry := NewMessageRegistry()
	RegisterMessage(registry, "ping", func(b []byte) (pingMsg, error) {
		var p pingMsg
		err := json.Unmarshal(b, &p)
		return p, err
	})

	targetPath := path.ActorPath{Address: remoteAddr, Segments: []string{"user", "doubler"}}

	ref := NewRemoteActorRef[pingMsg, echoReply](targetPath, pool, registry, "",
		func(b []byte) (echoReply, error) {
			var r echoReply
			err := json.Unmarshal(b, &r)
			return r, err
		})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := ref.Ask(ctx, pingMsg{N: 21}).Await(ctx).Unpack()
	require.NoError(t, err)
	require.Equal(t, 42, res.N)
}

func TestRemoteActorRefTellDelivers(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	received := make(chan *wire.Envelope, 1)
	srv := NewServer(ln, func(_ *InboundConnection, env *wire.Envelope) {
		if env.Kind == wire.KindUserMessage {
			received <- env
		}
	})
	go func() { _ = srv.Serve(context.Background()) }()
	t.Cleanup(func() { _ = srv.Stop() })

	tcpAddr := ln.Addr().(*net.TCPAddr)
	remoteAddr := path.Address{
		Protocol: path.TCPProtocol, System: "remote",
		Host: "127.0.0.1", Port: tcpAddr.Port,
	}
	localAddr := path.Address{Protocol: path.LocalProtocol, System: "local"}

	pool := NewPool(remoteAddr, localAddr, 2, func(*wire.Envelope) {})
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, pool.Connect(context.Background()))

	registry := NewMessageRegistry()
	RegisterMessage(registry, "ping", func(b []byte) (pingMsg, error) {
		var p pingMsg
		err := json.Unmarshal(b, &p)
		return p, err
	})

	targetPath := path.ActorPath{Address: remoteAddr, Segments: []string{"user", "listener"}}
	ref := NewRemoteActorRef[pingMsg, echoReply](targetPath, pool, registry, "",
		func(b []byte) (echoReply, error) { return echoReply{}, nil })

	ref.Tell(context.Background(), pingMsg{N: 7})

	select {
	case env := <-received:
		var p pingMsg
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		require.Equal(t, 7, p.N)
	case <-time.After(2 * time.Second):
		t.Fatal("tell never arrived")
	}
}
