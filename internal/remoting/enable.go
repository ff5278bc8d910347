package remoting

import (
	"context"
	"fmt"
	"net"

	"github.com/movierun/movie/internal/wire"
)

// Runtime is the listening half of a remoting-enabled process: an accepted
// socket for every inbound peer, decoding frames through reg and logging
// what it can't yet route to a local actor. Host processes that also need
// to originate outbound messages construct their own Pool per destination
// address separately.
type Runtime struct {
	server *Server
}

// Enable starts a Server listening on host:port, decoding inbound frames
// through reg. It is the host-integration entry point: cmd/movied calls it
// once at startup when config key "remoting.enabled" is true, then calls
// Stop during shutdown alongside ActorSystem.Shutdown.
func Enable(ctx context.Context, reg *MessageRegistry, host string, port int) (*Runtime, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("remoting: listening on %s: %w", addr, err)
	}

	srv := NewServer(ln, func(ic *InboundConnection, env *wire.Envelope) {
		msg, decodeErr := reg.Decode(env.MessageType, env.Payload)
		if decodeErr != nil {
			log.Errorf("remoting: undecodable frame from %s: %v",
				ic.PeerSystem(), decodeErr)
			return
		}

		log.Debugf("remoting: received %s targeting %s from %s",
			msg.MessageType(), env.TargetPath, ic.PeerSystem())
	})

	go func() {
		if serveErr := srv.Serve(ctx); serveErr != nil {
			log.Errorf("remoting: server exited: %v", serveErr)
		}
	}()

	return &Runtime{server: srv}, nil
}

// Stop closes the listener and every accepted inbound connection.
func (r *Runtime) Stop() error {
	return r.server.Stop()
}

// Addr returns the listener's bound address.
func (r *Runtime) Addr() net.Addr {
	return r.server.Addr()
}
