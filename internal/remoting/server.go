package remoting

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/movierun/movie/internal/path"
	"github.com/movierun/movie/internal/wire"
)

// InboundConnection wraps one accepted socket. Its first frame is expected
// to be a Handshake, recording the peer's system name and address for
// sender_path resolution on subsequent frames.
type InboundConnection struct {
	conn       *Connection
	peerSystem string
	peerAddr   string
	mu         sync.RWMutex
}

// PeerSystem returns the remote system name recorded from the peer's
// handshake, or "" if no handshake has arrived yet.
func (ic *InboundConnection) PeerSystem() string {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.peerSystem
}

// Server accepts inbound TCP connections and dispatches non-handshake
// frames to a single onMessage callback.
type Server struct {
	listener  net.Listener
	onMessage func(*InboundConnection, *wire.Envelope)

	mu    sync.Mutex
	conns map[*InboundConnection]struct{}

	wg sync.WaitGroup
}

// NewServer wraps an already-listening net.Listener (typically
// *net.TCPListener from net.Listen("tcp", addr)).
func NewServer(listener net.Listener, onMessage func(*InboundConnection, *wire.Envelope)) *Server {
	return &Server{
		listener:  listener,
		onMessage: onMessage,
		conns:     make(map[*InboundConnection]struct{}),
	}
}

// Serve runs the accept loop until the listener is closed (typically via
// Stop). It should be run on its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return fmt.Errorf("remoting: accept failed: %w", err)
		}

		s.wg.Add(1)
		go s.handleInbound(ctx, conn)
	}
}

func (s *Server) handleInbound(ctx context.Context, raw net.Conn) {
	defer s.wg.Done()

	ic := &InboundConnection{}
	ic.conn = NewConnection(raw, func(env *wire.Envelope) {
		if env.Kind == wire.KindHandshake {
			ic.mu.Lock()
			ic.peerSystem = env.System
			ic.peerAddr = env.Address
			ic.mu.Unlock()
			return
		}
		if env.Kind == wire.KindHeartbeat {
			return
		}
		if s.onMessage != nil {
			s.onMessage(ic, env)
		}
	})

	s.mu.Lock()
	s.conns[ic] = struct{}{}
	s.mu.Unlock()

	<-ic.conn.doneCh

	s.mu.Lock()
	delete(s.conns, ic)
	s.mu.Unlock()
}

// Stop closes the listener and every tracked inbound connection, without
// calling back into the server's own tracking set.
func (s *Server) Stop() error {
	err := s.listener.Close()

	s.mu.Lock()
	conns := make([]*InboundConnection, 0, len(s.conns))
	for ic := range s.conns {
		conns = append(conns, ic)
	}
	s.mu.Unlock()

	for _, ic := range conns {
		ic.conn.Close()
	}

	s.wg.Wait()

	return err
}

// Addr returns the listener's local address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// resolveSenderPath parses a frame's sender_path as a complete ActorPath
// URI, for a host's on_message dispatch when constructing a RemoteActorRef
// back to the sender. The peer address recorded on ic by the handshake is
// not consulted.
func resolveSenderPath(ic *InboundConnection, senderPath string) (path.ActorPath, error) {
	if senderPath == "" {
		return path.ActorPath{}, fmt.Errorf("remoting: frame carries no sender_path")
	}
	return path.Parse(senderPath)
}
