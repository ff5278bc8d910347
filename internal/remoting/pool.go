package remoting

import (
	"context"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/movierun/movie/internal/path"
	"github.com/movierun/movie/internal/wire"
)

// DefaultStripeCount is the default value of config key
// "remoting.stripe-count".
const DefaultStripeCount = 8

// PoolStats reports a pool's current connectivity.
type PoolStats struct {
	Stripes   int
	Connected int
}

// Pool holds N parallel outbound connections to one remote address.
// Messages to a given target actor path are always routed
// through the same stripe (hash(path) mod N), preserving per-actor
// delivery order; an Unordered send round-robins for fan-out where order
// doesn't matter.
type Pool struct {
	addr      path.Address
	n         int
	onMessage func(*wire.Envelope)
	localAddr path.Address

	mu     sync.RWMutex
	conns  []*Connection
	dialer net.Dialer

	rr atomic.Uint64
}

// NewPool constructs a pool for addr with n stripes (DefaultStripeCount if
// n <= 0). onMessage is forwarded to every stripe's Connection for inbound
// (non-ask-response) frames. localAddr is sent as the handshake's "address"
// field once stripe 0 connects.
func NewPool(addr, localAddr path.Address, n int, onMessage func(*wire.Envelope)) *Pool {
	if n <= 0 {
		n = DefaultStripeCount
	}
	return &Pool{
		addr:      addr,
		localAddr: localAddr,
		n:         n,
		onMessage: onMessage,
		conns:     make([]*Connection, n),
	}
}

// Connect dials all stripes in parallel via golang.org/x/sync/errgroup,
// returning an error only if every stripe failed; partial connectivity is
// surfaced through Stats instead of failing Connect outright.
func (p *Pool) Connect(ctx context.Context) error {
	var g errgroup.Group
	var successCount atomic.Int32

	for i := 0; i < p.n; i++ {
		stripe := i
		g.Go(func() error {
			conn, err := p.dialStripe(ctx, stripe)
			if err != nil {
				log.WarnS(ctx, "Stripe dial failed", err,
					"stripe", stripe, "address", p.addr.String())
				return nil
			}

			p.mu.Lock()
			p.conns[stripe] = conn
			p.mu.Unlock()
			successCount.Add(1)

			if stripe == 0 {
				hs := wire.Handshake(p.localAddr.System, p.localAddr.String())
				if err := conn.Send(hs); err != nil {
					log.WarnS(ctx, "Handshake send failed", err,
						"address", p.addr.String())
				}
			}
			return nil
		})
	}

	_ = g.Wait()

	if successCount.Load() == 0 {
		return fmt.Errorf("remoting: failed to connect any stripe to %s",
			p.addr.String())
	}
	return nil
}

func (p *Pool) dialStripe(ctx context.Context, stripe int) (*Connection, error) {
	raw, err := p.dialer.DialContext(ctx, "tcp",
		fmt.Sprintf("%s:%d", p.addr.Host, p.addr.Port))
	if err != nil {
		return nil, fmt.Errorf("dial stripe %d: %w", stripe, err)
	}
	return NewConnection(raw, p.onMessage), nil
}

// stripeFor returns the stripe index a given normalized path is always
// routed through.
func (p *Pool) stripeFor(normalizedKey string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalizedKey))
	return int(h.Sum32()) % p.n
}

func (p *Pool) connAt(idx int) (*Connection, error) {
	p.mu.RLock()
	conn := p.conns[idx]
	p.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, fmt.Errorf("remoting: stripe %d not connected", idx)
	}
	return conn, nil
}

// Send routes env to the stripe owning target's normalized path, preserving
// per-actor delivery order.
func (p *Pool) Send(target path.ActorPath, env *wire.Envelope) error {
	conn, err := p.connAt(p.stripeFor(target.NormalizedKey()))
	if err != nil {
		return err
	}
	return conn.Send(env)
}

// Ask routes env (an AskRequest) to target's stripe and awaits the
// response.
func (p *Pool) Ask(ctx context.Context, target path.ActorPath, env *wire.Envelope,
	timeout time.Duration) (*wire.Envelope, error) {

	conn, err := p.connAt(p.stripeFor(target.NormalizedKey()))
	if err != nil {
		return nil, err
	}
	return conn.Ask(ctx, env, timeout)
}

// SendUnordered round-robins env across stripes for fan-out where
// per-target ordering doesn't matter.
func (p *Pool) SendUnordered(env *wire.Envelope) error {
	idx := int(p.rr.Add(1)-1) % p.n
	conn, err := p.connAt(idx)
	if err != nil {
		return err
	}
	return conn.Send(env)
}

// Stats reports how many of the n stripes are currently connected.
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	connected := 0
	for _, c := range p.conns {
		if c != nil && !c.IsClosed() {
			connected++
		}
	}
	return PoolStats{Stripes: p.n, Connected: connected}
}

// Connected reports whether every stripe is currently connected.
func (p *Pool) Connected() bool {
	stats := p.Stats()
	return stats.Connected == stats.Stripes
}

// Close closes every stripe in parallel.
func (p *Pool) Close() error {
	var g errgroup.Group

	p.mu.RLock()
	conns := append([]*Connection(nil), p.conns...)
	p.mu.RUnlock()

	for _, c := range conns {
		if c == nil {
			continue
		}
		conn := c
		g.Go(func() error {
			conn.Close()
			return nil
		})
	}

	return g.Wait()
}
