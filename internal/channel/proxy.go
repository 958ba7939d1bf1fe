package channel

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrChannelGone is returned by Post when the channel actor stopped.
// The caller drops its stale proxy and, for JOIN, spawns a fresh one.
var ErrChannelGone = errors.New("channel: actor stopped")

// Proxy forwards operations to a channel's actor goroutine. Operations
// posted from one goroutine run in posting order. The mailbox is
// unbounded; flow control happens at the connection send queues.
type Proxy struct {
	name string

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Op
	stopped bool
}

// Spawn starts the actor goroutine for the channel and returns its
// proxy. The actor stops itself once an operation leaves the channel
// without members and the mailbox is drained; notifyEmpty is then
// called exactly once from the actor goroutine.
func Spawn(ch *Channel, logger *zerolog.Logger, notifyEmpty func(p *Proxy)) *Proxy {
	p := &Proxy{name: ch.Name()}
	p.cond = sync.NewCond(&p.mu)
	go p.run(ch, logger, notifyEmpty)
	return p
}

// Name returns the channel name the proxy belongs to.
func (p *Proxy) Name() string {
	return p.name
}

// Post hands an operation to the actor. Once the operation is accepted
// it is guaranteed to be applied.
func (p *Proxy) Post(op Op) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrChannelGone
	}
	p.queue = append(p.queue, op)
	p.cond.Signal()
	return nil
}

// Stop shuts the actor down, discarding operations not yet applied.
// Used for server shutdown; idempotent.
func (p *Proxy) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *Proxy) run(ch *Channel, logger *zerolog.Logger, notifyEmpty func(p *Proxy)) {
	logger.Debug().Str("channel", p.name).Msg("channel actor started")
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped {
			p.mu.Unlock()
			logger.Debug().Str("channel", p.name).Msg("channel actor stopped")
			return
		}
		batch := p.queue
		p.queue = nil
		p.mu.Unlock()

		for _, op := range batch {
			op.apply(ch)
		}

		if ch.MemberCount() > 0 {
			continue
		}
		// Nobody left. Stop unless a new operation raced in; holding
		// the lock while deciding closes the window where a Post could
		// be accepted and then lost.
		p.mu.Lock()
		if len(p.queue) == 0 && !p.stopped {
			p.stopped = true
			p.mu.Unlock()
			logger.Debug().Str("channel", p.name).Msg("channel actor stopped, channel empty")
			if notifyEmpty != nil {
				notifyEmpty(p)
			}
			return
		}
		p.mu.Unlock()
	}
}
