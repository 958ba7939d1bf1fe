// Package server routes parsed messages to their command handlers and
// owns the client, nickname and channel registries.
package server

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nwin/rauta/internal/channel"
	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/config"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/metrics"
	"github.com/nwin/rauta/internal/user"
)

type connectedEvent struct{ c client.Client }

type inboundEvent struct {
	id  client.ID
	msg *irc.Message
}

type hangupEvent struct{ id client.ID }

type channelEmptyEvent struct{ proxy *channel.Proxy }

// Dispatcher is the single-threaded heart of the server. All registry
// state is owned by the Run goroutine; the transport feeds it through
// an event queue, so no registry access is ever concurrent.
type Dispatcher struct {
	cfg     config.Config
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	events  chan any
	stopped chan struct{}

	clients  map[client.ID]client.Client
	nicks    map[string]client.ID // canonical nick
	channels map[string]*channel.Proxy
	services map[string]Service
	routes   map[string]func(client.Client, *irc.Message)
}

// New builds a dispatcher with its routing table and default services.
func New(cfg config.Config, logger *zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		events:   make(chan any, 256),
		stopped:  make(chan struct{}),
		clients:  make(map[client.ID]client.Client),
		nicks:    make(map[string]client.ID),
		channels: make(map[string]*channel.Proxy),
		services: make(map[string]Service),
	}
	d.routes = map[string]func(client.Client, *irc.Message){
		"NICK":    d.handleNick,
		"USER":    d.handleUser,
		"CAP":     d.handleCap,
		"QUIT":    d.handleQuit,
		"JOIN":    d.handleJoin,
		"PART":    d.handlePart,
		"TOPIC":   d.handleTopic,
		"MODE":    d.handleMode,
		"NAMES":   d.handleNames,
		"WHO":     d.handleWho,
		"PRIVMSG": func(c client.Client, msg *irc.Message) { d.handlePrivmsg(c, msg, false) },
		"NOTICE":  func(c client.Client, msg *irc.Message) { d.handlePrivmsg(c, msg, true) },
		"INVITE":  d.handleInvite,
	}
	d.RegisterService(NewNickServ(logger))
	return d
}

// RegisterService makes a service reachable under its nickname.
func (d *Dispatcher) RegisterService(s Service) {
	d.services[irc.CanonicalNick(s.Name())] = s
}

// Connected implements transport.Handler.
func (d *Dispatcher) Connected(c client.Client) {
	d.post(connectedEvent{c})
}

// Inbound implements transport.Handler.
func (d *Dispatcher) Inbound(id client.ID, msg *irc.Message) {
	d.post(inboundEvent{id, msg})
}

// Hangup implements transport.Handler.
func (d *Dispatcher) Hangup(id client.ID) {
	d.post(hangupEvent{id})
}

func (d *Dispatcher) post(ev any) {
	select {
	case d.events <- ev:
	case <-d.stopped:
	}
}

// Run processes events until the context is cancelled, then tears down
// all channels and connections.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.stopped)
	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return
		case ev := <-d.events:
			d.handle(ev)
		}
	}
}

func (d *Dispatcher) handle(ev any) {
	switch ev := ev.(type) {
	case connectedEvent:
		d.clients[ev.c.ID()] = ev.c
		d.metrics.ActiveClients.Inc()
	case inboundEvent:
		c, ok := d.clients[ev.id]
		if !ok {
			return
		}
		d.route(c, ev.msg)
	case hangupEvent:
		if c, ok := d.clients[ev.id]; ok {
			d.quitClient(c, "Connection lost")
		}
	case channelEmptyEvent:
		name := irc.CanonicalChannel(ev.proxy.Name())
		// Only purge if the registry still points at this actor; a
		// fresh one may already have taken its place.
		if d.channels[name] == ev.proxy {
			delete(d.channels, name)
			d.metrics.ActiveChannels.Dec()
		}
	}
}

func (d *Dispatcher) route(c client.Client, msg *irc.Message) {
	cmd := msg.Command()
	if isNumeric(cmd) {
		return // clients must not send numeric replies
	}
	handler, ok := d.routes[cmd]
	if !ok {
		d.logger.Debug().Str("command", cmd).Msg("unknown command")
		return
	}
	if !c.Info().Status().Registered() && !allowedBeforeRegistration(cmd) {
		d.logger.Debug().Str("command", cmd).Str("nick", c.Nick()).Msg("dropped, not registered")
		return
	}
	d.metrics.MessagesRouted.Inc()
	handler(c, msg)
}

func allowedBeforeRegistration(cmd string) bool {
	switch cmd {
	case "NICK", "USER", "CAP", "QUIT":
		return true
	}
	return false
}

func isNumeric(cmd string) bool {
	if len(cmd) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if cmd[i] < '0' || cmd[i] > '9' {
			return false
		}
	}
	return true
}

// channelProxy returns the live proxy for a canonical channel name.
func (d *Dispatcher) channelProxy(name string) (*channel.Proxy, bool) {
	p, ok := d.channels[name]
	return p, ok
}

// ensureChannel returns the live proxy for the channel, spawning a new
// actor when none exists.
func (d *Dispatcher) ensureChannel(name string) *channel.Proxy {
	canonical := irc.CanonicalChannel(name)
	if p, ok := d.channels[canonical]; ok {
		return p
	}
	p := channel.Spawn(channel.New(name), d.logger, d.notifyEmpty)
	d.channels[canonical] = p
	d.metrics.ActiveChannels.Inc()
	return p
}

func (d *Dispatcher) notifyEmpty(p *channel.Proxy) {
	d.post(channelEmptyEvent{p})
}

// purgeChannel drops a proxy whose actor turned out to be gone.
func (d *Dispatcher) purgeChannel(canonical string, p *channel.Proxy) {
	if d.channels[canonical] == p {
		delete(d.channels, canonical)
		d.metrics.ActiveChannels.Dec()
	}
}

// clientWithNick resolves a registered nickname to its client.
func (d *Dispatcher) clientWithNick(nick string) (client.Client, bool) {
	id, ok := d.nicks[irc.CanonicalNick(nick)]
	if !ok {
		return client.Client{}, false
	}
	c, ok := d.clients[id]
	return c, ok
}

// quitClient broadcasts the client's QUIT to all channels, removes it
// from the registries and tears the connection down.
func (d *Dispatcher) quitClient(c client.Client, reason string) {
	var raw []byte
	if reason != "" {
		raw = c.BuildMsgTrailing(client.FromUser, "QUIT", reason)
	} else {
		raw = c.BuildMsg(client.FromUser, "QUIT")
	}
	id := c.ID()
	for canonical, proxy := range d.channels {
		if err := proxy.Post(channel.Quit{ID: id, Raw: raw}); err != nil {
			d.purgeChannel(canonical, proxy)
		}
	}
	for _, s := range d.services {
		s.Forget(id)
	}
	delete(d.clients, id)
	canonical := irc.CanonicalNick(c.Nick())
	if owner, ok := d.nicks[canonical]; ok && owner == id {
		delete(d.nicks, canonical)
	}
	c.Info().SetStatus(user.Status{Phase: user.Disconnected})
	c.Close()
	d.metrics.ActiveClients.Dec()
	d.logger.Debug().Str("nick", c.Nick()).Msg("client gone")
}

// sendWelcome completes registration with the RPL_WELCOME numeric.
func (d *Dispatcher) sendWelcome(c client.Client) {
	c.SendResponse(irc.RPL_WELCOME,
		"Welcome to the Internet Relay Network "+c.Info().Hostmask())
	d.logger.Info().Str("nick", c.Nick()).Msg("client registered")
}

func (d *Dispatcher) shutdown() {
	d.logger.Info().Int("clients", len(d.clients)).Int("channels", len(d.channels)).Msg("dispatcher shutting down")
	for _, p := range d.channels {
		p.Stop()
	}
	for _, c := range d.clients {
		c.Close()
	}
}
