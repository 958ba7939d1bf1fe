package server

import (
	"bytes"
	"strings"

	"github.com/nwin/rauta/internal/channel"
	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/irc"
)

// maxTargets bounds comma-separated target lists.
const maxTargets = 10

// handleNick processes `NICK <nickname>`.
func (d *Dispatcher) handleNick(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 1 {
		c.SendResponse(irc.ERR_NONICKNAMEGIVEN, "No nickname given")
		return
	}
	nick, ok := irc.VerifyNick(msg.Param(0))
	if !ok {
		c.SendResponse(irc.ERR_ERRONEUSNICKNAME, string(msg.Param(0)), "Erroneous nickname")
		return
	}
	if irc.IsReservedNick(nick) {
		c.SendResponse(irc.ERR_ERRONEUSNICKNAME, nick, "Erroneous nickname. Reserved nickname")
		return
	}
	canonical := irc.CanonicalNick(nick)
	if owner, taken := d.nicks[canonical]; taken && owner != c.ID() {
		c.SendResponse(irc.ERR_NICKNAMEINUSE, nick, "Nickname is already in use")
		return
	}

	wasRegistered := c.Info().Status().Registered()
	var rename []byte
	if wasRegistered {
		// Built before the change so the prefix carries the old nick
		rename = c.BuildMsg(client.FromUser, "NICK", nick)
	}

	old := irc.CanonicalNick(c.Nick())
	if owner, ok := d.nicks[old]; ok && owner == c.ID() {
		delete(d.nicks, old)
	}
	d.nicks[canonical] = c.ID()
	c.Info().SetNick(nick)

	if wasRegistered {
		c.SendRaw(rename)
		for name, proxy := range d.channels {
			if err := proxy.Post(channel.Rename{ID: c.ID(), NewNick: nick, Raw: rename}); err != nil {
				d.purgeChannel(name, proxy)
			}
		}
		return
	}
	status, welcome := c.Info().Status().AdvanceNick()
	c.Info().SetStatus(status)
	if welcome {
		d.sendWelcome(c)
	}
}

// handleUser processes `USER <user> <mode> <unused> <realname>`.
func (d *Dispatcher) handleUser(c client.Client, msg *irc.Message) {
	if c.Info().Status().Registered() {
		c.SendResponse(irc.ERR_ALREADYREGISTRED, "Unauthorized command (already registered)")
		return
	}
	if msg.ParamCount() < 4 {
		c.SendResponse(irc.ERR_NEEDMOREPARAMS, "USER", "Not enough parameters")
		return
	}
	c.Info().SetUsername(string(msg.Param(0)))
	c.Info().SetRealname(string(msg.Param(3)))
	status, welcome := c.Info().Status().AdvanceName()
	c.Info().SetStatus(status)
	if welcome {
		d.sendWelcome(c)
	}
}

// handleCap processes `CAP <subcommand> [params]`. No capabilities are
// offered; the subcommands exist so negotiating clients can complete
// their handshake.
func (d *Dispatcher) handleCap(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 1 {
		c.SendResponse(irc.ERR_INVALIDCAPCMD, "No subcommand given")
		return
	}
	sub := strings.ToUpper(string(msg.Param(0)))
	switch sub {
	case "LS":
		// LS, LIST and REQ all open negotiation: a client probing
		// capabilities must not be welcomed before its CAP END.
		c.Info().SetStatus(c.Info().Status().BeginNegotiation())
		c.SendMsg(client.FromServer, "CAP", c.Nick(), "LS")
	case "LIST":
		c.Info().SetStatus(c.Info().Status().BeginNegotiation())
		c.SendMsg(client.FromServer, "CAP", c.Nick(), "LIST")
	case "REQ":
		c.Info().SetStatus(c.Info().Status().BeginNegotiation())
		if msg.ParamCount() > 1 {
			c.SendMsg(client.FromServer, "CAP", c.Nick(), "NAK", string(msg.Param(1)))
		} else {
			c.SendMsg(client.FromServer, "CAP", c.Nick(), "NAK")
		}
	case "END":
		status, welcome := c.Info().Status().EndNegotiation()
		c.Info().SetStatus(status)
		if welcome {
			d.sendWelcome(c)
		}
	case "CLEAR":
		c.SendMsg(client.FromServer, "CAP", c.Nick(), "ACK")
	case "ACK", "NAK":
		// replies, nothing to do
	default:
		c.SendResponse(irc.ERR_INVALIDCAPCMD, sub, "Invalid subcommand")
	}
}

// handleQuit processes `QUIT [<Quit Message>]`.
func (d *Dispatcher) handleQuit(c client.Client, msg *irc.Message) {
	reason := ""
	if msg.ParamCount() > 0 {
		reason = string(msg.Param(0))
	}
	d.quitClient(c, reason)
}

// handleJoin processes `JOIN <channel>{,<channel>} [<key>{,<key>}]`.
func (d *Dispatcher) handleJoin(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 1 {
		c.SendResponse(irc.ERR_NEEDMOREPARAMS, "JOIN", "No channel name given")
		return
	}
	rawNames := bytes.Split(msg.Param(0), []byte{','})
	if len(rawNames) > maxTargets {
		c.SendResponse(irc.ERR_TOOMANYTARGETS, "JOIN", "Number of targets is limited to 10")
		return
	}
	names := make([]string, 0, len(rawNames))
	for _, raw := range rawNames {
		name, ok := irc.VerifyChannel(raw)
		if !ok {
			c.SendResponse(irc.ERR_NEEDMOREPARAMS, string(raw), "Invalid channel name")
			return
		}
		names = append(names, name)
	}
	var keys [][]byte
	if msg.ParamCount() > 1 {
		keys = bytes.Split(msg.Param(1), []byte{','})
	}
	for i, name := range names {
		var key []byte
		if i < len(keys) {
			key = keys[i]
		}
		op := channel.Join{Who: c, Key: key}
		p := d.ensureChannel(name)
		if err := p.Post(op); err != nil {
			// The actor emptied out concurrently; replace it. A fresh
			// actor never stops before its first operation, so the
			// second post cannot race the same way.
			d.purgeChannel(irc.CanonicalChannel(name), p)
			fresh := d.ensureChannel(name)
			if err := fresh.Post(op); err != nil {
				d.purgeChannel(irc.CanonicalChannel(name), fresh)
				c.SendResponse(irc.ERR_NOSUCHCHANNEL, name, "No such channel")
			}
		}
	}
}

// handlePart processes `PART <channel> *( "," <channel> ) [<Part Message>]`.
func (d *Dispatcher) handlePart(c client.Client, msg *irc.Message) {
	var names []string
	if msg.ParamCount() > 0 {
		for _, raw := range bytes.Split(msg.Param(0), []byte{','}) {
			if name, ok := irc.VerifyChannel(raw); ok {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		c.SendResponse(irc.ERR_NEEDMOREPARAMS, "PART", "No channel name given")
		return
	}
	reason := msg.Param(1)
	for _, name := range names {
		canonical := irc.CanonicalChannel(name)
		p, ok := d.channelProxy(canonical)
		if ok {
			if err := p.Post(channel.Part{Who: c, Reason: reason}); err == nil {
				continue
			}
			d.purgeChannel(canonical, p)
		}
		c.SendResponse(irc.ERR_NOSUCHCHANNEL, name, "No such channel")
	}
}

// handleTopic processes `TOPIC <channel> [<topic>]`.
func (d *Dispatcher) handleTopic(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 1 {
		c.SendResponse(irc.ERR_NEEDMOREPARAMS, "TOPIC", "No channel name given")
		return
	}
	name, ok := irc.VerifyChannel(msg.Param(0))
	if !ok {
		c.SendResponse(irc.ERR_NOSUCHCHANNEL, string(msg.Param(0)), "Invalid channel name")
		return
	}
	canonical := irc.CanonicalChannel(name)
	p, found := d.channelProxy(canonical)
	if found {
		op := channel.Topic{Who: c, Topic: msg.Param(1), Set: msg.ParamCount() > 1}
		if err := p.Post(op); err == nil {
			return
		}
		d.purgeChannel(canonical, p)
	}
	c.SendResponse(irc.ERR_NOSUCHCHANNEL, name, "No such channel")
}

// handleMode processes `MODE <target> *( modes )`. Only channel modes
// are implemented; the sole valid user-mode target is the client itself.
func (d *Dispatcher) handleMode(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 1 {
		c.SendResponse(irc.ERR_NEEDMOREPARAMS, "MODE", "Not enough parameters")
		return
	}
	target := string(msg.Param(0))
	if !irc.ValidChannel(target) {
		if irc.CanonicalNick(target) != irc.CanonicalNick(c.Nick()) {
			c.SendResponse(irc.ERR_USERSDONTMATCH, "Cannot change mode for other users")
		}
		return
	}
	canonical := irc.CanonicalChannel(target)
	p, ok := d.channelProxy(canonical)
	if !ok {
		c.SendResponse(irc.ERR_NOSUCHCHANNEL, target, "No such channel")
		return
	}
	changes := channel.ParseModes(msg.Params()[1:])
	var shows, applies []channel.ModeChange
	for _, change := range changes {
		if change.Action == channel.Show {
			shows = append(shows, change)
		} else {
			applies = append(applies, change)
		}
	}
	posted := true
	if len(changes) == 0 || len(shows) > 0 {
		posted = d.postMode(canonical, p, channel.ModeQuery{Who: c, Changes: shows})
	}
	if posted && len(applies) > 0 {
		posted = d.postMode(canonical, p, channel.ModeChangeOp{Who: c, Changes: applies})
	}
	if !posted {
		c.SendResponse(irc.ERR_NOSUCHCHANNEL, target, "No such channel")
	}
}

func (d *Dispatcher) postMode(canonical string, p *channel.Proxy, op channel.Op) bool {
	if err := p.Post(op); err != nil {
		d.purgeChannel(canonical, p)
		return false
	}
	return true
}

// handleNames processes `NAMES <channel> *( "," <channel> )`.
func (d *Dispatcher) handleNames(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 1 {
		d.logger.Debug().Msg("NAMES without channel argument is not supported")
		return
	}
	for _, raw := range bytes.Split(msg.Param(0), []byte{','}) {
		name, ok := irc.VerifyChannel(raw)
		if !ok {
			continue
		}
		canonical := irc.CanonicalChannel(name)
		if p, ok := d.channelProxy(canonical); ok {
			if err := p.Post(channel.Names{Who: c}); err != nil {
				d.purgeChannel(canonical, p)
			}
		}
	}
}

// handleWho processes `WHO [<mask> ["o"]]`. Only channel masks are
// supported; the end-of-list numeric is sent even for unknown masks so
// clients never wait for a reply that cannot come.
func (d *Dispatcher) handleWho(c client.Client, msg *irc.Message) {
	target := "0"
	if msg.ParamCount() > 0 {
		target = string(msg.Param(0))
	}
	opOnly := msg.ParamCount() > 1 && string(msg.Param(1)) == "o"
	canonical := irc.CanonicalChannel(target)
	if p, ok := d.channelProxy(canonical); ok {
		if err := p.Post(channel.Who{Who: c, OpOnly: opOnly}); err == nil {
			return
		}
		d.purgeChannel(canonical, p)
	}
	c.SendResponse(irc.RPL_ENDOFWHO, target, "End of list")
}

// handlePrivmsg processes PRIVMSG and NOTICE. NOTICE never generates
// error replies.
func (d *Dispatcher) handlePrivmsg(c client.Client, msg *irc.Message, notice bool) {
	cmd := "PRIVMSG"
	if notice {
		cmd = "NOTICE"
	}
	if msg.ParamCount() < 1 {
		if !notice {
			c.SendResponse(irc.ERR_NORECIPIENT, "No recipient given ("+cmd+")")
		}
		return
	}
	if msg.ParamCount() < 2 {
		if !notice {
			c.SendResponse(irc.ERR_NOTEXTTOSEND, "No text to send")
		}
		return
	}
	target := string(msg.Param(0))
	text := string(msg.Param(1))

	if irc.ValidChannel(target) {
		canonical := irc.CanonicalChannel(target)
		p, ok := d.channelProxy(canonical)
		if ok {
			raw := c.BuildMsgTrailing(client.FromUser, cmd, target, text)
			if err := p.Post(channel.Privmsg{ID: c.ID(), Raw: raw}); err == nil {
				return
			}
			d.purgeChannel(canonical, p)
		}
		if !notice {
			c.SendResponse(irc.ERR_NOSUCHNICK, target, "No such nick/channel")
		}
		return
	}

	nick, ok := irc.VerifyNick(msg.Param(0))
	if !ok {
		if !notice {
			c.SendResponse(irc.ERR_NOSUCHNICK, target, "No such nick/channel")
		}
		return
	}
	if s, ok := d.services[irc.CanonicalNick(nick)]; ok {
		s.Handle(d, c, text)
		return
	}
	if peer, ok := d.clientWithNick(nick); ok {
		peer.SendRaw(c.BuildMsgTrailing(client.FromUser, cmd, nick, text))
		return
	}
	if !notice {
		c.SendResponse(irc.ERR_NOSUCHNICK, nick, "No such nick/channel")
	}
}

// handleInvite processes `INVITE <nickname> <channel>`.
func (d *Dispatcher) handleInvite(c client.Client, msg *irc.Message) {
	if msg.ParamCount() < 2 {
		c.SendResponse(irc.ERR_NEEDMOREPARAMS, "INVITE", "Not enough parameters")
		return
	}
	nick, ok := irc.VerifyNick(msg.Param(0))
	if !ok {
		c.SendResponse(irc.ERR_NOSUCHNICK, string(msg.Param(0)), "No such nick/channel")
		return
	}
	name, ok := irc.VerifyChannel(msg.Param(1))
	if !ok {
		c.SendResponse(irc.ERR_NOSUCHCHANNEL, string(msg.Param(1)), "No such channel")
		return
	}
	target, ok := d.clientWithNick(nick)
	if !ok {
		c.SendResponse(irc.ERR_NOSUCHNICK, nick, "No such nick")
		return
	}
	canonical := irc.CanonicalChannel(name)
	if p, found := d.channelProxy(canonical); found {
		if err := p.Post(channel.Invite{Sender: c, Target: target}); err == nil {
			return
		}
		d.purgeChannel(canonical, p)
	}
	// Inviting into a not yet existing channel is fine, the invitation
	// simply has nothing to be recorded on.
	c.SendResponse(irc.RPL_INVITING, name, target.Nick())
	target.SendMsgFrom(c, "INVITE", target.Nick(), name)
}
