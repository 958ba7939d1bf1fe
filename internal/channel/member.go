package channel

import (
	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/irc/mask"
)

// Member is a channel-scoped view of a client: the client handle plus
// per-channel privilege flags and a cached decorated nickname. Identity
// fields are snapshotted when the member joins so the channel actor
// never has to take the user lock.
type Member struct {
	client    client.Client
	nick      string
	username  string
	hostname  string
	realname  string
	hostmask  string
	flags     Flags
	decorated string
}

// NewMember snapshots a client into a channel member.
func NewMember(c client.Client) *Member {
	info := c.Info()
	m := &Member{
		client:   c,
		nick:     info.Nick(),
		username: info.Username(),
		hostname: info.Host(),
		realname: info.Realname(),
		hostmask: info.Hostmask(),
		flags:    Flags{},
	}
	m.decorated = m.nick
	return m
}

// ID returns the member's connection identifier.
func (m *Member) ID() client.ID {
	return m.client.ID()
}

// Client returns the underlying client handle.
func (m *Member) Client() client.Client {
	return m.client
}

// Nick returns the member's nickname.
func (m *Member) Nick() string {
	return m.nick
}

// Username returns the member's username.
func (m *Member) Username() string {
	return m.username
}

// Hostname returns the member's display hostname.
func (m *Member) Hostname() string {
	return m.hostname
}

// Realname returns the member's real name.
func (m *Member) Realname() string {
	return m.realname
}

// Hostmask returns the member's nick!user@host identity string.
func (m *Member) Hostmask() string {
	return m.hostmask
}

// Promote grants a privilege and refreshes the decorated nick.
func (m *Member) Promote(flag Mode) {
	m.flags.Set(flag)
	m.updateDecoratedNick()
}

// Demote revokes a privilege and refreshes the decorated nick.
func (m *Member) Demote(flag Mode) {
	m.flags.Clear(flag)
	m.updateDecoratedNick()
}

// IsOp reports whether the member is a channel operator.
func (m *Member) IsOp() bool {
	return m.flags.Has(Operator)
}

// HasVoice reports whether the member may speak on a moderated channel.
func (m *Member) HasVoice() bool {
	return m.flags.Has(Voice) || m.flags.Has(Operator)
}

// Decoration returns the privilege prefix: "@" for operators, "+" for
// voiced members, "" otherwise.
func (m *Member) Decoration() string {
	switch {
	case m.flags.Has(Operator):
		return "@"
	case m.flags.Has(Voice):
		return "+"
	}
	return ""
}

// DecoratedNick returns the nickname with its privilege prefix.
func (m *Member) DecoratedNick() string {
	return m.decorated
}

// SetNick renames the member and refreshes the decorated nick.
func (m *Member) SetNick(nick string) {
	m.nick = nick
	m.hostmask = m.client.Info().Hostmask()
	m.updateDecoratedNick()
}

// MatchesAny reports whether the member's hostmask matches any mask in
// the set.
func (m *Member) MatchesAny(masks map[mask.HostMask]struct{}) bool {
	for hm := range masks {
		if hm.Matches(m.hostmask) {
			return true
		}
	}
	return false
}

// SendResponse queues a numeric reply to the member.
func (m *Member) SendResponse(code irc.ResponseCode, params ...string) {
	m.client.SendResponse(code, params...)
}

func (m *Member) updateDecoratedNick() {
	m.decorated = m.Decoration() + m.nick
}
