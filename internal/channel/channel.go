package channel

import (
	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/irc/mask"
)

// Channel owns all mutable state of one IRC channel: members,
// privileges, flags, masks and the topic. It manages its own
// authentication and per-channel bans. All access happens on the
// channel's actor goroutine, so none of the state is locked.
type Channel struct {
	name        string
	topic       string
	password    []byte
	limit       int
	flags       Flags
	members     map[string]*Member
	nicknames   map[client.ID]string
	inviteList  map[client.ID]struct{}
	banMasks    map[mask.HostMask]struct{}
	exceptMasks map[mask.HostMask]struct{}
	inviteMasks map[mask.HostMask]struct{}
}

// New creates an empty channel. Fresh channels start with the
// topic-protect and member-only flags set.
func New(name string) *Channel {
	ch := &Channel{
		name:        name,
		flags:       Flags{},
		members:     make(map[string]*Member),
		nicknames:   make(map[client.ID]string),
		inviteList:  make(map[client.ID]struct{}),
		banMasks:    make(map[mask.HostMask]struct{}),
		exceptMasks: make(map[mask.HostMask]struct{}),
		inviteMasks: make(map[mask.HostMask]struct{}),
	}
	ch.flags.Set(TopicProtect)
	ch.flags.Set(MemberOnly)
	return ch
}

// Name returns the channel name.
func (ch *Channel) Name() string {
	return ch.name
}

// Topic returns the current topic, empty when none is set.
func (ch *Channel) Topic() string {
	return ch.topic
}

// SetTopic replaces the topic.
func (ch *Channel) SetTopic(topic string) {
	ch.topic = topic
}

// MemberCount returns the number of members.
func (ch *Channel) MemberCount() int {
	return len(ch.members)
}

// HasFlag reports whether the channel mode is set.
func (ch *Channel) HasFlag(flag Mode) bool {
	return ch.flags.Has(flag)
}

// FlagString returns the channel modes as a "+"-prefixed letter string.
func (ch *Channel) FlagString() string {
	return "+" + ch.flags.String()
}

// MemberWithID looks up a member by connection identifier.
func (ch *Channel) MemberWithID(id client.ID) (*Member, bool) {
	nick, ok := ch.nicknames[id]
	if !ok {
		return nil, false
	}
	m, ok := ch.members[nick]
	return m, ok
}

// MemberWithNick looks up a member by nickname.
func (ch *Channel) MemberWithNick(nick string) (*Member, bool) {
	m, ok := ch.members[nick]
	return m, ok
}

// IsMember reports whether the connection is a channel member.
func (ch *Channel) IsMember(id client.ID) bool {
	_, ok := ch.nicknames[id]
	return ok
}

// IsInvited reports whether the member may bypass invite-only, either
// by an explicit invitation or by matching an invite mask.
func (ch *Channel) IsInvited(m *Member) bool {
	if _, ok := ch.inviteList[m.ID()]; ok {
		return true
	}
	return m.MatchesAny(ch.inviteMasks)
}

// AddMember inserts a member unless the connection is already present.
func (ch *Channel) AddMember(m *Member) bool {
	if _, ok := ch.nicknames[m.ID()]; ok {
		return false
	}
	ch.nicknames[m.ID()] = m.Nick()
	ch.members[m.Nick()] = m
	return true
}

// RemoveMember deletes a member by connection identifier.
func (ch *Channel) RemoveMember(id client.ID) bool {
	nick, ok := ch.nicknames[id]
	if !ok {
		return false
	}
	delete(ch.nicknames, id)
	delete(ch.members, nick)
	return true
}

// AddToInviteList records an invitation for the connection.
func (ch *Channel) AddToInviteList(id client.ID) {
	ch.inviteList[id] = struct{}{}
}

// RemoveFromInviteList consumes an invitation.
func (ch *Channel) RemoveFromInviteList(id client.ID) {
	delete(ch.inviteList, id)
}

// AddMask inserts a ban, exception or invite mask and sets the
// corresponding channel flag.
func (ch *Channel) AddMask(kind Mode, hm mask.HostMask) {
	set, ok := ch.maskSet(kind)
	if !ok {
		return
	}
	set[hm] = struct{}{}
	ch.flags.Set(kind)
}

// RemoveMask deletes a mask and clears the flag once the set is empty.
func (ch *Channel) RemoveMask(kind Mode, hm mask.HostMask) {
	set, ok := ch.maskSet(kind)
	if !ok {
		return
	}
	delete(set, hm)
	if len(set) == 0 {
		ch.flags.Clear(kind)
	}
}

func (ch *Channel) maskSet(kind Mode) (map[mask.HostMask]struct{}, bool) {
	switch kind {
	case BanMask:
		return ch.banMasks, true
	case ExceptionMask:
		return ch.exceptMasks, true
	case InviteMask:
		return ch.inviteMasks, true
	}
	return nil, false
}

// Broadcast queues a shared encoded line to every member.
func (ch *Channel) Broadcast(raw []byte) {
	for _, m := range ch.members {
		m.client.SendRaw(raw)
	}
}

// BroadcastExcept queues a shared encoded line to every member but one.
func (ch *Channel) BroadcastExcept(id client.ID, raw []byte) {
	for _, m := range ch.members {
		if m.ID() != id {
			m.client.SendRaw(raw)
		}
	}
}

// SendNames sends the RPL_NAMREPLY list to the client. Secret channels
// stay invisible to non-members.
func (ch *Channel) SendNames(c client.Client) {
	if ch.flags.Has(Secret) && !ch.IsMember(c.ID()) {
		return
	}
	sender := ch.prefixedListSender(c, irc.RPL_NAMREPLY, irc.RPL_ENDOFNAMES, "=")
	defer sender.Close()
	for _, m := range ch.members {
		sender.Item(m.DecoratedNick())
	}
}

// ListSender emits one numeric per fed item and guarantees the
// end-of-list numeric exactly once, even when no item is fed.
type ListSender struct {
	receiver client.Client
	listCode irc.ResponseCode
	endCode  irc.ResponseCode
	name     string
	prefix   string
	closed   bool
}

// NewListSender constructs a list sender for the given reply pair.
func (ch *Channel) NewListSender(receiver client.Client, listCode, endCode irc.ResponseCode) *ListSender {
	return ch.prefixedListSender(receiver, listCode, endCode, "")
}

func (ch *Channel) prefixedListSender(receiver client.Client, listCode, endCode irc.ResponseCode, prefix string) *ListSender {
	return &ListSender{
		receiver: receiver,
		listCode: listCode,
		endCode:  endCode,
		name:     ch.name,
		prefix:   prefix,
	}
}

// Item sends one list entry, prepended with the channel name and the
// optional prefix.
func (s *ListSender) Item(fields ...string) {
	params := make([]string, 0, len(fields)+2)
	if s.prefix != "" {
		params = append(params, s.prefix)
	}
	params = append(params, s.name)
	params = append(params, fields...)
	s.receiver.SendResponse(s.listCode, params...)
}

// Close sends the end-of-list numeric. It is idempotent so that every
// return path of a handler can close the sender.
func (s *ListSender) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.receiver.SendResponse(s.endCode, s.name, "End of list")
}
