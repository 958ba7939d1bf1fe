package channel

import (
	"bytes"
	"strconv"

	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/irc/mask"
)

// Op is one operation executed on the channel's actor goroutine. Each
// command that touches channel state has its own descriptor type; the
// descriptor carries everything the operation needs so the actor never
// reaches outside the channel.
type Op interface {
	apply(ch *Channel)
}

// Join asks the channel to admit a client.
//
// `JOIN <channel> [<key>]`
type Join struct {
	Who client.Client
	Key []byte
}

func (op Join) apply(ch *Channel) {
	m := NewMember(op.Who)
	if len(ch.password) > 0 && !bytes.Equal(op.Key, ch.password) {
		m.SendResponse(irc.ERR_BADCHANNELKEY, ch.name, "Cannot join channel (+k)")
		return
	}
	if ch.IsMember(m.ID()) {
		return
	}
	if m.MatchesAny(ch.banMasks) && !m.MatchesAny(ch.exceptMasks) {
		m.SendResponse(irc.ERR_BANNEDFROMCHAN, ch.name, "Cannot join channel (+b)")
		return
	}
	if ch.flags.Has(InviteOnly) && !ch.IsInvited(m) {
		m.SendResponse(irc.ERR_INVITEONLYCHAN, ch.name, "Cannot join channel (+i)")
		return
	}
	if ch.flags.Has(UserLimit) && ch.limit > 0 && len(ch.members) >= ch.limit {
		m.SendResponse(irc.ERR_CHANNELISFULL, ch.name, "Cannot join channel (+l)")
		return
	}
	// First member founds the channel
	if len(ch.members) == 0 {
		m.Promote(ChannelCreator)
		m.Promote(Operator)
	}
	ch.RemoveFromInviteList(m.ID())
	ch.AddMember(m)
	ch.Broadcast(op.Who.BuildMsg(client.FromUser, "JOIN", ch.name))
	if ch.topic == "" {
		m.SendResponse(irc.RPL_NOTOPIC, ch.name, "No topic is set")
	} else {
		m.SendResponse(irc.RPL_TOPIC, ch.name, ch.topic)
	}
	ch.SendNames(op.Who)
}

// Part asks the channel to remove a member.
//
// `PART <channel> [<Part Message>]`
type Part struct {
	Who    client.Client
	Reason []byte
}

func (op Part) apply(ch *Channel) {
	if !ch.IsMember(op.Who.ID()) {
		op.Who.SendResponse(irc.ERR_NOTONCHANNEL, ch.name, "You're not on that channel")
		return
	}
	var raw []byte
	if len(op.Reason) > 0 {
		raw = op.Who.BuildMsgTrailing(client.FromUser, "PART", ch.name, string(op.Reason))
	} else {
		raw = op.Who.BuildMsg(client.FromUser, "PART", ch.name)
	}
	// The leaving member still sees their own PART
	ch.Broadcast(raw)
	ch.RemoveMember(op.Who.ID())
}

// Quit removes a member because its connection went away. Raw is the
// pre-built QUIT line shared across all channels of the client.
type Quit struct {
	ID  client.ID
	Raw []byte
}

func (op Quit) apply(ch *Channel) {
	if !ch.RemoveMember(op.ID) {
		return
	}
	ch.Broadcast(op.Raw)
}

// Topic queries or replaces the channel topic.
//
// `TOPIC <channel> [<topic>]`
type Topic struct {
	Who   client.Client
	Topic []byte
	Set   bool
}

func (op Topic) apply(ch *Channel) {
	m, isMember := ch.MemberWithID(op.Who.ID())
	if !isMember {
		switch {
		case ch.flags.Has(Secret):
			op.Who.SendResponse(irc.ERR_NOSUCHCHANNEL, ch.name, "No such channel")
		case !op.Set:
			ch.replyTopic(op.Who)
		default:
			op.Who.SendResponse(irc.ERR_NOTONCHANNEL, ch.name, "You're not on that channel")
		}
		return
	}
	if !op.Set {
		ch.replyTopic(op.Who)
		return
	}
	if ch.flags.Has(TopicProtect) && !m.IsOp() {
		m.SendResponse(irc.ERR_CHANOPRIVSNEEDED, ch.name, "You're not a channel operator (channel is +t)")
		return
	}
	topic := string(op.Topic)
	ch.Broadcast(op.Who.BuildMsgTrailing(client.FromUser, "TOPIC", ch.name, topic))
	ch.topic = topic
}

func (ch *Channel) replyTopic(c client.Client) {
	if ch.topic == "" {
		c.SendResponse(irc.RPL_NOTOPIC, ch.name, "No topic is set")
	} else {
		c.SendResponse(irc.RPL_TOPIC, ch.name, ch.topic)
	}
}

// ModeQuery asks for the channel mode summary or one of the mask lists.
//
// `MODE <channel>` and `MODE <channel> b` etc.
type ModeQuery struct {
	Who     client.Client
	Changes []ModeChange
}

func (op ModeQuery) apply(ch *Channel) {
	if ch.flags.Has(Secret) && !ch.IsMember(op.Who.ID()) {
		return
	}
	if len(op.Changes) == 0 {
		op.Who.SendResponse(irc.RPL_CHANNELMODEIS, ch.name, ch.FlagString())
		return
	}
	for _, change := range op.Changes {
		switch change.Mode {
		case BanMask:
			ch.sendMaskList(op.Who, ch.banMasks, irc.RPL_BANLIST, irc.RPL_ENDOFBANLIST)
		case ExceptionMask:
			ch.sendMaskList(op.Who, ch.exceptMasks, irc.RPL_EXCEPTLIST, irc.RPL_ENDOFEXCEPTLIST)
		case InviteMask:
			ch.sendMaskList(op.Who, ch.inviteMasks, irc.RPL_INVITELIST, irc.RPL_ENDOFINVITELIST)
		}
	}
}

func (ch *Channel) sendMaskList(c client.Client, set map[mask.HostMask]struct{}, listCode, endCode irc.ResponseCode) {
	sender := ch.NewListSender(c, listCode, endCode)
	defer sender.Close()
	for hm := range set {
		sender.Item(hm.String())
	}
}

// ModeChangeOp applies mode changes to the channel.
//
// `MODE <channel> *( ( "-" / "+" ) *<modes> *<modeparams> )`
type ModeChangeOp struct {
	Who     client.Client
	Changes []ModeChange
}

func (op ModeChangeOp) apply(ch *Channel) {
	m, isMember := ch.MemberWithID(op.Who.ID())
	if !isMember {
		op.Who.SendResponse(irc.ERR_NOTONCHANNEL, ch.name, "You're not on that channel")
		return
	}
	if !m.IsOp() {
		m.SendResponse(irc.ERR_CHANOPRIVSNEEDED, ch.name, "You're not a channel operator")
		return
	}
	for _, change := range op.Changes {
		if applied := ch.applyModeChange(change); applied {
			ch.broadcastModeChange(op.Who, change)
		}
	}
}

// applyModeChange mutates the channel for one parsed change and reports
// whether anything happened. Show actions were split off before posting
// and never reach this point.
func (ch *Channel) applyModeChange(change ModeChange) bool {
	add := change.Action == Add
	switch change.Mode {
	case Operator, Voice:
		member, ok := ch.MemberWithNick(string(change.Param))
		if !ok {
			return false
		}
		if add {
			member.Promote(change.Mode)
		} else {
			member.Demote(change.Mode)
		}
		return true
	case Key:
		if add {
			if len(change.Param) == 0 {
				return false
			}
			ch.password = append([]byte(nil), change.Param...)
			ch.flags.Set(Key)
		} else {
			ch.password = nil
			ch.flags.Clear(Key)
		}
		return true
	case UserLimit:
		if add {
			limit, err := strconv.Atoi(string(change.Param))
			if err != nil || limit <= 0 {
				return false
			}
			ch.limit = limit
			ch.flags.Set(UserLimit)
		} else {
			ch.limit = 0
			ch.flags.Clear(UserLimit)
		}
		return true
	case BanMask, ExceptionMask, InviteMask:
		if len(change.Param) == 0 {
			return false
		}
		hm := mask.New(string(change.Param))
		if add {
			ch.AddMask(change.Mode, hm)
		} else {
			ch.RemoveMask(change.Mode, hm)
		}
		return true
	case ChannelCreator:
		// The creator flag is set once at channel creation
		return false
	default:
		if add {
			ch.flags.Set(change.Mode)
		} else {
			ch.flags.Clear(change.Mode)
		}
		return true
	}
}

func (ch *Channel) broadcastModeChange(who client.Client, change ModeChange) {
	sign := "+"
	if change.Action == Remove {
		sign = "-"
	}
	modes := sign + string(byte(change.Mode))
	if len(change.Param) > 0 {
		ch.Broadcast(who.BuildMsg(client.FromUser, "MODE", ch.name, modes, string(change.Param)))
	} else {
		ch.Broadcast(who.BuildMsg(client.FromUser, "MODE", ch.name, modes))
	}
}

// Names sends the member list.
//
// `NAMES <channel> *( "," <channel> )`
type Names struct {
	Who client.Client
}

func (op Names) apply(ch *Channel) {
	ch.SendNames(op.Who)
}

// Who sends the WHO list, optionally restricted to operators.
//
// `WHO <channel> ["o"]`
type Who struct {
	Who    client.Client
	OpOnly bool
}

func (op Who) apply(ch *Channel) {
	sender := ch.NewListSender(op.Who, irc.RPL_WHOREPLY, irc.RPL_ENDOFWHO)
	// Non-members get the bare end-of-list for hidden channels, which
	// leaks nothing but keeps clients from hanging on a missing 315.
	defer sender.Close()
	if (ch.flags.Has(Private) || ch.flags.Has(Secret)) && !ch.IsMember(op.Who.ID()) {
		return
	}
	for _, m := range ch.members {
		if op.OpOnly && !m.IsOp() {
			continue
		}
		sender.Item(
			m.Username(),
			m.Hostname(),
			m.client.ServerName(),
			m.Nick(),
			"H"+m.Decoration(),
			"0 "+m.Realname(),
		)
	}
}

// Privmsg relays a PRIVMSG or NOTICE to the channel members. Raw is the
// pre-built line shared across recipients.
type Privmsg struct {
	ID  client.ID
	Raw []byte
}

func (op Privmsg) apply(ch *Channel) {
	sender, isMember := ch.MemberWithID(op.ID)
	if ch.flags.Has(MemberOnly) || ch.flags.Has(Moderated) {
		if !isMember {
			return
		}
		if ch.flags.Has(Moderated) && !sender.HasVoice() {
			return
		}
		ch.BroadcastExcept(op.ID, op.Raw)
		return
	}
	if isMember {
		ch.BroadcastExcept(op.ID, op.Raw)
	} else {
		ch.Broadcast(op.Raw)
	}
}

// Invite records an invitation issued by a member.
//
// `INVITE <nickname> <channel>`
type Invite struct {
	Sender client.Client
	Target client.Client
}

func (op Invite) apply(ch *Channel) {
	m, isMember := ch.MemberWithID(op.Sender.ID())
	if !isMember {
		op.Sender.SendResponse(irc.ERR_NOTONCHANNEL, ch.name, "You're not on that channel")
		return
	}
	targetNick := op.Target.Nick()
	if ch.IsMember(op.Target.ID()) {
		op.Sender.SendResponse(irc.ERR_USERONCHANNEL, targetNick, ch.name, "is already on channel")
		return
	}
	if ch.flags.Has(InviteOnly) && !m.IsOp() {
		op.Sender.SendResponse(irc.ERR_CHANOPRIVSNEEDED, ch.name, "You're not a channel operator")
		return
	}
	ch.AddToInviteList(op.Target.ID())
	op.Sender.SendResponse(irc.RPL_INVITING, ch.name, targetNick)
	op.Target.SendMsgFrom(op.Sender, "INVITE", targetNick, ch.name)
}

// Rename updates the member entry after a nick change. Raw is the NICK
// line shared across all channels of the client; the renaming client
// already got its own copy from the dispatcher.
type Rename struct {
	ID      client.ID
	NewNick string
	Raw     []byte
}

func (op Rename) apply(ch *Channel) {
	oldNick, ok := ch.nicknames[op.ID]
	if !ok {
		return
	}
	m := ch.members[oldNick]
	delete(ch.members, oldNick)
	m.SetNick(op.NewNick)
	ch.members[op.NewNick] = m
	ch.nicknames[op.ID] = op.NewNick
	ch.BroadcastExcept(op.ID, op.Raw)
}
