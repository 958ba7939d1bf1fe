// Package channel implements the channel policy engine and the
// per-channel actor owning all mutable channel state.
package channel

import "sort"

// Mode is a channel mode letter as of RFC 2811 section 4.
type Mode byte

const (
	// ChannelCreator marks the member who created the channel.
	ChannelCreator Mode = 'O'
	// Operator is the channel operator privilege.
	Operator Mode = 'o'
	// Voice is the voice privilege.
	Voice Mode = 'v'
	// Anonymous toggles the anonymous channel flag.
	Anonymous Mode = 'a'
	// InviteOnly restricts joining to invited clients.
	InviteOnly Mode = 'i'
	// Moderated restricts speaking to voiced members.
	Moderated Mode = 'm'
	// MemberOnly rejects messages from clients outside the channel.
	MemberOnly Mode = 'n'
	// Quiet toggles the quiet channel flag.
	Quiet Mode = 'q'
	// Private toggles the private channel flag.
	Private Mode = 'p'
	// Secret hides the channel from non-members.
	Secret Mode = 's'
	// ReOp toggles the server reop flag.
	ReOp Mode = 'r'
	// TopicProtect restricts TOPIC changes to operators.
	TopicProtect Mode = 't'
	// Key sets a channel password.
	Key Mode = 'k'
	// UserLimit caps the member count.
	UserLimit Mode = 'l'
	// BanMask keeps matching users out.
	BanMask Mode = 'b'
	// ExceptionMask overrides a ban mask.
	ExceptionMask Mode = 'e'
	// InviteMask overrides the invite-only flag.
	InviteMask Mode = 'I'
)

// modeFromByte maps a mode letter to its Mode, rejecting unknown letters.
func modeFromByte(b byte) (Mode, bool) {
	switch Mode(b) {
	case ChannelCreator, Operator, Voice, Anonymous, InviteOnly, Moderated,
		MemberOnly, Quiet, Private, Secret, ReOp, TopicProtect, Key,
		UserLimit, BanMask, ExceptionMask, InviteMask:
		return Mode(b), true
	}
	return 0, false
}

// HasParameter reports whether the mode consumes a parameter when added
// or removed.
func (m Mode) HasParameter() bool {
	switch m {
	case Key, UserLimit, BanMask, ExceptionMask, InviteMask, Operator, Voice:
		return true
	}
	return false
}

// Action says what a mode change does with a mode.
type Action int

const (
	// Add sets a flag.
	Add Action = iota
	// Remove clears a flag.
	Remove
	// Show queries the flag without consuming a parameter.
	Show
)

// ModeChange is one parsed element of a MODE parameter list.
type ModeChange struct {
	Action Action
	Mode   Mode
	Param  []byte // nil when the mode takes no parameter or Action is Show
}

// ParseModes parses the mode part of a MODE command, i.e. the
// parameters after the target:
//
//	*( ( "-" / "+" ) *<modes> *<modeparams> )
//
// A run without a sign prefix queries (Show) its modes. Modes that take
// a parameter consume the next parameter token, except when the action
// is Show. Unknown mode letters are skipped silently.
func ParseModes(params [][]byte) []ModeChange {
	var changes []ModeChange
	for i := 0; i < len(params); i++ {
		current := params[i]
		if len(current) == 0 {
			continue
		}
		action := Show
		letters := current
		switch current[0] {
		case '+':
			action = Add
			letters = current[1:]
		case '-':
			action = Remove
			letters = current[1:]
		}
		for _, b := range letters {
			mode, ok := modeFromByte(b)
			if !ok {
				continue
			}
			var param []byte
			if mode.HasParameter() && action != Show && i+1 < len(params) {
				i++
				param = params[i]
			}
			changes = append(changes, ModeChange{Action: action, Mode: mode, Param: param})
		}
	}
	return changes
}

// Flags is a set of channel modes or member privileges.
type Flags map[Mode]struct{}

// Set adds a mode to the set.
func (f Flags) Set(m Mode) {
	f[m] = struct{}{}
}

// Clear removes a mode from the set.
func (f Flags) Clear(m Mode) {
	delete(f, m)
}

// Has reports whether the mode is set.
func (f Flags) Has(m Mode) bool {
	_, ok := f[m]
	return ok
}

// String returns the mode letters in stable order, without a sign.
func (f Flags) String() string {
	letters := make([]byte, 0, len(f))
	for m := range f {
		letters = append(letters, byte(m))
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters)
}
