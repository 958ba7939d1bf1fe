package user

// Phase is a step of the registration handshake.
type Phase int

const (
	// Disconnected means the connection is gone.
	Disconnected Phase = iota
	// Connected means the TCP connection is up but nothing was negotiated.
	Connected
	// NickRegistered means a valid NICK was accepted.
	NickRegistered
	// NameRegistered means a valid USER was accepted.
	NameRegistered
	// Registered means both NICK and USER were accepted.
	Registered
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case NickRegistered:
		return "nick-registered"
	case NameRegistered:
		return "name-registered"
	case Registered:
		return "registered"
	}
	return "unknown"
}

// Status is the registration state of a client. While Negotiating is
// set (capability negotiation in progress) the phase still advances on
// NICK/USER, but completing registration is deferred until CAP END.
type Status struct {
	Phase       Phase
	Negotiating bool
}

// Registered reports whether the client passed the registration gate.
func (s Status) Registered() bool {
	return s.Phase == Registered && !s.Negotiating
}

// AdvanceNick applies a successful NICK command. The returned bool is
// true when this transition completes registration and the welcome
// sequence must run.
func (s Status) AdvanceNick() (Status, bool) {
	switch s.Phase {
	case Connected, Disconnected:
		s.Phase = NickRegistered
	case NameRegistered:
		s.Phase = Registered
		return s, !s.Negotiating
	}
	return s, false
}

// AdvanceName applies a successful USER command, symmetrically to
// AdvanceNick on the name axis.
func (s Status) AdvanceName() (Status, bool) {
	switch s.Phase {
	case Connected, Disconnected:
		s.Phase = NameRegistered
	case NickRegistered:
		s.Phase = Registered
		return s, !s.Negotiating
	}
	return s, false
}

// BeginNegotiation suspends registration for CAP negotiation. It is
// idempotent.
func (s Status) BeginNegotiation() Status {
	s.Negotiating = true
	return s
}

// EndNegotiation resumes the suspended state. The returned bool is true
// when registration completed during negotiation and the welcome
// sequence must run now; ending a negotiation that was never begun is a
// no-op and never re-triggers the welcome.
func (s Status) EndNegotiation() (Status, bool) {
	if !s.Negotiating {
		return s, false
	}
	s.Negotiating = false
	return s, s.Phase == Registered
}
