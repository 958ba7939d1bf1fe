package user

import "testing"

func TestRegistrationOrderIndependent(t *testing.T) {
	s := Status{Phase: Connected}
	s, done := s.AdvanceNick()
	if done {
		t.Fatal("NICK alone completed registration")
	}
	s, done = s.AdvanceName()
	if !done || !s.Registered() {
		t.Fatal("NICK then USER did not complete registration")
	}

	s = Status{Phase: Connected}
	s, done = s.AdvanceName()
	if done {
		t.Fatal("USER alone completed registration")
	}
	s, done = s.AdvanceNick()
	if !done || !s.Registered() {
		t.Fatal("USER then NICK did not complete registration")
	}
}

func TestNegotiationDefersWelcome(t *testing.T) {
	s := Status{Phase: Connected}
	s = s.BeginNegotiation()
	s, done := s.AdvanceNick()
	if done {
		t.Fatal("welcome triggered during negotiation")
	}
	s, done = s.AdvanceName()
	if done {
		t.Fatal("welcome triggered during negotiation")
	}
	if s.Registered() {
		t.Fatal("registered while still negotiating")
	}
	s, done = s.EndNegotiation()
	if !done || !s.Registered() {
		t.Fatal("ending negotiation did not complete registration")
	}
}

func TestEndNegotiationIsIdempotent(t *testing.T) {
	s := Status{Phase: Connected}
	s = s.BeginNegotiation()
	s, _ = s.AdvanceNick()
	s, _ = s.AdvanceName()
	s, done := s.EndNegotiation()
	if !done {
		t.Fatal("first CAP END did not trigger the welcome")
	}
	if _, done = s.EndNegotiation(); done {
		t.Fatal("second CAP END re-triggered the welcome")
	}
}

func TestEndWithoutBeginIsNoop(t *testing.T) {
	s := Status{Phase: Registered}
	if _, done := s.EndNegotiation(); done {
		t.Fatal("CAP END without REQ triggered the welcome")
	}
}

func TestBeginNegotiationIdempotent(t *testing.T) {
	s := Status{Phase: NickRegistered}
	s = s.BeginNegotiation().BeginNegotiation()
	s, done := s.AdvanceName()
	if done || s.Registered() {
		t.Fatal("double CAP REQ broke negotiation tracking")
	}
}
