package user

import "testing"

func TestHostmaskTracksIdentity(t *testing.T) {
	u := New("example.com")
	if got := u.Hostmask(); got != "*!@example.com" {
		t.Fatalf("fresh hostmask = %q", got)
	}
	u.SetNick("alice")
	u.SetUsername("ally")
	if got := u.Hostmask(); got != "alice!ally@example.com" {
		t.Fatalf("hostmask = %q", got)
	}
	u.SetNick("alice2")
	if got := u.Hostmask(); got != "alice2!ally@example.com" {
		t.Fatalf("hostmask after rename = %q", got)
	}
	u.SetHost("10.0.0.1")
	if got := u.Hostmask(); got != "alice2!ally@10.0.0.1" {
		t.Fatalf("hostmask after host change = %q", got)
	}
}

func TestFreshUserStartsUnregistered(t *testing.T) {
	u := New("example.com")
	if u.Nick() != "*" {
		t.Fatalf("fresh nick = %q, want *", u.Nick())
	}
	if u.Status().Registered() {
		t.Fatal("fresh user is registered")
	}
}
