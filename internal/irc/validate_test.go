package irc

import "testing"

func TestValidNick(t *testing.T) {
	valid := []string{"alice", "a", "[away]", "guest42", "x-y_z", "{nick}", "^caret"}
	for _, nick := range valid {
		if !ValidNick(nick) {
			t.Errorf("ValidNick(%q) = false", nick)
		}
	}
	invalid := []string{"", "1abc", "-abc", "toolongnick", "spa ce", "com,ma", "uniçode"}
	for _, nick := range invalid {
		if ValidNick(nick) {
			t.Errorf("ValidNick(%q) = true", nick)
		}
	}
}

func TestVerifyNickRejectsInvalidUTF8(t *testing.T) {
	if _, ok := VerifyNick([]byte{'a', 0xff, 'b'}); ok {
		t.Fatal("invalid utf-8 accepted")
	}
}

func TestValidChannel(t *testing.T) {
	valid := []string{"#test", "&local", "+modeless", "!safe", "#mixed-Case_1"}
	for _, name := range valid {
		if !ValidChannel(name) {
			t.Errorf("ValidChannel(%q) = false", name)
		}
	}
	invalid := []string{"", "test", "#with space", "#with,comma", "#bell\x07"}
	for _, name := range invalid {
		if ValidChannel(name) {
			t.Errorf("ValidChannel(%q) = true", name)
		}
	}
}

func TestIsReservedNick(t *testing.T) {
	for _, nick := range []string{"*", "NickServ", "nickserv", "ChanServ", "anonymous"} {
		if !IsReservedNick(nick) {
			t.Errorf("IsReservedNick(%q) = false", nick)
		}
	}
	if IsReservedNick("alice") {
		t.Error("IsReservedNick(alice) = true")
	}
}
