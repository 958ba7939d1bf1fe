package irc

import (
	"bytes"
	"strings"
	"testing"
	"testing/quick"
)

func TestParseMessage(t *testing.T) {
	cases := []struct {
		line     string
		prefix   string
		command  string
		params   []string
		trailing bool
	}{
		{"PING", "", "PING", nil, false},
		{"NICK alice", "", "NICK", []string{"alice"}, false},
		{"NICK  alice", "", "NICK", []string{"alice"}, false},
		{":irc.example.org 001 alice :Welcome", "irc.example.org", "001", []string{"alice", "Welcome"}, true},
		{"PRIVMSG #test :Hello world", "", "PRIVMSG", []string{"#test", "Hello world"}, true},
		{"PRIVMSG #test :", "", "PRIVMSG", []string{"#test", ""}, true},
		{":nick!user@host JOIN #test", "nick!user@host", "JOIN", []string{"#test"}, false},
		{"@time=2020-01-01 PRIVMSG #test :hi", "", "PRIVMSG", []string{"#test", "hi"}, true},
		{"MODE #bu +be *!*@*.edu *!*@*.bu.edu", "", "MODE", []string{"#bu", "+be", "*!*@*.edu", "*!*@*.bu.edu"}, false},
		{"USER guest 0 * :Ronnie Reagan", "", "USER", []string{"guest", "0", "*", "Ronnie Reagan"}, true},
	}
	for _, c := range cases {
		msg, err := ParseMessage([]byte(c.line))
		if err != nil {
			t.Fatalf("ParseMessage(%q): %v", c.line, err)
		}
		if got := string(msg.Prefix()); got != c.prefix {
			t.Errorf("%q: prefix = %q, want %q", c.line, got, c.prefix)
		}
		if got := msg.Command(); got != c.command {
			t.Errorf("%q: command = %q, want %q", c.line, got, c.command)
		}
		if msg.ParamCount() != len(c.params) {
			t.Fatalf("%q: got %d params, want %d", c.line, msg.ParamCount(), len(c.params))
		}
		for i, want := range c.params {
			if got := string(msg.Param(i)); got != want {
				t.Errorf("%q: param %d = %q, want %q", c.line, i, got, want)
			}
		}
		if msg.HasTrailing() != c.trailing {
			t.Errorf("%q: trailing = %v, want %v", c.line, msg.HasTrailing(), c.trailing)
		}
	}
}

func TestParseMessageErrors(t *testing.T) {
	for _, line := range []string{"", "   ", ":prefix.only", "@tag-without-rest"} {
		if _, err := ParseMessage([]byte(line)); err == nil {
			t.Errorf("ParseMessage(%q): expected error", line)
		}
	}
	if _, err := ParseMessage([]byte("PR\xc3\x96V #a")); err != ErrNonASCIICommand {
		t.Errorf("non-ascii command: got %v, want ErrNonASCIICommand", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	lines := []string{
		"PING",
		"NICK alice",
		"JOIN #test",
		"PRIVMSG #test :Hello world",
		"PRIVMSG #test :single",
		"PRIVMSG #test :",
		":nick!user@host PART #test :bye",
		":irc.example.org 353 alice = #test :@alice bob",
		"MODE #bu +be *!*@*.edu *!*@*.bu.edu",
	}
	for _, line := range lines {
		msg, err := ParseMessage([]byte(line))
		if err != nil {
			t.Fatalf("ParseMessage(%q): %v", line, err)
		}
		if got := string(Encode(msg)); got != line+"\r\n" {
			t.Errorf("Encode(ParseMessage(%q)) = %q", line, got)
		}
	}
}

func TestBuildTrailingRules(t *testing.T) {
	cases := []struct {
		params []string
		want   string
	}{
		{[]string{"#test", "hi"}, "PRIVMSG #test hi\r\n"},
		{[]string{"#test", "hi there"}, "PRIVMSG #test :hi there\r\n"},
		{[]string{"#test", ""}, "PRIVMSG #test :\r\n"},
		{[]string{"#test", ":)"}, "PRIVMSG #test ::)\r\n"},
	}
	for _, c := range cases {
		if got := string(Build("", "PRIVMSG", c.params...)); got != c.want {
			t.Errorf("Build(%v) = %q, want %q", c.params, got, c.want)
		}
	}
	if got := string(Build("server", "001", "alice", "Welcome home")); got != ":server 001 alice :Welcome home\r\n" {
		t.Errorf("prefixed build = %q", got)
	}
}

// Building a message from arbitrary middle and trailing parameters and
// parsing it back must preserve the parameters.
func TestBuildParseProperty(t *testing.T) {
	f := func(middle, trailing string) bool {
		middle = sanitizeMiddle(middle)
		trailing = sanitizeTrailing(trailing)
		if middle == "" {
			return true
		}
		line := BuildTrailing("", "PRIVMSG", middle, trailing)
		msg, err := ParseMessage(bytes.TrimSuffix(line, []byte("\r\n")))
		if err != nil {
			return false
		}
		return msg.ParamCount() == 2 &&
			string(msg.Param(0)) == middle &&
			string(msg.Param(1)) == trailing
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func sanitizeMiddle(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\r' || r == '\n' || r == 0 || r == ':' {
			return -1
		}
		return r
	}, s)
	return s
}

func sanitizeTrailing(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == 0 {
			return -1
		}
		return r
	}, s)
}
