package irc

import (
	"strings"
	"unicode/utf8"
)

// ValidNick checks a nickname against the RFC 2812 grammar:
// ( letter / special ) *8( letter / digit / special / "-" ).
func ValidNick(nick string) bool {
	if nick == "" || len(nick) > 9 {
		return false
	}
	for i := 0; i < len(nick); i++ {
		c := nick[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= 0x5B && c <= 0x60 || c >= 0x7B && c <= 0x7D: // [ ] \ ` _ ^ { | }
		case i > 0 && (c >= '0' && c <= '9' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// VerifyNick validates raw nickname bytes: they must be valid UTF-8 and
// satisfy the nickname grammar.
func VerifyNick(nick []byte) (string, bool) {
	if !utf8.Valid(nick) {
		return "", false
	}
	s := string(nick)
	return s, ValidNick(s)
}

// ValidChannel checks a channel name: a #, &, + or ! sigil followed by
// anything except space, BEL and comma.
func ValidChannel(name string) bool {
	if name == "" {
		return false
	}
	switch name[0] {
	case '#', '&', '+', '!':
	default:
		return false
	}
	return !strings.ContainsAny(name, " \x07,")
}

// VerifyChannel validates raw channel name bytes.
func VerifyChannel(name []byte) (string, bool) {
	if !utf8.Valid(name) {
		return "", false
	}
	s := string(name)
	return s, ValidChannel(s)
}

// IsReservedNick reports whether a nickname is reserved for server use.
func IsReservedNick(nick string) bool {
	switch strings.ToLower(nick) {
	case "*", "nickserv", "chanserv", "anonymous":
		return true
	}
	return false
}

// CanonicalNick folds a nickname for registry lookups.
func CanonicalNick(nick string) string {
	return strings.ToLower(nick)
}

// CanonicalChannel folds a channel name for registry lookups.
func CanonicalChannel(name string) string {
	return strings.ToLower(name)
}
