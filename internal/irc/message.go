// Package irc implements the wire level of the IRC protocol: parsing raw
// lines into structured messages, building outgoing lines, and framing a
// byte stream into discrete, size-bounded lines.
package irc

import (
	"bytes"
	"errors"
)

const (
	// MaxLineLen is the maximum IRC line length including CRLF.
	MaxLineLen = 512
)

var (
	ErrNoCommand       = errors.New("irc: message does not contain a command")
	ErrNonASCIICommand = errors.New("irc: command contains non-ASCII characters")
)

// span marks a byte range inside a message buffer.
type span struct {
	start, end int
}

// Message is one parsed IRC protocol line. It owns the raw line bytes;
// the prefix, command and parameters are byte ranges into that buffer.
// A Message is immutable once constructed.
type Message struct {
	raw      []byte
	prefix   span // zero-width if absent
	command  span
	params   []span
	trailing bool // last parameter was a ":"-introduced trailing argument
}

// ParseMessage parses a single line (without CRLF) into a Message.
// The Message takes ownership of line; the caller must not modify it.
//
// An optional leading "@tags " block is consumed and discarded. The
// command must be ASCII; a line without a command token is an error.
// Zero-length middle parameters produced by consecutive spaces are
// dropped. The trailing parameter starts at the first " :" and runs to
// the end of the line.
func ParseMessage(line []byte) (*Message, error) {
	m := &Message{raw: line}
	rest := line
	offset := 0

	// IRCv3 tag block: recognized so tagged clients don't break, not interpreted.
	if len(rest) > 0 && rest[0] == '@' {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, ErrNoCommand
		}
		offset += sp + 1
		rest = line[offset:]
	}

	if len(rest) > 0 && rest[0] == ':' {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, ErrNoCommand
		}
		m.prefix = span{offset + 1, offset + sp}
		offset += sp + 1
		rest = line[offset:]
	}

	// Everything after the first " :" is a single trailing parameter.
	var trailing span
	if i := bytes.Index(rest, []byte(" :")); i >= 0 {
		trailing = span{offset + i + 2, len(line)}
		m.trailing = true
		rest = rest[:i]
	}

	pos := offset
	for _, tok := range bytes.Split(rest, []byte{' '}) {
		if len(tok) == 0 {
			pos++ // consecutive spaces produce empty tokens; skip them
			continue
		}
		sp := span{pos, pos + len(tok)}
		pos = sp.end + 1
		if m.command == (span{}) {
			if !isASCII(tok) {
				return nil, ErrNonASCIICommand
			}
			m.command = sp
		} else {
			m.params = append(m.params, sp)
		}
	}
	if m.command == (span{}) {
		return nil, ErrNoCommand
	}
	if m.trailing {
		m.params = append(m.params, trailing)
	}
	return m, nil
}

// Bytes returns the raw line the message was parsed from.
func (m *Message) Bytes() []byte {
	return m.raw
}

// Prefix returns the message prefix without the leading colon, or nil
// if the message has none. The prefix may contain non-UTF-8 bytes.
func (m *Message) Prefix() []byte {
	if m.prefix == (span{}) {
		return nil
	}
	return m.raw[m.prefix.start:m.prefix.end]
}

// Command returns the command token. The parser guarantees it is ASCII.
func (m *Message) Command() string {
	return string(m.raw[m.command.start:m.command.end])
}

// ParamCount returns the number of parameters including any trailing one.
func (m *Message) ParamCount() int {
	return len(m.params)
}

// Param returns the i-th parameter as a slice into the message buffer,
// or nil if there is no such parameter. The IRC protocol defines no
// encoding, so raw bytes are returned.
func (m *Message) Param(i int) []byte {
	if i < 0 || i >= len(m.params) {
		return nil
	}
	return m.raw[m.params[i].start:m.params[i].end]
}

// Params returns all parameters as slices into the message buffer.
func (m *Message) Params() [][]byte {
	out := make([][]byte, len(m.params))
	for i := range m.params {
		out[i] = m.Param(i)
	}
	return out
}

// HasTrailing reports whether the last parameter was introduced by ":".
func (m *Message) HasTrailing() bool {
	return m.trailing
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
