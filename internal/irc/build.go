package irc

import "strings"

// Build constructs a CRLF-terminated wire line. prefix may be empty.
// The last parameter is emitted as a ":"-prefixed trailing argument if
// it contains a space, is empty, or itself starts with ":".
func Build(prefix, command string, params ...string) []byte {
	return build(prefix, command, params, needsTrailing(params))
}

// BuildTrailing is Build with the trailing ":" forced on the last
// parameter, for payloads that must survive a round trip byte-exactly.
func BuildTrailing(prefix, command string, params ...string) []byte {
	return build(prefix, command, params, len(params) > 0)
}

// Encode re-encodes a parsed message. For any syntactically valid line,
// Encode(ParseMessage(line)) equals line plus CRLF.
func Encode(m *Message) []byte {
	params := make([]string, 0, m.ParamCount())
	for i := 0; i < m.ParamCount(); i++ {
		params = append(params, string(m.Param(i)))
	}
	return build(string(m.Prefix()), m.Command(), params, m.HasTrailing())
}

func needsTrailing(params []string) bool {
	if len(params) == 0 {
		return false
	}
	last := params[len(params)-1]
	return last == "" || strings.ContainsRune(last, ' ') || strings.HasPrefix(last, ":")
}

func build(prefix, command string, params []string, trailing bool) []byte {
	var b strings.Builder
	if prefix != "" {
		b.WriteByte(':')
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(command)
	for i, param := range params {
		b.WriteByte(' ')
		if i == len(params)-1 && trailing {
			b.WriteByte(':')
		}
		b.WriteString(param)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
