// Package mask implements the host mask syntax used for identity and
// ban/exception/invite matching: a literal nick!user@host pattern where
// "*" matches zero or more characters.
package mask

import "strings"

// HostMask is an immutable wildcard pattern over a nick!user@host string.
// Matching is byte-wise and case-sensitive.
type HostMask struct {
	pattern string
}

// New wraps a pattern string in a HostMask.
func New(pattern string) HostMask {
	return HostMask{pattern: pattern}
}

// String returns the pattern.
func (m HostMask) String() string {
	return m.pattern
}

// Matches reports whether s matches the pattern. Matching proceeds
// left-to-right: each literal segment between "*"s consumes input up to
// its next occurrence, and a trailing "*" matches any remainder
// including the empty one.
func (m HostMask) Matches(s string) bool {
	segments := strings.Split(m.pattern, "*")
	if len(segments) == 1 {
		return s == m.pattern
	}

	// Anchored head.
	if !strings.HasPrefix(s, segments[0]) {
		return false
	}
	s = s[len(segments[0]):]

	// Anchored tail, unless the pattern ends in "*".
	last := segments[len(segments)-1]
	if last != "" {
		if !strings.HasSuffix(s, last) {
			return false
		}
		s = s[:len(s)-len(last)]
	}

	for _, seg := range segments[1 : len(segments)-1] {
		if seg == "" {
			continue
		}
		i := strings.Index(s, seg)
		if i < 0 {
			return false
		}
		s = s[i+len(seg):]
	}
	return true
}
