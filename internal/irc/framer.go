package irc

// LineFramer reassembles a raw byte stream into discrete protocol lines.
// Lines are bounded to MaxLineLen bytes including CRLF; longer input and
// malformed terminators put the framer into a resync state in which all
// bytes are discarded until the next CRLF pair, after which normal
// accumulation resumes. The framer never needs more memory than one
// maximum-length line regardless of input.
type LineFramer struct {
	line      []byte
	pendingCR bool
	resync    bool

	// Counters for the two local, non-fatal error classes.
	Malformed int
	Oversized int
}

// NewLineFramer returns a framer with a full line of capacity preallocated.
func NewLineFramer() *LineFramer {
	return &LineFramer{line: make([]byte, 0, MaxLineLen)}
}

// Feed consumes a chunk of raw bytes and returns the lines completed by
// it, without their CRLF terminators. Each returned line is a fresh
// allocation owned by the caller.
func (f *LineFramer) Feed(p []byte) [][]byte {
	var lines [][]byte
	for _, b := range p {
		if f.resync {
			// Discard until a CRLF pair is seen.
			switch b {
			case '\r':
				f.pendingCR = true
			case '\n':
				if f.pendingCR {
					f.resync = false
					f.pendingCR = false
				}
			default:
				f.pendingCR = false
			}
			continue
		}
		switch b {
		case '\r':
			f.pendingCR = true
		case '\n':
			if !f.pendingCR {
				f.fail(&f.Malformed)
				continue
			}
			f.pendingCR = false
			line := make([]byte, len(f.line))
			copy(line, f.line)
			f.line = f.line[:0]
			lines = append(lines, line)
		case 0:
			f.fail(&f.Malformed)
		default:
			f.pendingCR = false
			if len(f.line) >= MaxLineLen-2 {
				f.fail(&f.Oversized)
				continue
			}
			f.line = append(f.line, b)
		}
	}
	return lines
}

func (f *LineFramer) fail(counter *int) {
	*counter++
	f.line = f.line[:0]
	f.pendingCR = false
	f.resync = true
}
