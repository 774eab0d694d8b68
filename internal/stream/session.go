package stream

import (
	"strings"
	"unicode/utf8"
)

// Session holds the decoding state of one in-flight answer body. It is not
// safe for concurrent use.
type Session struct {
	deltas  DeltaExtractor
	pending []byte
	raw     strings.Builder
	answer  strings.Builder
	fields  Fields
	stale   bool
}

func NewSession() *Session {
	return &Session{}
}

// Write consumes one raw chunk and returns the deltas it completed. A
// multi-byte character split across chunks is held back until it is whole.
func (s *Session) Write(chunk []byte) []string {
	data := make([]byte, 0, len(s.pending)+len(chunk))
	data = append(data, s.pending...)
	data = append(data, chunk...)

	cut := completePrefix(data)
	s.pending = append(s.pending[:0], data[cut:]...)
	return s.consume(string(data[:cut]))
}

// Close flushes any held-back bytes and returns the final structured fields.
func (s *Session) Close() Fields {
	if len(s.pending) > 0 {
		s.consume(string(s.pending))
		s.pending = nil
	}
	return s.Fields()
}

func (s *Session) consume(text string) []string {
	if text == "" {
		return nil
	}
	s.raw.WriteString(text)
	deltas := s.deltas.Feed(text)
	for _, d := range deltas {
		s.answer.WriteString(d)
	}
	s.stale = true
	return deltas
}

// Answer is the concatenation of every delta seen so far.
func (s *Session) Answer() string { return s.answer.String() }

// Raw is the decoded body text seen so far.
func (s *Session) Raw() string { return s.raw.String() }

// Fields is the structured parse of the body seen so far. The body is only
// re-parsed when it has grown since the last call.
func (s *Session) Fields() Fields {
	if s.stale {
		s.fields = ParseFields(s.raw.String())
		s.stale = false
	}
	return s.fields
}

// completePrefix returns the length of the longest prefix of b that does not
// end inside a multi-byte UTF-8 sequence.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
