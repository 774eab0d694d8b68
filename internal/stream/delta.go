// Package stream incrementally decodes the answer service's chunked body.
package stream

import (
	"encoding/json"
	"regexp"
	"unicode/utf8"
)

// maxTail bounds the rolling buffer while no field has matched.
const maxTail = 10000

var deltaField = regexp.MustCompile(`"answerText(?:Delta)?"\s*:\s*"((?:\\.|[^"\\])*)"`)

// DeltaExtractor pulls answerText and answerTextDelta values out of a body
// that arrives in arbitrary pieces. The zero value is ready to use.
type DeltaExtractor struct {
	buf string
}

// Feed appends chunk and returns the decoded values it completed, in order.
// Values that fail to decode are skipped.
func (d *DeltaExtractor) Feed(chunk string) []string {
	d.buf += chunk

	var deltas []string
	consumed := 0
	for _, m := range deltaField.FindAllStringSubmatchIndex(d.buf, -1) {
		consumed = m[1]
		if text, ok := decodeString(d.buf[m[2]:m[3]]); ok {
			deltas = append(deltas, text)
		}
	}

	switch {
	case consumed > 0:
		d.buf = d.buf[consumed:]
	case len(d.buf) > maxTail:
		cut := len(d.buf) - maxTail
		for cut < len(d.buf) && !utf8.RuneStart(d.buf[cut]) {
			cut++
		}
		d.buf = d.buf[cut:]
	}
	return deltas
}

// Pending is the unconsumed tail of the buffer.
func (d *DeltaExtractor) Pending() string { return d.buf }

func decodeString(escaped string) (string, bool) {
	var s string
	if err := json.Unmarshal([]byte(`"`+escaped+`"`), &s); err != nil {
		return "", false
	}
	return s, true
}
