package stream

import (
	"strings"

	"github.com/aladrach/chatbot/internal/answer"
)

// fragmentSeparator splits the service's array-of-objects stream framing.
const fragmentSeparator = ",\r\n{"

// Fields is what the structured parser recovers from a partial body.
// ReferenceCount is the raw length of the last non-empty references array,
// counted before sources are deduplicated.
type Fields struct {
	Sources          []answer.Source
	RelatedQuestions []string
	SkippedReasons   []string
	ReferenceCount   int
}

// ParseFields re-parses the whole accumulated body. Fragments that do not
// parse are ignored. Sources merge by URI; related questions, skipped
// reasons and the reference count take the last non-empty value.
func ParseFields(accumulated string) Fields {
	var (
		fields  Fields
		sources answer.SourceSet
	)
	for i, frag := range strings.Split(accumulated, fragmentSeparator) {
		if i > 0 {
			frag = "{" + frag
		}
		p, ok := parseFragment(frag)
		if !ok {
			continue
		}
		sources.Merge(p.Sources())
		if n := p.ReferenceCount(); n > 0 {
			fields.ReferenceCount = n
		}
		if rq := p.RelatedQuestions(); len(rq) > 0 {
			fields.RelatedQuestions = rq
		}
		if sr := p.SkippedReasons(); len(sr) > 0 {
			fields.SkippedReasons = sr
		}
	}
	fields.Sources = sources.List()
	return fields
}

func parseFragment(frag string) (*answer.Payload, bool) {
	if p, err := answer.Decode([]byte(frag)); err == nil {
		return p, true
	}
	// The first and last fragments still carry the array brackets.
	cleaned := strings.TrimLeft(frag, ", \t\r\n[")
	cleaned = strings.TrimRight(cleaned, " \t\r\n]")
	if cleaned == frag {
		return nil, false
	}
	p, err := answer.Decode([]byte(cleaned))
	if err != nil {
		return nil, false
	}
	return p, true
}
