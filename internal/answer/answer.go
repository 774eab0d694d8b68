// Package answer adapts the answer service's JSON payloads to a narrow view.
package answer

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Source is a citation attached to an answer. URI is the identity.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Payload is a decoded answer object. Fields are looked up on the nested
// "answer" node first and then on the top-level object.
type Payload struct {
	root map[string]json.RawMessage
	node map[string]json.RawMessage
}

var errNotObject = errors.New("payload is not a JSON object")

// Decode parses data as an answer payload. Anything that is not a JSON
// object is rejected.
func Decode(data []byte) (*Payload, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if root == nil {
		return nil, errNotObject
	}

	p := &Payload{root: root, node: root}
	if raw, ok := root["answer"]; ok {
		var node map[string]json.RawMessage
		if err := json.Unmarshal(raw, &node); err == nil && node != nil {
			p.node = node
		}
	}
	return p, nil
}

func (p *Payload) field(name string) (json.RawMessage, bool) {
	for _, m := range []map[string]json.RawMessage{p.node, p.root} {
		raw, ok := m[name]
		if ok && string(raw) != "null" {
			return raw, true
		}
	}
	return nil, false
}

// AnswerText returns the final answer text, if the payload carries one.
func (p *Payload) AnswerText() (string, bool) {
	raw, ok := p.field("answerText")
	if !ok {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}

// RelatedQuestions returns the string entries of relatedQuestions.
func (p *Payload) RelatedQuestions() []string {
	return p.strings("relatedQuestions")
}

// SkippedReasons returns answerSkippedReasons. A non-empty result means the
// service declined to answer.
func (p *Payload) SkippedReasons() []string {
	return p.strings("answerSkippedReasons")
}

// Unanswered reports whether the service skipped the question and the first
// reason it gave.
func (p *Payload) Unanswered() (bool, string) {
	reasons := p.SkippedReasons()
	if len(reasons) == 0 {
		return false, ""
	}
	return true, reasons[0]
}

func (p *Payload) strings(name string) []string {
	raw, ok := p.field(name)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

type documentInfo struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type reference struct {
	ChunkInfo *struct {
		DocumentMetadata *documentInfo `json:"documentMetadata"`
	} `json:"chunkInfo"`
	UnstructuredDocumentInfo *documentInfo `json:"unstructuredDocumentInfo"`
}

func (r reference) document() *documentInfo {
	if r.ChunkInfo != nil && r.ChunkInfo.DocumentMetadata != nil && r.ChunkInfo.DocumentMetadata.URI != "" {
		return r.ChunkInfo.DocumentMetadata
	}
	return r.UnstructuredDocumentInfo
}

func (p *Payload) references() []json.RawMessage {
	raw, ok := p.field("references")
	if !ok {
		return nil
	}
	var refs []json.RawMessage
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	return refs
}

// ReferenceCount is the length of the raw references array.
func (p *Payload) ReferenceCount() int {
	return len(p.references())
}

// Sources returns the cited documents, deduplicated by URI in first-seen
// order. References without a URI are skipped.
func (p *Payload) Sources() []Source {
	var set SourceSet
	for _, raw := range p.references() {
		var ref reference
		if err := json.Unmarshal(raw, &ref); err != nil {
			continue
		}
		if doc := ref.document(); doc != nil {
			set.Add(Source{URI: doc.URI, Title: doc.Title})
		}
	}
	return set.List()
}
