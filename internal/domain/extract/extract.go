// Package extract pulls business records out of a model answer that embeds a
// fenced json block inside free text. Nothing here returns an error: every
// parse problem degrades to an empty record list.
package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/bizlookup/internal/domain/business"
)

// Fence markers of the embedded block.
const (
	OpenFence  = "```json"
	CloseFence = "```"
)

// Outcome describes how extraction went.
type Outcome string

const (
	// OutcomeOK means the block held an array (possibly empty).
	OutcomeOK Outcome = "ok"
	// OutcomeNoBlock means the text has no json fence.
	OutcomeNoBlock Outcome = "no_block"
	// OutcomeUnterminated means the opening fence has no closing fence.
	OutcomeUnterminated Outcome = "unterminated"
	// OutcomeInvalidJSON means the block content is not valid JSON.
	OutcomeInvalidJSON Outcome = "invalid_json"
	// OutcomeNotArray means the JSON is neither an array nor {"businesses": [...]}.
	OutcomeNotArray Outcome = "not_array"
)

// Parsed is the structured view of a raw answer.
type Parsed struct {
	Narrative string
	Records   []business.Record
	Outcome   Outcome
}

// Degraded reports a non-fatal extraction failure.
func (p Parsed) Degraded() bool { return p.Outcome != OutcomeOK }

// Parse splits the answer into narrative and records.
func Parse(text string) Parsed {
	p := Parsed{Narrative: Narrative(text), Records: []business.Record{}}

	block, outcome := firstBlock(text)
	if outcome != OutcomeOK {
		p.Outcome = outcome
		return p
	}

	records, outcome := decode(block)
	p.Records = records
	p.Outcome = outcome
	return p
}

// Records returns the records of the first json block, or an empty list.
func Records(text string) []business.Record {
	return Parse(text).Records
}

// Narrative returns everything before the first json fence, or the whole text.
func Narrative(text string) string {
	before, _, _ := strings.Cut(text, OpenFence)
	return before
}

func firstBlock(text string) (string, Outcome) {
	start := strings.Index(text, OpenFence)
	if start < 0 {
		return "", OutcomeNoBlock
	}
	rest := text[start+len(OpenFence):]

	end := strings.Index(rest, CloseFence)
	if end < 0 {
		return "", OutcomeUnterminated
	}
	return rest[:end], OutcomeOK
}

func decode(block string) ([]business.Record, Outcome) {
	data := bytes.TrimSpace([]byte(block))
	if !json.Valid(data) {
		return []business.Record{}, OutcomeInvalidJSON
	}

	var items []json.RawMessage
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return []business.Record{}, OutcomeInvalidJSON
		}
	case len(data) > 0 && data[0] == '{':
		var wrapped struct {
			Businesses json.RawMessage `json:"businesses"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return []business.Record{}, OutcomeInvalidJSON
		}
		inner := bytes.TrimSpace(wrapped.Businesses)
		if len(inner) == 0 || inner[0] != '[' {
			return []business.Record{}, OutcomeNotArray
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return []business.Record{}, OutcomeNotArray
		}
	default:
		return []business.Record{}, OutcomeNotArray
	}

	records := make([]business.Record, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var r business.Record
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, OutcomeOK
}
