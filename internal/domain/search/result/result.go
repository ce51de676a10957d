package result

import (
	"github.com/kailas-cloud/bizlookup/internal/domain/business"
	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
)

// Result is the outcome of one successful lookup. It is replaced wholesale by
// the next query; records and citations keep the order the model produced.
type Result struct {
	narrative string
	records   []business.Record
	citations []citation.Citation
}

// New creates a lookup result. Nil slices are normalized to empty ones.
func New(narrative string, records []business.Record, citations []citation.Citation) Result {
	if records == nil {
		records = []business.Record{}
	}
	if citations == nil {
		citations = []citation.Citation{}
	}
	return Result{narrative: narrative, records: records, citations: citations}
}

// Narrative returns the model's free-text summary, without the JSON block.
func (r *Result) Narrative() string { return r.narrative }

// Records returns the extracted business records (possibly empty).
func (r *Result) Records() []business.Record { return r.records }

// Citations returns the grounding sources.
func (r *Result) Citations() []citation.Citation { return r.citations }
