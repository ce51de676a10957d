package bizlookup

// Business is one record extracted from the model answer.
// Any field may be empty; the model is not validated.
type Business struct {
	Name     string
	Industry string
	Phone    string
	Address  string
	Email    string
	Website  string
}

// CitationKind distinguishes grounding source types.
type CitationKind string

// Citation kind constants.
const (
	CitationWeb  CitationKind = "web"
	CitationMaps CitationKind = "maps"
)

// Citation is a web or maps source the model grounded its answer on.
type Citation struct {
	Kind  CitationKind
	URI   string
	Title string
}

// Result is the outcome of a successful lookup.
type Result struct {
	// Narrative is the model text before the json block, untrimmed.
	Narrative string
	Records   []Business
	Citations []Citation
}

// HealthStatus represents the aggregated client health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"/"skipped"
}
