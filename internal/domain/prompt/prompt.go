// Package prompt assembles the instruction sent to the hosted model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
)

// Fields lists the keys requested for every business record, in prompt order.
var Fields = []string{"name", "industry", "phone", "address", "email", "website"}

// Builder holds the tunable parts of the prompt wording.
type Builder struct {
	Region            string // empty means no region restriction
	MinResults        int
	MaxResults        int
	ExtraInstructions string
}

// DefaultBuilder searches Malaysia for 15-20 businesses.
func DefaultBuilder() Builder {
	return Builder{Region: "Malaysia", MinResults: 15, MaxResults: 20}
}

// Criteria renders the non-empty query fields as `industry: "x" and location: "y"`.
func Criteria(q request.Request) string {
	parts := make([]string, 0, 2)
	if q.Industry() != "" {
		parts = append(parts, `industry: "`+q.Industry()+`"`)
	}
	if q.Location() != "" {
		parts = append(parts, `location: "`+q.Location()+`"`)
	}
	return strings.Join(parts, " and ")
}

// Build produces the prompt: criteria, requested fields, and the narrative
// followed by exactly one fenced json block.
func (b Builder) Build(q request.Request) string {
	var sb strings.Builder

	if b.Region != "" {
		fmt.Fprintf(&sb, "Find a list of real businesses in %s matching: %s.\n", b.Region, Criteria(q))
	} else {
		fmt.Fprintf(&sb, "Find a list of real businesses matching: %s.\n", Criteria(q))
	}

	switch {
	case b.MinResults > 0 && b.MaxResults > b.MinResults:
		fmt.Fprintf(&sb, "Provide details for at least %d-%d businesses if possible.\n", b.MinResults, b.MaxResults)
	case b.MinResults > 0:
		fmt.Fprintf(&sb, "Provide details for at least %d businesses if possible.\n", b.MinResults)
	}

	sb.WriteString("\nStart with a short plain-text summary of the area and what you found.\n")
	sb.WriteString("\nFor each business, include:\n")
	sb.WriteString("1. name\n")
	sb.WriteString("2. industry\n")
	sb.WriteString("3. phone (with local prefix)\n")
	sb.WriteString("4. address (full address)\n")
	sb.WriteString("5. email (null if unknown)\n")
	sb.WriteString("6. website (null if unknown)\n")

	if b.ExtraInstructions != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(b.ExtraInstructions))
		sb.WriteString("\n")
	}

	sb.WriteString("\nAfter the summary, return the data as a JSON array in a single block labeled json:\n")
	sb.WriteString("```json\n[\n  {")
	for i, f := range Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `"%s": "..."`, f)
	}
	sb.WriteString("}\n]\n```\n")

	return sb.String()
}
