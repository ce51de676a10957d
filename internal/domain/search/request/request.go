package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/bizlookup/internal/domain"
)

// MaxFieldLength is the maximum allowed length of a single query field, in runes.
const MaxFieldLength = 256

// Request is a validated business search query. Immutable once built.
type Request struct {
	industry string
	location string
}

// New trims and validates the two free-text fields.
// Either may be empty, but not both.
func New(industry, location string) (Request, error) {
	industry = strings.TrimSpace(industry)
	location = strings.TrimSpace(location)

	if industry == "" && location == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if utf8.RuneCountInString(industry) > MaxFieldLength {
		return Request{}, fmt.Errorf("industry too long (max %d chars)", MaxFieldLength)
	}
	if utf8.RuneCountInString(location) > MaxFieldLength {
		return Request{}, fmt.Errorf("location too long (max %d chars)", MaxFieldLength)
	}

	return Request{industry: industry, location: location}, nil
}

// Industry returns the industry filter (may be empty).
func (r Request) Industry() string { return r.industry }

// Location returns the location filter (may be empty).
func (r Request) Location() string { return r.location }

// String renders the query for logs.
func (r Request) String() string {
	return fmt.Sprintf("industry=%q location=%q", r.industry, r.location)
}
