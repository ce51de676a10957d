package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/business"
	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/bizlookup/internal/logger"
)

// SearchParams are the query parameters of GET /api/v1/search.
type SearchParams struct {
	Industry *string `form:"industry,omitempty" json:"industry,omitempty"`
	Location *string `form:"location,omitempty" json:"location,omitempty"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Industry string `json:"industry"`
	Location string `json:"location"`
}

// SearchResponse is the JSON projection of a lookup result.
type SearchResponse struct {
	Narrative string              `json:"narrative"`
	Records   []business.Record   `json:"records"`
	Citations []citation.Citation `json:"citations"`
}

// SearchAPI handles GET /api/v1/search?industry=&location=.
func (s *Server) SearchAPI(w http.ResponseWriter, r *http.Request) {
	var params SearchParams

	err := runtime.BindQueryParameter("form", true, false, "industry", r.URL.Query(), &params.Industry)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter industry: "+err.Error())
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "location", r.URL.Query(), &params.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter location: "+err.Error())
		return
	}

	s.searchJSON(w, r, derefString(params.Industry), derefString(params.Location))
}

// SearchAPIJSON handles POST /api/v1/search.
func (s *Server) SearchAPIJSON(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.searchJSON(w, r, req.Industry, req.Location)
}

func (s *Server) searchJSON(w http.ResponseWriter, r *http.Request, industry, location string) {
	q, err := request.New(industry, location)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.lookup.Lookup(ctx, q)
	if err != nil {
		f := classify(err)
		logpkg.FromContext(r.Context()).Warn("lookup failed",
			zap.String("category", string(f.Category)),
			zap.Error(err),
		)
		writeJSON(w, statusFor(f.Category), errorResponse{
			Code:      codeLookupFailed,
			Category:  string(f.Category),
			Message:   f.Message(),
			Retryable: f.Retryable(),
		})
		return
	}

	setCompletionHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResultToJSON(&res))
}

func setCompletionHeaders(w http.ResponseWriter, usage *domain.CompletionUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func searchResultToJSON(res *result.Result) SearchResponse {
	return SearchResponse{
		Narrative: res.Narrative(),
		Records:   res.Records(),
		Citations: res.Citations(),
	}
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
