package chi

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain/business"
	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/bizlookup/internal/logger"
)

const (
	mapSearchURL = "https://www.google.com/maps/search/?api=1&query="
	phoneMissing = "N/A"
)

// pageData is the template-friendly projection of one page state:
// idle form, validation notice, failure, or result.
type pageData struct {
	Industry  string
	Location  string
	MaxLength int
	Notice    string
	Failure   *failureView
	Result    *resultView
}

type failureView struct {
	Category  string
	Title     string
	Message   string
	Retryable bool
	Industry  string
	Location  string
}

type resultView struct {
	Heading   string
	Narrative template.HTML
	Records   []recordView
	Citations []citationView
}

type recordView struct {
	Name         string
	Industry     string
	Phone        string
	Address      string
	Email        string
	WebsiteURL   string
	WebsiteLabel string
	MapURL       string
}

type citationView struct {
	Kind  string
	Title string
	URL   string
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{})
}

// SearchPage handles POST /search from the form and from the retry button.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, pageData{Notice: "Invalid form submission."})
		return
	}

	data := pageData{
		Industry: r.PostFormValue("industry"),
		Location: r.PostFormValue("location"),
	}

	q, err := request.New(data.Industry, data.Location)
	if err != nil {
		data.Notice = validationMessage(err)
		s.render(w, r, http.StatusBadRequest, data)
		return
	}

	res, err := s.lookup.Lookup(r.Context(), q)
	if err != nil {
		f := classify(err)
		logpkg.FromContext(r.Context()).Warn("lookup failed",
			zap.String("category", string(f.Category)),
			zap.Error(err),
		)
		data.Failure = &failureView{
			Category:  string(f.Category),
			Title:     f.Category.Title(),
			Message:   f.Message(),
			Retryable: f.Retryable(),
			Industry:  q.Industry(),
			Location:  q.Location(),
		}
		s.render(w, r, statusFor(f.Category), data)
		return
	}

	data.Result = s.resultView(q, &res)
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.MaxLength = request.MaxFieldLength

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		logpkg.FromContext(r.Context()).Error("render page", zap.Error(err))
	}
}

func (s *Server) resultView(q request.Request, res *result.Result) *resultView {
	narrative := strings.TrimSpace(res.Narrative())

	records := make([]recordView, len(res.Records()))
	for i := range res.Records() {
		records[i] = toRecordView(&res.Records()[i])
	}

	citations := make([]citationView, len(res.Citations()))
	for i, c := range res.Citations() {
		citations[i] = toCitationView(c)
	}

	return &resultView{
		Heading: heading(q),
		// Strict policy escapes everything; whitespace is kept by CSS.
		Narrative: template.HTML(s.sanitizer.Sanitize(narrative)), //nolint:gosec // sanitized above
		Records:   records,
		Citations: citations,
	}
}

func heading(q request.Request) string {
	switch {
	case q.Industry() != "" && q.Location() != "":
		return "Results for " + q.Industry() + " in " + q.Location()
	case q.Location() != "":
		return "Businesses in " + q.Location()
	default:
		return "Results for " + q.Industry()
	}
}

func toRecordView(rec *business.Record) recordView {
	v := recordView{
		Name:     rec.Name,
		Industry: rec.Industry,
		Phone:    rec.Phone,
		Address:  rec.Address,
		MapURL:   mapURL(rec.Name, rec.Address),
	}
	if strings.TrimSpace(v.Phone) == "" {
		v.Phone = phoneMissing
	}
	if rec.HasEmail() {
		v.Email = strings.TrimSpace(rec.Email)
	}
	if rec.HasWebsite() {
		site := strings.TrimSpace(rec.Website)
		v.WebsiteLabel = websiteLabel(site)
		if citation.IsSafeURL(site) {
			v.WebsiteURL = site
		}
	}
	return v
}

func toCitationView(c citation.Citation) citationView {
	v := citationView{Kind: string(c.Kind), Title: c.DisplayTitle()}
	if c.Linkable() {
		v.URL = c.URI
	}
	return v
}

// websiteLabel drops the scheme and a trailing slash for display.
func websiteLabel(site string) string {
	lower := strings.ToLower(site)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			site = site[len(prefix):]
			break
		}
	}
	return strings.TrimSuffix(site, "/")
}

func mapURL(name, address string) string {
	query := strings.TrimSpace(strings.TrimSpace(name) + " " + strings.TrimSpace(address))
	return mapSearchURL + url.QueryEscape(query)
}
