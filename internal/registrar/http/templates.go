package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/synapsekit/registrar/pkg/httpx"
	"github.com/synapsekit/registrar/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// basePage carries the fields every view needs.
type basePage struct {
	SiteName string
	Title    string
}

// errorPage is the generic full-page error view.
type errorPage struct {
	basePage
	Message string
}

// render executes a page template. Rendering failures after the header has
// been written cannot be recovered, so they are only logged.
func render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := templates.ExecuteTemplate(w, page+".html", data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render template",
			"template", page,
			"error", err,
		)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, siteName, title, message string) {
	render(w, r, status, "error", errorPage{
		basePage: basePage{SiteName: siteName, Title: title},
		Message:  message,
	})
}
