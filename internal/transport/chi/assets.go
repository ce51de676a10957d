package chi

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed web/templates/*.html
var templateFS embed.FS

//go:embed web/static
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "web/templates/page.html"))

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		panic(err)
	}
	return sub
}
