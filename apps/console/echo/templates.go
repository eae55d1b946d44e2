package consoleweb

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// renderer implements echo.Renderer. Every page template is parsed together with `_base.gohtml`.
type renderer struct {
	templates map[string]*template.Template // {name: *Template}
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	fps, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}

	r := &renderer{templates: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, path.Ext(fname))
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/_base.gohtml", fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q", fp)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render fails with a shutdown error for unknown templates: the binary was built without them.
func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return core.NewShutdownError("template " + strconv.Quote(name) + " not embedded")
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
