package echoweb

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
	"github.com/semillerodigital/dashboard/core/user"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

const baseTemplate = "_base.gohtml"

type (
	// Page is the data every template receives.
	Page struct {
		AppName string
		Title   string
		User    *user.User
		CSRF    string
		Data    interface{}
	}

	// Link is a navigation link ("back" buttons, error pages).
	Link struct {
		URL   string
		Label string
	}

	// Renderer renders the pages under templates/, each one wrapped in _base.gohtml.
	Renderer struct {
		templates map[string]*template.Template // {name: *Template}
	}
)

var _ echo.Renderer = (*Renderer)(nil)

var templateFuncs = template.FuncMap{
	"dueDate":   classroom.FormatDueDate,
	"deadline":  classroom.FormatDeadline,
	"timestamp": classroom.FormatTimestamp,
	"hasDate":   func(d *classroom.Date) bool { return d.IsSet() },
	"upper":     strings.ToUpper,
}

func NewRenderer(conf *core.Config) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	fps, err := fs.Glob(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, path.Ext(fname))

		tmpl, err := template.New(baseTemplate).Funcs(templateFuncs).ParseFS(templatesFS, path.Join("templates", baseTemplate), fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", name)
		}
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render buffers the output: a failing template sends nothing.
// Templates are embedded, so an unknown name means a broken build and asks the server to shut down.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return core.NewShutdownError(fmt.Sprintf("template %q not found", name))
	}
	var buff bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buff, baseTemplate, data); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	_, err := buff.WriteTo(w)
	return err
}
