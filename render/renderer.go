package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
)

// Renderer renders named templates with the shared helper locals merged into
// the data context.
type Renderer struct {
	cache  *Cache
	locals map[string]interface{}
}

func NewRenderer(cache *Cache) *Renderer {
	return &Renderer{cache: cache, locals: make(map[string]interface{})}
}

// AddLocal makes a helper available to every render under the given name.
// Locals never overwrite a key already present in a template's data.
func (r *Renderer) AddLocal(name string, value interface{}) {
	r.locals[name] = value
}

// Partial renders the named template against the given search directories.
// Template names carry an implicit .html extension.
//
// If data has no "partial" key, one is set to a function rendering
// sub-templates against the same directories, so templates can include each
// other by name.  Shared locals are merged in afterwards; keys already
// present in data always win.
func (r *Renderer) Partial(name string, data map[string]interface{}, dirs ...string) (result string, err error) {
	var env *Environment
	env, err = r.cache.Environment(dirs...)
	if err != nil {
		return "", err
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	if _, ok := data["partial"]; !ok {
		data["partial"] = func(sub string) *pongo2.Value {
			var out, err = r.Partial(sub, nil, dirs...)
			if err != nil {
				panic(err)
			}
			return pongo2.AsSafeValue(out)
		}
	}
	for k, v := range r.locals {
		if _, ok := data[k]; !ok {
			data[k] = v
		}
	}

	var tmpl *pongo2.Template
	tmpl, err = env.set.FromCache(templateName(name))
	if err != nil {
		return "", err
	}
	defer errRecover(&err)
	return tmpl.Execute(pongo2.Context(data))
}

// Render renders the named template and writes the result to the sink
// unmodified.
func (r *Renderer) Render(w io.Writer, name string, info map[string]interface{}, dirs ...string) error {
	var out, err = r.Partial(name, info, dirs...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func templateName(name string) string {
	if filepath.Ext(name) == "" {
		return name + ".html"
	}
	return name
}

// errRecover turns a panic raised by a nested partial back into an error
// from the outer render.
func errRecover(errp *error) {
	var e = recover()
	if e != nil {
		if err, ok := e.(error); ok {
			*errp = err
			return
		}
		*errp = fmt.Errorf("%v", e)
	}
}
