package apostrophe

import (
	"github.com/danielmahon/apostrophe/push"
	"github.com/danielmahon/apostrophe/render"
)

// Site is the process-wide assembly of the push registries and the template
// renderer.  Construct one at startup with New and inject it into request
// handling; per-request state lives in a push.Scene, not here.
type Site struct {
	Push   *push.Registry
	Render *render.Renderer
}

// Builder configures a Site.
type Builder struct {
	viewDir string
	watch   bool
	build   render.FilterFunc
	locals  map[string]interface{}
}

// New returns a Builder with the default baseline view directory, "views".
func New() *Builder {
	return &Builder{viewDir: "views", locals: make(map[string]interface{})}
}

// ViewDir sets the baseline view directory, searched last by every template
// environment.
func (b *Builder) ViewDir(dir string) *Builder {
	b.viewDir = dir
	return b
}

// Watch enables development-mode template watching: edits under any searched
// directory cause templates to be recompiled on the next render.
func (b *Builder) Watch(watch bool) *Builder {
	b.watch = watch
	return b
}

// BuildFilter replaces the default implementation of the "build" template
// filter.
func (b *Builder) BuildFilter(fn render.FilterFunc) *Builder {
	b.build = fn
	return b
}

// Local makes a helper available to every rendered template.  Locals never
// overwrite keys a template's own data already carries.
func (b *Builder) Local(name string, value interface{}) *Builder {
	b.locals[name] = value
	return b
}

// Build wires the Site: the push registry with its baseline registrations,
// and the renderer over a fresh environment cache.
func (b *Builder) Build() (*Site, error) {
	var opts = []render.Option{render.WithWatch(b.watch)}
	if b.build != nil {
		opts = append(opts, render.WithBuildFilter(b.build))
	}
	var cache, err = render.NewCache(b.viewDir, opts...)
	if err != nil {
		return nil, err
	}
	var renderer = render.NewRenderer(cache)
	for name, value := range b.locals {
		renderer.AddLocal(name, value)
	}
	return &Site{
		Push:   push.NewRegistry(),
		Render: renderer,
	}, nil
}

// ScriptBlocks flushes one request's accumulated calls and data together
// with the global registrations matching the given activation condition.
// The returned blocks are ready to embed verbatim inside the page's inline
// script context: "calls", "globalCalls", "data" and "globalData".
func (s *Site) ScriptBlocks(scene *push.Scene, when string) (map[string]string, error) {
	var blocks = make(map[string]string, 4)
	var err error
	if blocks["calls"], err = scene.Calls(); err != nil {
		return nil, err
	}
	if blocks["globalCalls"], err = s.Push.GlobalCallsWhen(when); err != nil {
		return nil, err
	}
	if blocks["data"], err = scene.Data(); err != nil {
		return nil, err
	}
	if blocks["globalData"], err = s.Push.GlobalData(); err != nil {
		return nil, err
	}
	return blocks, nil
}
