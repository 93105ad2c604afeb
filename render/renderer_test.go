package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return NewRenderer(newTestCache(t))
}

func TestPartialRendersSubTemplates(t *testing.T) {
	var r = newTestRenderer(t)
	var out, err = r.Partial("page", map[string]interface{}{"title": "Hi"})
	if err != nil {
		t.Fatal(err)
	}
	var expected = "<h1>Hi</h1>\n<p>included</p>"
	if strings.TrimSpace(out) != expected {
		t.Errorf("output mismatch:\n%s", diff.LineDiff(expected, strings.TrimSpace(out)))
	}
}

func TestPartialNilData(t *testing.T) {
	var r = newTestRenderer(t)
	r.AddLocal("greeting", "Hello")
	var out, err = r.Partial("shared", nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Hello from shared" {
		t.Errorf("got %q", out)
	}
}

func TestLocalsDoNotClobberData(t *testing.T) {
	var r = newTestRenderer(t)
	r.AddLocal("greeting", "framework default")
	var out, err = r.Partial("shared", map[string]interface{}{"greeting": "mine"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "mine from shared" {
		t.Errorf("explicit data must win over locals, got %q", out)
	}
}

func TestPartialKeepsCallerSuppliedPartial(t *testing.T) {
	var r = newTestRenderer(t)
	var called = false
	var data = map[string]interface{}{
		"title": "Hi",
		"partial": func(name string) string {
			called = true
			return "[" + name + "]"
		},
	}
	var out, err = r.Partial("page", data)
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("caller-supplied partial was not used")
	}
	if !strings.Contains(out, "[sub]") {
		t.Errorf("got %q", out)
	}
}

func TestSearchOrderPrefersListedDirectories(t *testing.T) {
	var r = newTestRenderer(t)
	var out, err = r.Partial("override", nil, "testdata/extra")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "extra wins" {
		t.Errorf("got %q", out)
	}

	// Without the extra directory the baseline copy resolves.
	out, err = r.Partial("override", nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "views wins" {
		t.Errorf("got %q", out)
	}
}

func TestPartialExplicitExtension(t *testing.T) {
	var r = newTestRenderer(t)
	var out, err = r.Partial("sub.html", nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "<p>included</p>" {
		t.Errorf("got %q", out)
	}
}

func TestPartialTemplateNotFound(t *testing.T) {
	var r = newTestRenderer(t)
	if _, err := r.Partial("no-such-template", nil); err == nil {
		t.Error("expected an error for a missing template")
	}
}

func TestRenderWritesToSink(t *testing.T) {
	var r = newTestRenderer(t)
	var buf bytes.Buffer
	if err := r.Render(&buf, "sub", nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "<p>included</p>" {
		t.Errorf("got %q", buf.String())
	}
}

func TestNestedPartialErrorSurfaces(t *testing.T) {
	var r = newTestRenderer(t)
	// page.html calls partial("sub"); make that call blow up.
	var data = map[string]interface{}{
		"title": "Hi",
		"partial": func(name string) string {
			panic("boom: " + name)
		},
	}
	var _, err = r.Partial("page", data)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected the nested panic surfaced as an error, got %v", err)
	}
}
