package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// FilterFunc is the engine's filter signature.
type FilterFunc = pongo2.FilterFunction

// The filter table is engine-wide, so the shared filter set is registered
// exactly once, triggered by the first cache construction.
var filtersOnce sync.Once

var buildFn FilterFunc = filterBuild

func setBuildFilter(fn FilterFunc) {
	if fn != nil {
		buildFn = fn
	}
}

func ensureFilters() {
	filtersOnce.Do(func() {
		// The engine ships its own "date"; ours takes a Go reference layout.
		must(pongo2.ReplaceFilter("date", filterDate))
		must(pongo2.RegisterFilter("query", filterQuery))
		must(pongo2.RegisterFilter("q", filterQuery))
		must(pongo2.RegisterFilter("json", filterJSON))
		must(pongo2.RegisterFilter("build", func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return buildFn(in, param)
		}))
		must(pongo2.RegisterFilter("stripTags", filterStripTags))
		must(pongo2.RegisterFilter("nlbr", filterNlbr))
		must(pongo2.RegisterFilter("css", filterCSS))
		must(pongo2.RegisterFilter("truncate", filterTruncate))
		must(pongo2.RegisterFilter("jsonAttribute", filterJSONAttribute))
	})
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func filterError(sender string, err error) *pongo2.Error {
	return &pongo2.Error{Sender: "filter:" + sender, OrigError: err}
}

const defaultDateLayout = "January 2, 2006"

// filterDate formats a date value.  The input may be a time.Time, epoch
// seconds, or a string in any recognizable date format; the parameter is a
// Go reference layout, defaulting to "January 2, 2006".
func filterDate(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var t time.Time
	switch v := in.Interface().(type) {
	case time.Time:
		t = v
	case *time.Time:
		t = *v
	case int:
		t = time.Unix(int64(v), 0).UTC()
	case int64:
		t = time.Unix(v, 0).UTC()
	case float64:
		t = time.Unix(int64(v), 0).UTC()
	case string:
		var parsed, err = dateparse.ParseAny(v)
		if err != nil {
			return nil, filterError("date", err)
		}
		t = parsed
	default:
		return nil, filterError("date", fmt.Errorf("cannot interpret %T as a date", v))
	}
	var layout = defaultDateLayout
	if !param.IsNil() {
		layout = param.String()
	}
	return pongo2.AsValue(t.Format(layout)), nil
}

// filterQuery encodes a map as a URL query string.  Registered under both
// "query" and "q".
func filterQuery(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var values = url.Values{}
	switch m := in.Interface().(type) {
	case url.Values:
		values = m
	case map[string]string:
		for k, v := range m {
			values.Set(k, v)
		}
	case map[string]interface{}:
		for k, v := range m {
			values.Set(k, fmt.Sprintf("%v", v))
		}
	default:
		return nil, filterError("query", fmt.Errorf("cannot encode %T as a query string", m))
	}
	return pongo2.AsValue(values.Encode()), nil
}

// filterJSON emits the input as JSON, unescaped: the output is intended for
// script blocks, not element content.
func filterJSON(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var enc, err = marshalJS(in.Interface())
	if err != nil {
		return nil, filterError("json", err)
	}
	return pongo2.AsSafeValue(enc), nil
}

// filterBuild is the default "build" transform: it merges a map of query
// parameters onto a URL.  Later values win; empty or nil values remove the
// key.  A different implementation may be supplied via WithBuildFilter.
func filterBuild(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var u, err = url.Parse(in.String())
	if err != nil {
		return nil, filterError("build", err)
	}
	var params, ok = param.Interface().(map[string]interface{})
	if !ok {
		return nil, filterError("build", fmt.Errorf("build requires a map parameter, got %T", param.Interface()))
	}
	var values = u.Query()
	for k, v := range params {
		if v == nil || v == "" {
			values.Del(k)
			continue
		}
		values.Set(k, fmt.Sprintf("%v", v))
	}
	u.RawQuery = values.Encode()
	return pongo2.AsValue(u.String()), nil
}

var strictHTML = bluemonday.StrictPolicy()

func filterStripTags(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strictHTML.Sanitize(in.String())), nil
}

var newlinePattern = regexp.MustCompile(`\r\n|\r|\n`)

// filterNlbr escapes the input and converts newlines to <br /> tags.
func filterNlbr(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var escaped = template.HTMLEscapeString(in.String())
	return pongo2.AsSafeValue(newlinePattern.ReplaceAllString(escaped, "<br />")), nil
}

// filterCSS converts a camelCase or spaced name to a hyphenated lowercase
// CSS identifier: "fooBar baz" becomes "foo-bar-baz".
func filterCSS(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var out []rune
	var pendingDash = false
	for _, r := range in.String() {
		switch {
		case unicode.IsUpper(r):
			pendingDash = len(out) > 0
			if pendingDash {
				out = append(out, '-')
				pendingDash = false
			}
			out = append(out, unicode.ToLower(r))
		case r == ' ' || r == '_' || r == '-':
			if len(out) > 0 {
				pendingDash = true
			}
		default:
			if pendingDash {
				out = append(out, '-')
				pendingDash = false
			}
			out = append(out, r)
		}
	}
	return pongo2.AsValue(string(out)), nil
}

// filterTruncate shortens plaintext to the given length, appending an
// ellipsis and never splitting a multibyte rune.
func filterTruncate(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var str = in.String()
	var maxLen = param.Integer()
	if maxLen <= 0 || len(str) <= maxLen {
		return in, nil
	}
	var ellipsis = true
	if maxLen > 3 {
		maxLen -= 3
	} else {
		ellipsis = false
	}
	for !utf8.RuneStart(str[maxLen]) {
		maxLen--
	}
	str = str[:maxLen]
	if ellipsis {
		str += "..."
	}
	return pongo2.AsValue(str), nil
}

// filterJSONAttribute encodes a value as JSON suitable for an HTML
// attribute.  Objects and lists are JSON-encoded then escaped; anything else
// is coerced to a string first.
func filterJSONAttribute(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var text string
	var v = reflect.ValueOf(in.Interface())
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		var enc, err = json.Marshal(in.Interface())
		if err != nil {
			return nil, filterError("jsonAttribute", err)
		}
		text = string(enc)
	default:
		text = in.String()
	}
	return pongo2.AsSafeValue(template.HTMLEscapeString(text)), nil
}

// marshalJS json-encodes v without HTML escaping, for script contexts.
func marshalJS(v interface{}) (string, error) {
	var buf bytes.Buffer
	var enc = json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
