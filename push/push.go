/*
Package push accumulates browser-side calls and data during request handling
and flushes them as blocks of client script for the page skeleton to embed.

Registrations are scoped two ways.  A Scene belongs to a single request and
collects calls and data pushed while that request is handled.  A Registry is
process-wide: its entries are registered at startup, keyed by an activation
condition ("always", "user", ...), and flushed into every page that matches.

Flushing never clears: the same Scene or Registry can be flushed repeatedly
and produces the same script block each time.
*/
package push

import (
	"strings"
	"sync"
)

type call struct {
	pattern string
	args    []interface{}
}

// Registry holds the process-wide call and data registrations.  It is
// constructed once at startup and shared by all requests; registration and
// flushing are safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	globalCalls map[string][]call
	globalData  []interface{}
}

// NewRegistry returns a Registry carrying the baseline framework
// registrations: editable areas activate when a user is present, and media
// players activate on every page.
func NewRegistry() *Registry {
	var r = &Registry{globalCalls: make(map[string][]call)}
	r.PushGlobalCallWhen("user", "apos.enableAreas()")
	r.PushGlobalCallWhen("always", "apos.enablePlayers()")
	return r
}

// PushGlobalCallWhen registers a call under the given activation condition.
// Entries accumulate for the life of the process and are never removed.
func (r *Registry) PushGlobalCallWhen(when, pattern string, args ...interface{}) {
	r.mu.Lock()
	r.globalCalls[when] = append(r.globalCalls[when], call{pattern, args})
	r.mu.Unlock()
}

// GlobalCallsWhen compiles every call registered under the given condition,
// in registration order, one line per call.  Unknown conditions flush to the
// empty string.
func (r *Registry) GlobalCallsWhen(when string) (string, error) {
	r.mu.Lock()
	var calls = r.globalCalls[when]
	r.mu.Unlock()
	return compileCalls(calls)
}

// Scene carries the registrations made while handling one request.  It is
// owned exclusively by that request and must not be shared across requests.
// The zero value is ready to use.
type Scene struct {
	calls []call
	data  []interface{}
}

// PushCall registers a call to be included in this request's page.
func (s *Scene) PushCall(pattern string, args ...interface{}) {
	s.calls = append(s.calls, call{pattern, args})
}

// Calls compiles this request's calls, in registration order, one line per
// call.  A Scene with no calls flushes to the empty string.
func (s *Scene) Calls() (string, error) {
	return compileCalls(s.calls)
}

func compileCalls(calls []call) (string, error) {
	if len(calls) == 0 {
		return "", nil
	}
	var lines = make([]string, len(calls))
	for i, c := range calls {
		var line, err = Compile(c.pattern, c.args...)
		if err != nil {
			return "", err
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n"), nil
}
