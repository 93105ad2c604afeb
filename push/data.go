package push

import (
	"bytes"
	"fmt"
)

// The data flush always begins with a guard that creates the shared
// client-side namespace if the page has not loaded it yet.
const dataGuard = `  if (typeof apos === "undefined") { apos = {}; }
  apos.data = apos.data || {};`

// PushData registers a data fragment to be merged into the shared client
// namespace for this request's page.
func (s *Scene) PushData(datum interface{}) {
	s.data = append(s.data, datum)
}

// Data emits the namespace guard followed by one deep-merge call per
// registered fragment, in registration order.  Later fragments win on key
// conflicts; nested objects merge key by key while arrays and scalars are
// replaced wholesale.  The merge itself runs client side via apos.merge,
// defined in lib/runtime.js, so each fragment stays an independently
// serialized unit.
func (s *Scene) Data() (string, error) {
	return compileData(s.data)
}

// PushGlobalData registers a data fragment merged into every page's shared
// namespace.  Append-only, process lifetime.
func (r *Registry) PushGlobalData(datum interface{}) {
	r.mu.Lock()
	r.globalData = append(r.globalData, datum)
	r.mu.Unlock()
}

// GlobalData flushes the process-wide data fragments.  See Scene.Data for
// the emitted format.
func (r *Registry) GlobalData() (string, error) {
	r.mu.Lock()
	var data = r.globalData
	r.mu.Unlock()
	return compileData(data)
}

func compileData(data []interface{}) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(dataGuard)
	for i, datum := range data {
		var enc, err = marshalJS(datum)
		if err != nil {
			return "", fmt.Errorf("push: data fragment %d: %v", i, err)
		}
		buf.WriteString("\n  apos.merge(apos.data, ")
		buf.WriteString(enc)
		buf.WriteString(");")
	}
	return buf.String(), nil
}
