package push

import (
	"os"
	"strings"
	"testing"

	"github.com/robertkrimen/otto"
)

func TestSceneCallsEmpty(t *testing.T) {
	var s Scene
	var out, err = s.Calls()
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("expected empty flush, got %q", out)
	}
}

func TestSceneCallsPreserveOrder(t *testing.T) {
	var s Scene
	s.PushCall("first(?)", 1)
	s.PushCall("second(?)", 2)
	s.PushCall("third(?)", 3)
	var out, err = s.Calls()
	if err != nil {
		t.Fatal(err)
	}
	var lines = strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), out)
	}
	var expected = []string{"  first(1);", "  second(2);", "  third(3);"}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, expected[i], line)
		}
	}
}

func TestSceneCallsIdempotent(t *testing.T) {
	var s Scene
	s.PushCall("f(?)", map[string]interface{}{"age": 57})
	var first, err = s.Calls()
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Calls()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("flush is not idempotent:\n%q\n%q", first, second)
	}
}

func TestSceneCallsBadRegistrationFailsAtFlush(t *testing.T) {
	var s Scene
	s.PushCall("f(?)") // missing argument
	var _, err = s.Calls()
	if err == nil {
		t.Error("expected a contract-violation error")
	}
}

func TestRegistryBaselineRegistrations(t *testing.T) {
	var r = NewRegistry()
	var user, err = r.GlobalCallsWhen("user")
	if err != nil {
		t.Fatal(err)
	}
	if user != "  apos.enableAreas();" {
		t.Errorf("user flush: got %q", user)
	}
	always, err := r.GlobalCallsWhen("always")
	if err != nil {
		t.Fatal(err)
	}
	if always != "  apos.enablePlayers();" {
		t.Errorf("always flush: got %q", always)
	}
}

func TestRegistryUnknownConditionFlushesEmpty(t *testing.T) {
	var r = NewRegistry()
	var out, err = r.GlobalCallsWhen("nobody-ever-registered-this")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("expected empty flush, got %q", out)
	}
}

func TestRegistryGlobalCallsAccumulate(t *testing.T) {
	var r = NewRegistry()
	r.PushGlobalCallWhen("always", "analytics.page(?)", "/home")
	var out, err = r.GlobalCallsWhen("always")
	if err != nil {
		t.Fatal(err)
	}
	var expected = "  apos.enablePlayers();\n" + `  analytics.page("/home");`
	if out != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, out)
	}
}

// initJS returns an otto vm with the client runtime support loaded, the same
// runtime a page loads before its inline flush blocks.
func initJS(t *testing.T) *otto.Otto {
	t.Helper()
	var runtime, err = os.ReadFile("lib/runtime.js")
	if err != nil {
		t.Fatal(err)
	}
	var vm = otto.New()
	if _, err := vm.Run(string(runtime)); err != nil {
		t.Fatalf("runtime.js: %v", err)
	}
	return vm
}

// Evaluating a calls flush must invoke the named functions in registration
// order with the substituted arguments.
func TestCallsExecuteInOrder(t *testing.T) {
	var s Scene
	s.PushCall("register(?, ?)", "widgets", 2)
	s.PushCall("new @(?)", "Editor", map[string]interface{}{"live": true})
	s.PushCall("register(?, ?)", "players", 3)
	var out, err = s.Calls()
	if err != nil {
		t.Fatal(err)
	}

	var vm = initJS(t)
	_, err = vm.Run(`
		var log = [];
		function register(name, n) { log.push(name + ":" + n); }
		function Editor(options) { log.push("editor:" + options.live); }
	`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Run(out); err != nil {
		t.Fatalf("flush did not evaluate: %v\n%s", err, out)
	}
	var logged, _ = vm.Run(`log.join(" ")`)
	var expected = "widgets:2 editor:true players:3"
	if logged.String() != expected {
		t.Errorf("expected %q, got %q", expected, logged.String())
	}
}
