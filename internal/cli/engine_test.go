package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-gs1/fm"
)

func TestEngineFlagsDefaults(t *testing.T) {
	var ef EngineFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	ef.Register(fs)
	if err := fs.Parse([]string{"-patch", "1", "-routing2", "cross"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	e, err := ef.Engine()
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	if id, _ := e.Patch(); id != 1 {
		t.Fatalf("unexpected patch: got=%d want=%d", id, 1)
	}
	if r := e.Routing(); r[0] != fm.RoutingNorm || r[1] != fm.RoutingCross {
		t.Fatalf("unexpected routing: %v", r)
	}
}

func TestEngineFlagsPatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	if err := os.WriteFile(path, []byte(`{"id": 4, "name": "Mine"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ef := EngineFlags{PatchFile: path, Routing1: "pi", Routing2: "norm"}
	e, err := ef.Engine()
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	id, p := e.Patch()
	if id != 4 || p.Name != "Mine" {
		t.Fatalf("expected patch file selected: id=%d name=%q", id, p.Name)
	}
}

func TestEngineFlagsRejectsBadRouting(t *testing.T) {
	ef := EngineFlags{Routing1: "sideways"}
	if _, err := ef.Engine(); err == nil {
		t.Fatalf("expected routing error")
	}
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys(" 40, 44,47 ,")
	if err != nil {
		t.Fatalf("ParseKeys: %v", err)
	}
	if len(keys) != 3 || keys[0] != 40 || keys[2] != 47 {
		t.Fatalf("unexpected keys: %v", keys)
	}
	for _, bad := range []string{"", "x", "0", "89", ","} {
		if _, err := ParseKeys(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
