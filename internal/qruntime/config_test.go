package qruntime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreSane(t *testing.T) {
	d := Defaults()
	if d.ValstackMax <= 0 || d.MaxCCallDepth <= 0 || d.PrototypeChainSanity <= 0 {
		t.Fatalf("unexpected zero/negative default: %+v", d)
	}
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	if err := os.WriteFile(path, []byte("max_c_call_depth: 50\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if l.MaxCCallDepth != 50 {
		t.Fatalf("expected override to 50, got %d", l.MaxCCallDepth)
	}
	if l.ValstackMax != Defaults().ValstackMax {
		t.Fatalf("expected untouched field to keep default, got %d", l.ValstackMax)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
