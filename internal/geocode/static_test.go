package geocode

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.json")
	data := `{"Baikonur": {"lat": 45.9, "lon": 63.3}, "Cape Canaveral": {"lat": 28.39, "lon": -80.6}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadStatic(path)
	if err != nil {
		t.Fatalf("LoadStatic: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("len = %d, want 2", len(table))
	}

	r := NewResolver(table)
	coord, ok, err := r.Resolve(context.Background(), "Cape Canaveral")
	if err != nil || !ok {
		t.Fatalf("Resolve = (%v, %v, %v)", coord, ok, err)
	}
	if coord.Lat != 28.39 || coord.Lon != -80.6 {
		t.Errorf("coordinate = %+v", coord)
	}

	if _, ok, _ := r.Resolve(context.Background(), "Vandenberg"); ok {
		t.Error("unknown name should resolve as absent")
	}
}

func TestLoadStatic_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("not json"), 0o644)

	if _, err := LoadStatic(bad); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadStatic(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected read error")
	}
}
