package faces

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPool(t *testing.T) {
	p := Default()
	if p.Count() != 18 {
		t.Fatalf("expected 18 default faces, got %d", p.Count())
	}
	if p.Label(0) != "apple" {
		t.Errorf("Label(0) = %q", p.Label(0))
	}
	if p.Label(-1) != "?" || p.Label(18) != "?" {
		t.Error("out-of-range labels should be ?")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Count() != Default().Count() {
		t.Fatalf("count = %d", p.Count())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.txt")
	body := "# comment\n\nSun\nmoon\nsun\n  star  \n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Count() != 3 {
		t.Fatalf("expected 3 faces, got %d", p.Count())
	}
	if p.Label(2) != "star" {
		t.Errorf("Label(2) = %q", p.Label(2))
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.txt")
	if err := os.WriteFile(path, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
