package migrate

import (
	"testing"
	"testing/fstest"
)

func TestFilesOrdersSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"002_cache.sql":     {Data: []byte("SELECT 1;")},
		"001_init.sql":      {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("notes")},
		"archive/000.sql":   {Data: []byte("SELECT 1;")},
		"010_add_index.sql": {Data: []byte("SELECT 1;")},
	}
	got, err := Files(fsys)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"001_init.sql", "002_cache.sql", "010_add_index.sql"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFilesEmpty(t *testing.T) {
	if _, err := Files(fstest.MapFS{}); err != nil {
		t.Fatalf("empty fs should list nothing, got %v", err)
	}
}
