package assets

import (
	"io/fs"
	"strings"
	"testing"
)

func TestWebFiles(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "style.css"} {
		b, err := fs.ReadFile(Web(), name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(b) == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
	idx, _ := fs.ReadFile(Web(), "index.html")
	if !strings.Contains(string(idx), "/static/app.js") {
		t.Fatal("index.html does not load the client script")
	}
}
