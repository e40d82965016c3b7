// internal/faces/faces.go
//
// Card-face pool for the memory board.
//
// Responsibilities:
//   - Load face labels from a configured file or fall back to the embedded defaults.
//   - Expose the pool size used to validate and generate decks.
//   - Name a card identifier for renderers.
//
// File format:
//   One label per line; blank lines and lines starting with '#' are skipped.
//   Duplicate labels are dropped, keeping the first occurrence.
//   The line order (after filtering) is the card identifier.
//
// Environment variables (via config):
//   FACES_FILE=/path/to/faces.txt

package faces

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed default_faces.txt
var embeddedFaces string

// ErrEmpty is returned when a face list has no usable labels.
var ErrEmpty = errors.New("faces: list is empty")

// Pool is an immutable, ordered set of card-face labels.
type Pool struct {
	labels []string
}

// Load reads the pool from path, or from the embedded defaults when path is empty.
func Load(path string) (*Pool, error) {
	if path == "" {
		return parse(strings.NewReader(embeddedFaces))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open faces file: %w", err)
	}
	defer f.Close()
	return parse(f)
}

// Default returns the embedded pool.
func Default() *Pool {
	p, err := parse(strings.NewReader(embeddedFaces))
	if err != nil {
		panic(err)
	}
	return p
}

func parse(r io.Reader) (*Pool, error) {
	seen := make(map[string]struct{})
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		s = strings.ToLower(s)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return &Pool{labels: out}, nil
}

// Count is the number of distinct faces (the deck pool size).
func (p *Pool) Count() int { return len(p.labels) }

// Label names card id, or "?" when id is outside the pool.
func (p *Pool) Label(id int) string {
	if id < 0 || id >= len(p.labels) {
		return "?"
	}
	return p.labels[id]
}

// Labels returns a copy of every label, indexed by card id.
func (p *Pool) Labels() []string {
	out := make([]string, len(p.labels))
	copy(out, p.labels)
	return out
}
