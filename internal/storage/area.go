// internal/storage/area.go
// Package: storage
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Layout decides where a session's files live.
type Layout string

const (
	// LayoutSession keeps every session in <root>/<name>/.
	LayoutSession Layout = "session"
	// LayoutFlat writes all sessions directly into <root>/.
	LayoutFlat Layout = "flat"
)

// ParseLayout accepts "session" (or empty) and "flat".
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutSession:
		return LayoutSession, nil
	case LayoutFlat:
		return LayoutFlat, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want session or flat)", s)
	}
}

// ErrInvalidName is returned for session names that would escape the root.
var ErrInvalidName = errors.New("invalid session name")

// Area is the on-disk home of one named session.
type Area struct {
	Root   string // reports directory
	Name   string // session name, also the file base name
	Layout Layout
}

// NewArea validates name and returns an Area.
func NewArea(root, name string, layout Layout) (*Area, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if layout == "" {
		layout = LayoutSession
	}
	return &Area{Root: root, Name: name, Layout: layout}, nil
}

// Dir is the directory the session's files are written to.
func (a *Area) Dir() string {
	if a.Layout == LayoutFlat {
		return a.Root
	}
	return filepath.Join(a.Root, a.Name)
}

// Reset clears previous output of this session. In the session layout the
// whole directory is recreated; in the flat layout only files owned by the
// session are removed.
func (a *Area) Reset() error {
	if a.Layout != LayoutFlat {
		dir := a.Dir()
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		return nil
	}

	if err := os.MkdirAll(a.Root, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", a.Root, err)
	}
	files, err := a.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(filepath.Join(a.Root, f)); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return nil
}

// RunFileName is the artifact name of a single run, e.g. site-3.html.
func (a *Area) RunFileName(run int, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s-%d%s", a.Name, run, ext)
}

// WriteRun stores the raw artifact of a run and returns its path.
func (a *Area) WriteRun(run int, ext string, data []byte) (string, error) {
	name := a.RunFileName(run, ext)
	if err := a.WriteFile(name, data); err != nil {
		return "", err
	}
	return filepath.Join(a.Dir(), name), nil
}

// WriteFile stores data under name inside Dir.
func (a *Area) WriteFile(name string, data []byte) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("%w: file %q", ErrInvalidName, name)
	}
	p := filepath.Join(a.Dir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Files lists, sorted, the files in Dir that belong to this session.
func (a *Area) Files() ([]string, error) {
	entries, err := os.ReadDir(a.Dir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.Dir(), err)
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[e.Name()] = true
		}
	}
	owned := ownedPattern(a.Name)
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if a.Layout == LayoutFlat && !ownsFlat(owned, e.Name(), present) {
			continue
		}
		out = append(out, e.Name())
	}
	slices.Sort(out)
	return out, nil
}

// ownedPattern matches <name>-<n>.<ext>, capturing the <name>-<n> stem, and
// the session summaries.
func ownedPattern(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`^(?:(` + q + `-[0-9]+)\.[A-Za-z0-9]+|` + q + `\.(?:csv|txt|json|yaml))$`)
}

// ownsFlat reports whether file belongs to the session in a shared
// directory. A run artifact name such as release-2.csv is also the summary
// of a session named release-2; it stays with that session when one of its
// manifest or delimited summaries is present.
func ownsFlat(owned *regexp.Regexp, file string, present map[string]bool) bool {
	m := owned.FindStringSubmatch(file)
	if m == nil {
		return false
	}
	stem := m[1]
	if stem == "" {
		return true
	}
	for _, ext := range []string{".yaml", ".csv", ".txt"} {
		if present[stem+ext] {
			return false
		}
	}
	return true
}
