// internal/storage/manifest.go
// Package: storage
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest describes a finished session next to its summaries.
type Manifest struct {
	ID         string    `yaml:"id"`
	URL        string    `yaml:"url"`
	Provider   string    `yaml:"provider"`
	Runs       int       `yaml:"runs"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	// MedianRun is 0 when no run matched the median score.
	MedianRun   int      `yaml:"median_run"`
	MedianScore float64  `yaml:"median_score,omitempty"`
	Files       []string `yaml:"files"`
}

// ManifestName is the manifest file name of the session.
func (a *Area) ManifestName() string { return a.Name + ".yaml" }

// WriteManifest stores m as <name>.yaml.
func (a *Area) WriteManifest(m Manifest) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return a.WriteFile(a.ManifestName(), b)
}

// ReadManifest loads the session manifest.
func (a *Area) ReadManifest() (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(a.Dir(), a.ManifestName()))
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// SessionInfo is one row of a session listing.
type SessionInfo struct {
	Name     string
	Manifest Manifest
}

// ListSessions returns every session-layout area under root that carries a
// manifest, sorted by name. A missing root yields no sessions.
func ListSessions(root string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	var out []SessionInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		a := &Area{Root: root, Name: e.Name(), Layout: LayoutSession}
		m, err := a.ReadManifest()
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", e.Name(), err)
		}
		out = append(out, SessionInfo{Name: e.Name(), Manifest: m})
	}
	return out, nil
}
