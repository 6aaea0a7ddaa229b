// internal/provider/provider.go
// Package: provider
package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mwiater/lhmedian/internal/metrics"
)

var (
	// ErrMissingScore means the engine produced no performance score.
	ErrMissingScore = errors.New("performance score missing")
	// ErrMissingAudit means one of the required audits is absent.
	ErrMissingAudit = errors.New("required audit missing")
	// ErrUnknownProvider is returned by Registry.Get.
	ErrUnknownProvider = errors.New("unknown provider")
)

// MissingScorePolicy decides what happens when a score is absent.
type MissingScorePolicy string

const (
	MissingScoreError MissingScorePolicy = "error"
	MissingScoreZero  MissingScorePolicy = "zero"
)

// ParseMissingScorePolicy accepts "error" (or empty) and "zero".
func ParseMissingScorePolicy(s string) (MissingScorePolicy, error) {
	switch MissingScorePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingScoreError:
		return MissingScoreError, nil
	case MissingScoreZero:
		return MissingScoreZero, nil
	default:
		return "", fmt.Errorf("unknown missing score policy %q (want error or zero)", s)
	}
}

// Request is one measurement of one URL.
type Request struct {
	URL    string
	Run    int
	Cookie string // sent as the Cookie header when non-empty
}

// Artifact is the raw report of a run, stored as <name>-<run><Ext>.
type Artifact struct {
	Data []byte
	Ext  string
}

// Result is what a provider returns for a successful run.
type Result struct {
	Record   metrics.Record
	Artifact Artifact
}

// Provider performs a single page-load performance measurement. Each call
// must be independent of the previous one.
type Provider interface {
	Name() string
	Measure(ctx context.Context, req Request) (Result, error)
}

// Func adapts a plain function to Provider.
type Func struct {
	ID string
	Fn func(ctx context.Context, req Request) (Result, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Measure(ctx context.Context, req Request) (Result, error) {
	return f.Fn(ctx, req)
}

// Factory builds a provider on demand.
type Factory func() (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Get builds the named provider.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
	}
	return f()
}

// Names lists registered providers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
