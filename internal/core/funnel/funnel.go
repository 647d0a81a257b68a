package funnel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shopsight-lab/shopsight/internal/core/rollup"
)

// Stage is one step of a funnel. An actor passes the stage when it has
// at least one event with the stage's name (and matching property, if set)
// inside the report window.
type Stage struct {
	Label string
	Event string
	Match *PropertyMatch
}

// PropertyMatch narrows a stage to events whose property equals a value.
// Comparison is on the property's string form.
type PropertyMatch struct {
	Property string
	Equals   string
}

// Funnel is an ordered sequence of stages. Stage order is significant:
// conversion is measured as progressive narrowing from the first stage.
type Funnel struct {
	Name   string
	Stages []Stage
}

// rawFunnel is the on-disk YAML shape. Each file defines exactly one funnel.
type rawFunnel struct {
	Name   string     `yaml:"name"`
	Stages []rawStage `yaml:"stages"`
}

type rawStage struct {
	Label string `yaml:"label"`
	Event string `yaml:"event"`
	Match *struct {
		Property string `yaml:"property"`
		Equals   string `yaml:"equals"`
	} `yaml:"match"`
}

// DefaultCheckout is the funnel every deployment gets without any
// configuration: product view through completed order.
func DefaultCheckout() Funnel {
	return Funnel{
		Name: "checkout",
		Stages: []Stage{
			{Label: "Viewed product", Event: rollup.EventProductViewed},
			{Label: "Added to cart", Event: rollup.EventCartItemAdded},
			{Label: "Started checkout", Event: rollup.EventCheckoutStarted},
			{Label: "Completed order", Event: rollup.EventOrderCompleted},
		},
	}
}

// FunnelRepository defines the read interface over loaded funnels.
type FunnelRepository interface {
	// Get returns the funnel with the given name, or an error if not found.
	Get(name string) (*Funnel, error)

	// GetFunnels returns all funnels as a slice.
	GetFunnels() []Funnel
}

// FileSystemFunnelRepository loads funnels from *.yaml files in a directory.
// The built-in checkout funnel is always present; a file with the same name
// replaces it. Funnels are loaded once at startup and cached in memory.
type FileSystemFunnelRepository struct {
	dir     string
	funnels map[string]Funnel // keyed by Name
	order   []string          // load order, defaults first
}

// NewFileSystemFunnelRepository creates a new repository and eagerly loads
// all funnels from dir. Returns an error if any funnel file is malformed.
// An empty or missing dir yields just the built-in funnel.
func NewFileSystemFunnelRepository(dir string) (*FileSystemFunnelRepository, error) {
	repo := &FileSystemFunnelRepository{
		dir:     dir,
		funnels: make(map[string]Funnel),
	}
	def := DefaultCheckout()
	repo.funnels[def.Name] = def
	repo.order = append(repo.order, def.Name)

	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemFunnelRepository) load() error {
	if r.dir == "" {
		return nil
	}
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no funnel directory, built-in only
	}
	if err != nil {
		return fmt.Errorf("funnel dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("funnel path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading funnel dir: %w", err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading funnel file %s: %w", path, err)
		}

		var raw rawFunnel
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing funnel file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		if seen[raw.Name] {
			return fmt.Errorf("funnel %q: duplicate funnel name (check multiple YAML files)", raw.Name)
		}
		seen[raw.Name] = true

		f, err := buildFunnel(raw)
		if err != nil {
			return fmt.Errorf("funnel file %s: %w", path, err)
		}

		if _, replacing := r.funnels[f.Name]; !replacing {
			r.order = append(r.order, f.Name)
		}
		r.funnels[f.Name] = f
	}
	return nil
}

func buildFunnel(raw rawFunnel) (Funnel, error) {
	if len(raw.Stages) < 2 {
		return Funnel{}, fmt.Errorf("funnel %q: needs at least 2 stages, got %d", raw.Name, len(raw.Stages))
	}

	stages := make([]Stage, 0, len(raw.Stages))
	for i, rs := range raw.Stages {
		if rs.Event == "" {
			return Funnel{}, fmt.Errorf("funnel %q: stage %d has no event", raw.Name, i+1)
		}
		label := rs.Label
		if label == "" {
			label = rs.Event
		}
		stage := Stage{Label: label, Event: rs.Event}
		if rs.Match != nil {
			if rs.Match.Property == "" {
				return Funnel{}, fmt.Errorf("funnel %q: stage %d match has no property", raw.Name, i+1)
			}
			stage.Match = &PropertyMatch{Property: rs.Match.Property, Equals: rs.Match.Equals}
		}
		stages = append(stages, stage)
	}
	return Funnel{Name: raw.Name, Stages: stages}, nil
}

// Get returns the funnel with the given name, or an error if not found.
func (r *FileSystemFunnelRepository) Get(name string) (*Funnel, error) {
	f, ok := r.funnels[name]
	if !ok {
		return nil, fmt.Errorf("funnel %q not found", name)
	}
	return &f, nil
}

// GetFunnels returns all funnels in load order, built-in first.
func (r *FileSystemFunnelRepository) GetFunnels() []Funnel {
	out := make([]Funnel, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.funnels[name])
	}
	return out
}
