// Package collect turns the dependency metadata of supported package managers
// into package descriptors for the notice aggregator.
package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ben-ranford/notices/internal/aggregate"
	"github.com/sirupsen/logrus"
)

// Collector reports the externally sourced dependencies of one ecosystem.
type Collector interface {
	ID() string
	// Manifest names the file whose presence enables the collector.
	Manifest() string
	Detect(projectPath string) (bool, error)
	Collect(ctx context.Context, projectPath string) ([]aggregate.Package, error)
}

type Registry struct {
	collectors []Collector
	ids        map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// DefaultRegistry registers cargo then pnpm.
func DefaultRegistry(runner Runner, log logrus.FieldLogger) *Registry {
	registry := NewRegistry()
	for _, collector := range []Collector{NewCargo(runner, log), NewPnpm(runner, log)} {
		if err := registry.Register(collector); err != nil {
			panic(err)
		}
	}
	return registry
}

func (r *Registry) Register(collector Collector) error {
	if collector == nil {
		return errors.New("collector is nil")
	}
	key := strings.ToLower(strings.TrimSpace(collector.ID()))
	if key == "" {
		return errors.New("collector id cannot be empty")
	}
	if _, exists := r.ids[key]; exists {
		return fmt.Errorf("collector id already registered: %s", collector.ID())
	}
	r.ids[key] = struct{}{}
	r.collectors = append(r.collectors, collector)
	return nil
}

// Collectors returns the registered collectors in registration order.
func (r *Registry) Collectors() []Collector {
	if r == nil {
		return nil
	}
	out := make([]Collector, len(r.collectors))
	copy(out, r.collectors)
	return out
}
