package pipeline

import (
	"fmt"
	"strings"

	"shortfilm/internal/artifact"
)

// Graph is the immutable dependency graph over a set of stage descriptors.
type Graph struct {
	descriptors []Descriptor
	byID        map[string]Descriptor
	producers   map[artifact.ID]string
	upstream    map[string][]string
}

// Build validates the descriptor set and constructs the graph. The declared
// stage set is acyclic by construction today; the cycle check guards against
// future stage additions.
func Build(descriptors []Descriptor) (*Graph, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("build graph: no stages declared")
	}

	g := &Graph{
		descriptors: make([]Descriptor, len(descriptors)),
		byID:        make(map[string]Descriptor, len(descriptors)),
		producers:   make(map[artifact.ID]string, len(descriptors)),
		upstream:    make(map[string][]string, len(descriptors)),
	}
	copy(g.descriptors, descriptors)

	for _, d := range g.descriptors {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return nil, fmt.Errorf("build graph: stage with empty identifier")
		}
		if _, dup := g.byID[id]; dup {
			return nil, fmt.Errorf("build graph: duplicate stage %q", id)
		}
		if d.Produces == "" {
			return nil, fmt.Errorf("build graph: stage %q produces no artifact", id)
		}
		if producer, dup := g.producers[d.Produces]; dup {
			return nil, fmt.Errorf("build graph: artifact %q produced by both %q and %q", d.Produces, producer, id)
		}
		g.byID[id] = d
		g.producers[d.Produces] = id
	}

	for _, d := range g.descriptors {
		seen := make(map[string]struct{})
		for _, dep := range d.Dependencies() {
			producer, ok := g.producers[dep]
			if !ok {
				return nil, fmt.Errorf("build graph: stage %q depends on artifact %q no stage produces", d.ID, dep)
			}
			if producer == d.ID {
				return nil, fmt.Errorf("build graph: %w: stage %q depends on its own output", ErrCycle, d.ID)
			}
			if _, dup := seen[producer]; dup {
				continue
			}
			seen[producer] = struct{}{}
			g.upstream[d.ID] = append(g.upstream[d.ID], producer)
		}
	}

	if _, err := g.topoOrder(); err != nil {
		return nil, err
	}
	return g, nil
}

// Stages returns descriptors in declaration order.
func (g *Graph) Stages() []Descriptor {
	cp := make([]Descriptor, len(g.descriptors))
	copy(cp, g.descriptors)
	return cp
}

// Stage returns the descriptor for the given identifier.
func (g *Graph) Stage(id string) (Descriptor, bool) {
	d, ok := g.byID[id]
	return d, ok
}

// Len returns the number of stages.
func (g *Graph) Len() int {
	return len(g.descriptors)
}

// Producer returns the stage producing the given artifact.
func (g *Graph) Producer(id artifact.ID) (string, bool) {
	s, ok := g.producers[id]
	return s, ok
}

// Upstream returns the stages the given stage depends on.
func (g *Graph) Upstream(id string) []string {
	deps := g.upstream[id]
	cp := make([]string, len(deps))
	copy(cp, deps)
	return cp
}

// Ready returns, in declaration order, every stage whose upstream stages are
// all in finished and which is not itself in finished. Multiple entries
// signal independent branches the orchestrator may run concurrently.
func (g *Graph) Ready(finished map[string]struct{}) []Descriptor {
	ready := make([]Descriptor, 0, len(g.descriptors))
	for _, d := range g.descriptors {
		if _, done := finished[d.ID]; done {
			continue
		}
		blocked := false
		for _, up := range g.upstream[d.ID] {
			if _, done := finished[up]; !done {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, d)
		}
	}
	return ready
}

// TopoOrder returns one valid execution order, deterministic by declaration
// order among simultaneously ready stages.
func (g *Graph) TopoOrder() []string {
	order, _ := g.topoOrder()
	return order
}

func (g *Graph) topoOrder() ([]string, error) {
	finished := make(map[string]struct{}, len(g.descriptors))
	order := make([]string, 0, len(g.descriptors))
	for len(order) < len(g.descriptors) {
		ready := g.Ready(finished)
		if len(ready) == 0 {
			remaining := make([]string, 0, len(g.descriptors)-len(order))
			for _, d := range g.descriptors {
				if _, done := finished[d.ID]; !done {
					remaining = append(remaining, d.ID)
				}
			}
			return nil, fmt.Errorf("%w: stages %s cannot be ordered", ErrCycle, strings.Join(remaining, ", "))
		}
		for _, d := range ready {
			finished[d.ID] = struct{}{}
			order = append(order, d.ID)
		}
	}
	return order, nil
}
