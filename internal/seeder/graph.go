package seeder

import (
	"context"
	"fmt"
)

// Stage populates one table. Run returns the number of rows it wrote.
type Stage struct {
	Name      string
	DependsOn []string
	Run       func(ctx context.Context) (int, error)
}

// StageGraph orders stages so every stage runs after the ones it depends on.
type StageGraph struct {
	stages map[string]*Stage
	names  []string
	order  []string
}

func NewStageGraph() *StageGraph {
	return &StageGraph{
		stages: make(map[string]*Stage),
	}
}

func (g *StageGraph) Add(stage *Stage) error {
	if stage == nil || stage.Name == "" {
		return fmt.Errorf("stage must have a name")
	}
	if _, exists := g.stages[stage.Name]; exists {
		return fmt.Errorf("stage %q registered twice", stage.Name)
	}
	g.stages[stage.Name] = stage
	g.names = append(g.names, stage.Name)
	g.order = nil
	return nil
}

func (g *StageGraph) Stage(name string) *Stage {
	return g.stages[name]
}

// BuildOrder returns a topological order of the registered stages. Ties are
// broken by registration order, so the result is stable across runs.
func (g *StageGraph) BuildOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if temp[name] {
			return fmt.Errorf("circular dependency detected involving stage: %s", name)
		}
		if visited[name] {
			return nil
		}

		stage, ok := g.stages[name]
		if !ok {
			return fmt.Errorf("unknown stage: %s", name)
		}

		temp[name] = true
		for _, dep := range stage.DependsOn {
			if _, ok := g.stages[dep]; !ok {
				return fmt.Errorf("stage %s depends on unknown stage %s", name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		temp[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range g.names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	g.order = order
	return order, nil
}

func (g *StageGraph) Order() []string {
	return g.order
}
