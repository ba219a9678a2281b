/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dependency

import (
	"fmt"
	"strings"

	"github.com/rulego/datatidy/types"
)

// CycleError reports output columns that could not be ordered. Columns
// holds exactly the unresolved remainder in declaration order.
type CycleError struct {
	Columns []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected in columns: %s", strings.Join(e.Columns, ", "))
}

func (e *CycleError) Category() types.ErrorCategory {
	return types.CategoryDependency
}

// UnresolvedError reports expressions that read columns which exist
// neither in the input nor among the outputs
type UnresolvedError struct {
	// References maps a column to the unknown names it reads
	References map[string][]string
	order      []string
}

func (e *UnresolvedError) Error() string {
	parts := make([]string, 0, len(e.order))
	for _, col := range e.order {
		parts = append(parts, fmt.Sprintf("column '%s' references unknown column(s) %s", col, strings.Join(e.References[col], ", ")))
	}
	return "dependency validation failed: " + strings.Join(parts, "; ")
}

func (e *UnresolvedError) Category() types.ErrorCategory {
	return types.CategoryDependency
}

// Graph is the column dependency graph of one configuration. Edges point
// from a column to the columns it reads.
type Graph struct {
	outputs []string // declaration order
	index   map[string]int
	inputs  Set
	deps    map[string][]string // sorted
	reverse map[string][]string // output dependents in declaration order
}

// Outputs returns the output columns in declaration order
func (g *Graph) Outputs() []string {
	return append([]string(nil), g.outputs...)
}

// Dependencies returns the columns read by column, sorted by name
func (g *Graph) Dependencies(column string) []string {
	return append([]string(nil), g.deps[column]...)
}

// Dependents returns the output columns that read column
func (g *Graph) Dependents(column string) []string {
	return append([]string(nil), g.reverse[column]...)
}

// IsInput reports whether name is an input column
func (g *Graph) IsInput(name string) bool {
	return g.inputs[name]
}

// BuildGraph analyzes every column spec and builds the dependency graph over
// input and output columns. References that match neither fail with an
// UnresolvedError.
func (a *Analyzer) BuildGraph(specs types.ColumnSpecs, inputColumns []string) (*Graph, error) {
	g := &Graph{
		index:   make(map[string]int, len(specs)),
		inputs:  NewSet(inputColumns...),
		deps:    make(map[string][]string, len(specs)),
		reverse: make(map[string][]string),
	}
	known := NewSet(inputColumns...)
	for i, spec := range specs {
		if _, dup := g.index[spec.Name]; dup {
			return nil, types.NewConfigurationError(spec.Name, "duplicate column definition")
		}
		g.index[spec.Name] = i
		g.outputs = append(g.outputs, spec.Name)
		known[spec.Name] = true
	}

	unresolved := &UnresolvedError{References: map[string][]string{}}
	for _, spec := range specs {
		refs := a.ColumnReferences(spec, known)
		if len(refs.Unresolved) > 0 {
			unresolved.References[spec.Name] = refs.Unresolved
			unresolved.order = append(unresolved.order, spec.Name)
		}
		g.deps[spec.Name] = refs.Columns.Sorted()
	}
	if len(unresolved.order) > 0 {
		return nil, unresolved
	}
	for _, name := range g.outputs {
		for _, dep := range g.deps[name] {
			g.reverse[dep] = append(g.reverse[dep], name)
		}
	}
	return g, nil
}

// ResolveOrder sorts the output columns topologically with Kahn's
// algorithm. Only edges between output columns count; inputs are available
// before any output is computed. Among ready columns the first declared is
// scheduled first.
func (g *Graph) ResolveOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.outputs))
	for _, name := range g.outputs {
		for _, dep := range g.deps[name] {
			if _, isOutput := g.index[dep]; isOutput {
				inDegree[name]++
			}
		}
	}

	ready := newIndexHeap()
	for i, name := range g.outputs {
		if inDegree[name] == 0 {
			ready.push(i)
		}
	}
	order := make([]string, 0, len(g.outputs))
	placed := make(map[string]bool, len(g.outputs))
	for ready.len() > 0 {
		current := g.outputs[ready.pop()]
		order = append(order, current)
		placed[current] = true
		for _, dependent := range g.reverse[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready.push(g.index[dependent])
			}
		}
	}

	if len(order) != len(g.outputs) {
		var remaining []string
		for _, name := range g.outputs {
			if !placed[name] {
				remaining = append(remaining, name)
			}
		}
		return nil, &CycleError{Columns: remaining}
	}
	return order, nil
}

// Resolve builds the graph and resolves the execution order in one step
func (a *Analyzer) Resolve(specs types.ColumnSpecs, inputColumns []string) (*Graph, []string, error) {
	g, err := a.BuildGraph(specs, inputColumns)
	if err != nil {
		return nil, nil, err
	}
	order, err := g.ResolveOrder()
	if err != nil {
		return g, nil, err
	}
	return g, order, nil
}
