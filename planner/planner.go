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

package planner

import (
	"fmt"
	"strings"

	"github.com/rulego/datatidy/dependency"
	"github.com/rulego/datatidy/types"
)

// ExecutionPlan is the column order of one run. It is immutable once built
// and shared by the normal and fallback processing paths.
type ExecutionPlan struct {
	order        []string
	interim      []string
	final        []string
	dependencies map[string][]string
}

// Order returns the output columns in execution order
func (p *ExecutionPlan) Order() []string {
	return append([]string(nil), p.order...)
}

// Interim returns the interim columns in declaration order
func (p *ExecutionPlan) Interim() []string {
	return append([]string(nil), p.interim...)
}

// Final returns the non-interim output columns in declaration order
func (p *ExecutionPlan) Final() []string {
	return append([]string(nil), p.final...)
}

// IsInterim reports whether column is an interim column
func (p *ExecutionPlan) IsInterim(column string) bool {
	for _, c := range p.interim {
		if c == column {
			return true
		}
	}
	return false
}

// Dependencies returns the columns read by column
func (p *ExecutionPlan) Dependencies(column string) []string {
	return append([]string(nil), p.dependencies[column]...)
}

// TotalSteps returns the number of columns to compute
func (p *ExecutionPlan) TotalSteps() int {
	return len(p.order)
}

// Explain renders the plan for debugging
func (p *ExecutionPlan) Explain() string {
	var b strings.Builder
	b.WriteString("=== EXECUTION PLAN ===\n")
	fmt.Fprintf(&b, "Total columns to process: %d\n", len(p.order))
	fmt.Fprintf(&b, "Execution order: %s\n", strings.Join(p.order, " -> "))
	fmt.Fprintf(&b, "Interim columns: [%s]\n", strings.Join(p.interim, ", "))
	fmt.Fprintf(&b, "Final columns: [%s]\n", strings.Join(p.final, ", "))
	var deps []string
	for _, col := range p.order {
		if d := p.dependencies[col]; len(d) > 0 {
			deps = append(deps, fmt.Sprintf("  %s depends on: %s", col, strings.Join(d, ", ")))
		}
	}
	if len(deps) > 0 {
		b.WriteString("Dependencies:\n")
		b.WriteString(strings.Join(deps, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("======================")
	return b.String()
}

func (p *ExecutionPlan) String() string {
	return strings.Join(p.order, " -> ")
}

// Planner builds execution plans
type Planner struct {
	analyzer *dependency.Analyzer
}

// NewPlanner creates a planner using analyzer. A nil analyzer uses the
// builtin function table.
func NewPlanner(analyzer *dependency.Analyzer) *Planner {
	if analyzer == nil {
		analyzer = dependency.NewAnalyzer(nil)
	}
	return &Planner{analyzer: analyzer}
}

// Plan resolves the execution order of specs against the input columns and
// partitions the outputs into interim and final columns. Resolution
// failures are returned as dependency errors.
func (pl *Planner) Plan(specs types.ColumnSpecs, inputColumns []string) (*ExecutionPlan, error) {
	graph, order, err := pl.analyzer.Resolve(specs, inputColumns)
	if err != nil {
		if types.CategoryOf(err) == types.CategoryConfiguration {
			return nil, err
		}
		return nil, types.NewDependencyError("execution planning failed", err)
	}
	p := &ExecutionPlan{
		order:        order,
		dependencies: make(map[string][]string, len(specs)),
	}
	for _, spec := range specs {
		if spec.Interim {
			p.interim = append(p.interim, spec.Name)
		} else {
			p.final = append(p.final, spec.Name)
		}
		p.dependencies[spec.Name] = graph.Dependencies(spec.Name)
	}
	return p, nil
}
