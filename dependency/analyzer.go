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
	"regexp"
	"sort"

	"github.com/rulego/datatidy/aggregator"
	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/types"
)

// Set is a set of column names
type Set map[string]bool

// NewSet creates a set from names
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Sorted returns the members in lexical order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var (
	identPattern     = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)
	qualifiedPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\.[a-zA-Z_][a-zA-Z0-9_]*\b`)
)

var constants = map[string]bool{"nan": true, "inf": true, "True": true, "False": true, "None": true}

// Default parameter names of operation functions written without a lambda
var (
	ElementParams = []string{"x"}
	ReduceParams  = []string{"acc", "x"}
)

// Analyzer extracts the columns read by expressions and operation chains.
// It only inspects parsed trees and never evaluates anything.
type Analyzer struct {
	registry *functions.FunctionRegistry
}

// NewAnalyzer creates an analyzer that ignores the names in registry.
// A nil registry uses the builtin functions.
func NewAnalyzer(registry *functions.FunctionRegistry) *Analyzer {
	if registry == nil {
		registry = functions.NewBuiltinRegistry()
	}
	return &Analyzer{registry: registry}
}

// Identifiers returns the free identifiers of an expression in order of
// first appearance. Function names, constants and the given parameters are
// excluded. A root lambda binds its own parameters instead.
// The second result reports whether the expression parsed.
func (a *Analyzer) Identifiers(src string, params ...string) ([]string, bool) {
	root, err := expr.Parse(src)
	if err != nil {
		return nil, false
	}
	bound := NewSet(params...)
	if root.Type == expr.NodeLambda {
		bound = NewSet(root.Params...)
		root = root.Body
	}
	var out []string
	seen := Set{}
	add := func(name string) {
		if bound[name] || constants[name] || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	var visit func(n *expr.ExprNode)
	visit = func(n *expr.ExprNode) {
		expr.Walk(n, func(node *expr.ExprNode) bool {
			switch node.Type {
			case expr.NodeName:
				add(node.Name)
			case expr.NodeAttribute:
				// users.name is a qualified column; name.str reads name
				if node.Left != nil && node.Left.Type == expr.NodeName && node.Name != "str" {
					add(node.Left.Name + "." + node.Name)
					return false
				}
			case expr.NodeCall:
				if node.Func != nil && node.Func.Type == expr.NodeName {
					if !a.registry.Has(node.Func.Name) {
						add(node.Func.Name)
					}
					for _, arg := range node.Args {
						visit(arg)
					}
					return false
				}
				if node.Func != nil && node.Func.Type == expr.NodeAttribute {
					visit(node.Func.Left)
					for _, arg := range node.Args {
						visit(arg)
					}
					return false
				}
			case expr.NodeLambda, expr.NodeComprehension:
				for _, p := range node.Params {
					bound[p] = true
				}
			}
			return true
		})
	}
	visit(root)
	return out, true
}

// ExtractReferences returns the identifiers of src that name known columns.
// Expressions that do not parse are scanned for identifier-like tokens.
func (a *Analyzer) ExtractReferences(src string, known Set, params ...string) Set {
	refs := Set{}
	ids, ok := a.Identifiers(src, params...)
	if !ok {
		for _, m := range identPattern.FindAllString(src, -1) {
			if known[m] && !a.registry.Has(m) {
				refs[m] = true
			}
		}
		for _, m := range qualifiedPattern.FindAllString(src, -1) {
			if known[m] {
				refs[m] = true
			}
		}
		return refs
	}
	for _, id := range ids {
		if known[id] {
			refs[id] = true
		}
	}
	return refs
}

// ExtractOperationReferences returns the known columns read by the stages
// of an operation chain.
func (a *Analyzer) ExtractOperationReferences(ops []types.OperationSpec, known Set) Set {
	refs := Set{}
	for _, op := range ops {
		for _, src := range operationExpressions(op) {
			for r := range a.ExtractReferences(src.text, known, src.params...) {
				refs[r] = true
			}
		}
		if op.Type == types.OpGroup && known[op.GroupBy] {
			refs[op.GroupBy] = true
		}
	}
	return refs
}

type opExpression struct {
	text   string
	params []string
}

// operationExpressions lists the expressions of a stage that are evaluated
// by the interpreter. Named aggregates are not expressions.
func operationExpressions(op types.OperationSpec) []opExpression {
	switch op.Type {
	case types.OpMap:
		return []opExpression{{op.Function, ElementParams}}
	case types.OpFilter:
		return []opExpression{{op.Condition, ElementParams}}
	case types.OpReduce:
		return []opExpression{{op.Function, ReduceParams}}
	case types.OpGroup, types.OpWindow:
		if !aggregator.IsAggregate(op.Function) {
			return []opExpression{{op.Function, ElementParams}}
		}
	}
	return nil
}

// References holds what a single column reads
type References struct {
	// Columns are the known columns read, excluding the column itself
	Columns Set
	// Unresolved are identifiers in expressions that match no column
	Unresolved []string
}

// ColumnReferences analyzes one column spec against the known columns.
// Unresolved names are collected from transformations and operation
// functions only; an unknown source is reported when the column runs.
func (a *Analyzer) ColumnReferences(spec types.ColumnSpec, known Set) References {
	refs := References{Columns: Set{}}
	addAll := func(s Set) {
		for n := range s {
			refs.Columns[n] = true
		}
	}
	checkUnresolved := func(src string, params []string) {
		ids, ok := a.Identifiers(src, params...)
		if !ok {
			return
		}
		for _, id := range ids {
			if !known[id] && !contains(refs.Unresolved, id) {
				refs.Unresolved = append(refs.Unresolved, id)
			}
		}
	}

	if spec.HasExplicitSource() {
		source := spec.SourceName()
		if known[source] {
			refs.Columns[source] = true
		} else {
			addAll(a.ExtractReferences(source, known))
		}
	}
	if spec.Transformation != "" {
		addAll(a.ExtractReferences(spec.Transformation, known))
		checkUnresolved(spec.Transformation, nil)
	}
	if len(spec.Operations) > 0 {
		addAll(a.ExtractOperationReferences(spec.Operations, known))
		for _, op := range spec.Operations {
			for _, e := range operationExpressions(op) {
				checkUnresolved(e.text, e.params)
			}
			if op.Type == types.OpGroup && op.GroupBy != "" && !known[op.GroupBy] && !contains(refs.Unresolved, op.GroupBy) {
				refs.Unresolved = append(refs.Unresolved, op.GroupBy)
			}
		}
	}
	delete(refs.Columns, spec.Name)
	return refs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
