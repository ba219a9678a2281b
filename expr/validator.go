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

package expr

import (
	"strings"

	"github.com/rulego/datatidy/functions"
)

// stringMethods may be called on string values
var stringMethods = map[string]bool{
	"upper": true, "lower": true, "title": true, "capitalize": true,
	"strip": true, "lstrip": true, "rstrip": true, "replace": true,
	"split": true, "join": true, "startswith": true, "endswith": true,
	"find": true, "count": true, "isdigit": true, "isalpha": true,
	"isalnum": true, "isspace": true, "isupper": true, "islower": true,
	"zfill": true,
}

// nullMethods may be called on any value
var nullMethods = map[string]bool{
	"isna": true, "notna": true, "isnull": true, "notnull": true, "fillna": true,
}

// accessors are attribute names that pass their target through unchanged
var accessors = map[string]bool{
	"str": true,
}

var allowedBinary = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "//": true, "%": true, "**": true,
	"&": true, "|": true, "^": true,
}

var binaryKinds = map[string]string{
	"<<": "LShift",
	">>": "RShift",
	"@":  "MatMult",
}

var allowedUnary = map[string]bool{"-": true, "+": true, "~": true, "not": true}

var allowedCompare = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"in": true, "not in": true, "is": true, "is not": true,
}

// IsMethodName reports whether name is a callable method on values
func IsMethodName(name string) bool {
	return stringMethods[name] || nullMethods[name]
}

func isDunder(name string) bool {
	return strings.HasPrefix(name, "__")
}

type validator struct {
	registry *functions.FunctionRegistry
}

// validate checks every node against the whitelist. A lambda is accepted
// only as the root of an operation function.
func (v *validator) validate(node *ExprNode, allowLambda bool) error {
	if node == nil {
		return nil
	}
	switch node.Type {
	case NodeConst:
		return nil
	case NodeName:
		if isDunder(node.Name) {
			return &UnsafeConstructError{Kind: "Name", Detail: node.Name, Position: node.Pos}
		}
		return nil
	case NodeUnary:
		if !allowedUnary[node.Op] {
			return &UnsafeConstructError{Kind: "UnaryOp", Detail: node.Op, Position: node.Pos}
		}
		return v.validate(node.Left, false)
	case NodeBinary:
		if !allowedBinary[node.Op] {
			kind := binaryKinds[node.Op]
			if kind == "" {
				kind = "BinOp"
			}
			return &UnsafeConstructError{Kind: kind, Detail: node.Op, Position: node.Pos}
		}
		if err := v.validate(node.Left, false); err != nil {
			return err
		}
		return v.validate(node.Right, false)
	case NodeBoolOp:
		return v.validateAll(node.Args)
	case NodeCompare:
		for _, op := range node.Ops {
			if !allowedCompare[op] {
				return &UnsafeConstructError{Kind: "Compare", Detail: op, Position: node.Pos}
			}
		}
		return v.validateAll(node.Args)
	case NodeIfExp:
		for _, n := range []*ExprNode{node.Test, node.Body, node.Else} {
			if err := v.validate(n, false); err != nil {
				return err
			}
		}
		return nil
	case NodeList, NodeTuple:
		return v.validateAll(node.Args)
	case NodeSubscript:
		if err := v.validate(node.Left, false); err != nil {
			return err
		}
		return v.validate(node.Right, false)
	case NodeSlice:
		return v.validateAll(node.Args)
	case NodeAttribute:
		return v.validateAttribute(node)
	case NodeCall:
		return v.validateCall(node)
	case NodeLambda:
		if !allowLambda {
			return &UnsafeConstructError{Kind: "Lambda", Position: node.Pos}
		}
		for _, p := range node.Params {
			if isDunder(p) {
				return &UnsafeConstructError{Kind: "Name", Detail: p, Position: node.Pos}
			}
		}
		return v.validate(node.Body, false)
	}
	// Dict, Set, Comprehension, keyword, Starred
	return &UnsafeConstructError{Kind: string(node.Type), Detail: node.Name, Position: node.Pos}
}

func (v *validator) validateAll(nodes []*ExprNode) error {
	for _, n := range nodes {
		if err := v.validate(n, false); err != nil {
			return err
		}
	}
	return nil
}

// validateAttribute checks an attribute that is not called: either an
// accessor such as .str or a dataset-qualified column reference.
func (v *validator) validateAttribute(node *ExprNode) error {
	if isDunder(node.Name) {
		return &UnsafeConstructError{Kind: "Attribute", Detail: node.Name, Position: node.Pos}
	}
	if accessors[node.Name] {
		return v.validate(node.Left, false)
	}
	if node.Left != nil && node.Left.Type == NodeName {
		return v.validate(node.Left, false)
	}
	return &UnsafeConstructError{Kind: "Attribute", Detail: node.Name, Position: node.Pos}
}

func (v *validator) validateCall(node *ExprNode) error {
	switch fn := node.Func; fn.Type {
	case NodeName:
		if isDunder(fn.Name) || !v.registry.Has(fn.Name) {
			return &UnsafeConstructError{Kind: "Call", Detail: fn.Name, Position: node.Pos}
		}
	case NodeAttribute:
		if isDunder(fn.Name) || !IsMethodName(fn.Name) {
			return &UnsafeConstructError{Kind: "Call", Detail: fn.Name, Position: node.Pos}
		}
		if err := v.validate(fn.Left, false); err != nil {
			return err
		}
	default:
		return &UnsafeConstructError{Kind: "Call", Detail: string(fn.Type), Position: node.Pos}
	}
	return v.validateAll(node.Args)
}
