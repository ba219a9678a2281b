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

// NodeType is the kind of an expression tree node
type NodeType string

const (
	NodeConst         NodeType = "Constant"
	NodeName          NodeType = "Name"
	NodeUnary         NodeType = "UnaryOp"
	NodeBinary        NodeType = "BinOp"
	NodeBoolOp        NodeType = "BoolOp"
	NodeCompare       NodeType = "Compare"
	NodeIfExp         NodeType = "IfExp"
	NodeCall          NodeType = "Call"
	NodeAttribute     NodeType = "Attribute"
	NodeSubscript     NodeType = "Subscript"
	NodeSlice         NodeType = "Slice"
	NodeList          NodeType = "List"
	NodeTuple         NodeType = "Tuple"
	NodeLambda        NodeType = "Lambda"
	NodeDict          NodeType = "Dict"
	NodeSet           NodeType = "Set"
	NodeComprehension NodeType = "Comprehension"
	NodeKeyword       NodeType = "keyword"
	NodeStarred       NodeType = "Starred"
)

// ExprNode is a node of the parsed expression tree
type ExprNode struct {
	Type NodeType
	Pos  int

	Value  any          // Constant value: int64, float64, string, bool or nil
	Name   string       // Name identifier, Attribute attribute, keyword argument name
	Op     string       // UnaryOp, BinOp and BoolOp operator
	Ops    []string     // Compare operators, one per comparison
	Left   *ExprNode    // operand, Attribute/Subscript target
	Right  *ExprNode    // right operand, Subscript index
	Args   []*ExprNode  // call arguments, BoolOp/Compare operands, elements, slice parts
	Func   *ExprNode    // Call callee
	Test   *ExprNode    // IfExp condition
	Body   *ExprNode    // IfExp value when true, Lambda body, Comprehension element
	Else   *ExprNode    // IfExp value when false
	Params []string     // Lambda parameters, Comprehension targets
}

// Walk visits node and its children in depth-first order. Returning false
// from fn skips the children of that node.
func Walk(node *ExprNode, fn func(*ExprNode) bool) {
	if node == nil || !fn(node) {
		return
	}
	Walk(node.Left, fn)
	Walk(node.Right, fn)
	Walk(node.Func, fn)
	for _, a := range node.Args {
		Walk(a, fn)
	}
	Walk(node.Test, fn)
	Walk(node.Body, fn)
	Walk(node.Else, fn)
}
