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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse parses an expression into a tree without checking it against the
// whitelist. Statements and assignments are rejected here because the tree
// cannot represent them.
func Parse(src string) (*ExprNode, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	node, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.unexpected(tok)
	}
	return node, nil
}

type parser struct {
	src    string
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isOp(value string) bool {
	tok := p.peek()
	return tok.Type == TokenOperator && tok.Value == value
}

func (p *parser) isKeyword(value string) bool {
	tok := p.peek()
	return tok.Type == TokenName && tok.Value == value
}

func (p *parser) expectOp(value string) error {
	if !p.isOp(value) {
		return p.errorf(p.peek(), "expected '%s'", value)
	}
	p.next()
	return nil
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Source: p.src, Position: tok.Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(tok Token) error {
	if tok.Type == TokenEOF {
		return p.errorf(tok, "unexpected end of expression")
	}
	if tok.Type == TokenOperator {
		switch tok.Value {
		case "=":
			return &UnsafeConstructError{Kind: "Assign", Position: tok.Pos}
		case ":=":
			return &UnsafeConstructError{Kind: "NamedExpr", Position: tok.Pos}
		case ";":
			return &UnsafeConstructError{Kind: "Statement", Detail: ";", Position: tok.Pos}
		}
		if strings.HasSuffix(tok.Value, "=") && len(tok.Value) > 1 && tok.Value != "==" && tok.Value != "!=" &&
			tok.Value != "<=" && tok.Value != ">=" {
			return &UnsafeConstructError{Kind: "AugAssign", Detail: tok.Value, Position: tok.Pos}
		}
	}
	if tok.Type == TokenName {
		if kind, ok := statementKeywords[tok.Value]; ok {
			return &UnsafeConstructError{Kind: kind, Detail: tok.Value, Position: tok.Pos}
		}
	}
	return p.errorf(tok, "unexpected token '%s'", tok.Value)
}

// parseExpressionList parses "a, b, ..." as a tuple, or a single expression
func (p *parser) parseExpressionList() (*ExprNode, error) {
	start := p.peek()
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elems := []*ExprNode{first}
	for p.isOp(",") {
		p.next()
		if p.peek().Type == TokenEOF || p.isOp(")") {
			break
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &ExprNode{Type: NodeTuple, Pos: start.Pos, Args: elems}, nil
}

// parseExpression parses a lambda or a conditional expression
func (p *parser) parseExpression() (*ExprNode, error) {
	if p.isKeyword("lambda") {
		return p.parseLambda()
	}
	if p.isOp("*") || p.isOp("**") {
		tok := p.next()
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ExprNode{Type: NodeStarred, Pos: tok.Pos, Op: tok.Value, Left: operand}, nil
	}
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return body, nil
	}
	tok := p.next()
	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, p.errorf(p.peek(), "expected 'else' in conditional expression")
	}
	p.next()
	orElse, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Type: NodeIfExp, Pos: tok.Pos, Test: test, Body: body, Else: orElse}, nil
}

func (p *parser) parseLambda() (*ExprNode, error) {
	tok := p.next()
	var params []string
	for !p.isOp(":") {
		name := p.next()
		if name.Type != TokenName || exprKeywords[name.Value] {
			return nil, p.errorf(name, "invalid lambda parameter")
		}
		params = append(params, name.Value)
		if p.isOp(",") {
			p.next()
			continue
		}
		if !p.isOp(":") {
			return nil, p.errorf(p.peek(), "expected ':' after lambda parameters")
		}
	}
	p.next()
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Type: NodeLambda, Pos: tok.Pos, Params: params, Body: body}, nil
}

func (p *parser) parseOr() (*ExprNode, error) {
	return p.parseBoolOp("or", p.parseAnd)
}

func (p *parser) parseAnd() (*ExprNode, error) {
	return p.parseBoolOp("and", p.parseNot)
}

func (p *parser) parseBoolOp(op string, operand func() (*ExprNode, error)) (*ExprNode, error) {
	start := p.peek()
	first, err := operand()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword(op) {
		return first, nil
	}
	values := []*ExprNode{first}
	for p.isKeyword(op) {
		p.next()
		v, err := operand()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &ExprNode{Type: NodeBoolOp, Pos: start.Pos, Op: op, Args: values}, nil
}

func (p *parser) parseNot() (*ExprNode, error) {
	if p.isKeyword("not") {
		tok := p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ExprNode{Type: NodeUnary, Pos: tok.Pos, Op: "not", Left: operand}, nil
	}
	return p.parseComparison()
}

// compareOperator returns the comparison operator at the cursor and its token count
func (p *parser) compareOperator() (string, int) {
	tok := p.peek()
	switch {
	case tok.Type == TokenOperator:
		switch tok.Value {
		case "==", "!=", "<", "<=", ">", ">=":
			return tok.Value, 1
		}
	case tok.Type == TokenName && tok.Value == "in":
		return "in", 1
	case tok.Type == TokenName && tok.Value == "not":
		if n := p.tokens[p.pos+1]; n.Type == TokenName && n.Value == "in" {
			return "not in", 2
		}
	case tok.Type == TokenName && tok.Value == "is":
		if n := p.tokens[p.pos+1]; n.Type == TokenName && n.Value == "not" {
			return "is not", 2
		}
		return "is", 1
	}
	return "", 0
}

func (p *parser) parseComparison() (*ExprNode, error) {
	start := p.peek()
	first, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	op, width := p.compareOperator()
	if width == 0 {
		return first, nil
	}
	node := &ExprNode{Type: NodeCompare, Pos: start.Pos, Args: []*ExprNode{first}}
	for width > 0 {
		p.pos += width
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		node.Ops = append(node.Ops, op)
		node.Args = append(node.Args, right)
		op, width = p.compareOperator()
	}
	return node, nil
}

func (p *parser) parseBinary(ops []string, operand func() (*ExprNode, error)) (*ExprNode, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenOperator || !contains(ops, tok.Value) {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ExprNode{Type: NodeBinary, Pos: tok.Pos, Op: tok.Value, Left: left, Right: right}
	}
}

func (p *parser) parseBitOr() (*ExprNode, error) {
	return p.parseBinary([]string{"|"}, p.parseBitXor)
}

func (p *parser) parseBitXor() (*ExprNode, error) {
	return p.parseBinary([]string{"^"}, p.parseBitAnd)
}

func (p *parser) parseBitAnd() (*ExprNode, error) {
	return p.parseBinary([]string{"&"}, p.parseShift)
}

func (p *parser) parseShift() (*ExprNode, error) {
	return p.parseBinary([]string{"<<", ">>"}, p.parseArith)
}

func (p *parser) parseArith() (*ExprNode, error) {
	return p.parseBinary([]string{"+", "-"}, p.parseTerm)
}

func (p *parser) parseTerm() (*ExprNode, error) {
	return p.parseBinary([]string{"*", "/", "//", "%", "@"}, p.parseFactor)
}

func (p *parser) parseFactor() (*ExprNode, error) {
	tok := p.peek()
	if tok.Type == TokenOperator && (tok.Value == "-" || tok.Value == "+" || tok.Value == "~") {
		p.next()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		// fold negative literals so that "-1" stays a constant
		if tok.Value == "-" && operand.Type == NodeConst {
			switch v := operand.Value.(type) {
			case int64:
				return &ExprNode{Type: NodeConst, Pos: tok.Pos, Value: -v}, nil
			case float64:
				return &ExprNode{Type: NodeConst, Pos: tok.Pos, Value: -v}, nil
			}
		}
		return &ExprNode{Type: NodeUnary, Pos: tok.Pos, Op: tok.Value, Left: operand}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*ExprNode, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.isOp("**") {
		return base, nil
	}
	tok := p.next()
	exp, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Type: NodeBinary, Pos: tok.Pos, Op: "**", Left: base, Right: exp}, nil
}

func (p *parser) parsePostfix() (*ExprNode, error) {
	node, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenOperator && tok.Value == "(":
			p.next()
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			node = &ExprNode{Type: NodeCall, Pos: tok.Pos, Func: node, Args: args}
		case tok.Type == TokenOperator && tok.Value == "[":
			p.next()
			index, err := p.parseSubscript()
			if err != nil {
				return nil, err
			}
			node = &ExprNode{Type: NodeSubscript, Pos: tok.Pos, Left: node, Right: index}
		case tok.Type == TokenOperator && tok.Value == ".":
			p.next()
			name := p.next()
			if name.Type != TokenName {
				return nil, p.errorf(name, "expected attribute name after '.'")
			}
			node = &ExprNode{Type: NodeAttribute, Pos: tok.Pos, Left: node, Name: name.Value}
		default:
			return node, nil
		}
	}
}

func (p *parser) parseCallArgs() ([]*ExprNode, error) {
	var args []*ExprNode
	for !p.isOp(")") {
		var arg *ExprNode
		var err error
		tok := p.peek()
		if tok.Type == TokenName && p.tokens[p.pos+1].Type == TokenOperator && p.tokens[p.pos+1].Value == "=" {
			p.pos += 2
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			arg = &ExprNode{Type: NodeKeyword, Pos: tok.Pos, Name: tok.Value, Left: value}
		} else {
			arg, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
			if p.isKeyword("for") {
				arg, err = p.parseComprehension(arg)
				if err != nil {
					return nil, err
				}
			}
		}
		args = append(args, arg)
		if p.isOp(",") {
			p.next()
			continue
		}
		if !p.isOp(")") {
			return nil, p.errorf(p.peek(), "expected ',' or ')' in call")
		}
	}
	p.next()
	return args, nil
}

func (p *parser) parseSubscript() (*ExprNode, error) {
	tok := p.peek()
	parts := make([]*ExprNode, 0, 3)
	var cur *ExprNode
	isSlice := false
	for {
		switch {
		case p.isOp("]"):
			p.next()
			if !isSlice {
				if cur == nil {
					return nil, p.errorf(tok, "empty subscript")
				}
				return cur, nil
			}
			parts = append(parts, cur)
			for len(parts) < 3 {
				parts = append(parts, nil)
			}
			return &ExprNode{Type: NodeSlice, Pos: tok.Pos, Args: parts}, nil
		case p.isOp(":"):
			p.next()
			isSlice = true
			parts = append(parts, cur)
			cur = nil
			if len(parts) > 2 {
				return nil, p.errorf(tok, "too many ':' in slice")
			}
		default:
			if cur != nil {
				return nil, p.errorf(p.peek(), "expected ']'")
			}
			e, err := p.parseExpressionList()
			if err != nil {
				return nil, err
			}
			cur = e
		}
	}
}

func (p *parser) parseComprehension(elem *ExprNode) (*ExprNode, error) {
	tok := p.next() // for
	var targets []string
	for {
		name := p.next()
		if name.Type != TokenName {
			return nil, p.errorf(name, "expected loop variable")
		}
		targets = append(targets, name.Value)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if !p.isKeyword("in") {
		return nil, p.errorf(p.peek(), "expected 'in' in comprehension")
	}
	p.next()
	iter, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	node := &ExprNode{Type: NodeComprehension, Pos: tok.Pos, Body: elem, Params: targets, Args: []*ExprNode{iter}}
	for p.isKeyword("if") {
		p.next()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, cond)
	}
	return node, nil
}

func (p *parser) parseAtom() (*ExprNode, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.next()
		v, err := parseNumber(tok.Value)
		if err != nil {
			return nil, p.errorf(tok, "%v", err)
		}
		return &ExprNode{Type: NodeConst, Pos: tok.Pos, Value: v}, nil
	case TokenString:
		return p.parseStrings()
	case TokenName:
		switch tok.Value {
		case "True", "False":
			p.next()
			return &ExprNode{Type: NodeConst, Pos: tok.Pos, Value: tok.Value == "True"}, nil
		case "None":
			p.next()
			return &ExprNode{Type: NodeConst, Pos: tok.Pos, Value: nil}, nil
		}
		if exprKeywords[tok.Value] {
			return nil, p.errorf(tok, "unexpected keyword '%s'", tok.Value)
		}
		if _, ok := statementKeywords[tok.Value]; ok {
			return nil, p.unexpected(tok)
		}
		p.next()
		return &ExprNode{Type: NodeName, Pos: tok.Pos, Name: tok.Value}, nil
	case TokenOperator:
		switch tok.Value {
		case "(":
			return p.parseParen()
		case "[":
			return p.parseList()
		case "{":
			return p.parseBrace()
		}
	}
	return nil, p.unexpected(tok)
}

func (p *parser) parseStrings() (*ExprNode, error) {
	first := p.peek()
	var b strings.Builder
	for p.peek().Type == TokenString {
		tok := p.next()
		switch {
		case strings.Contains(tok.Prefix, "f"):
			return nil, &UnsafeConstructError{Kind: "JoinedStr", Position: tok.Pos}
		case strings.Contains(tok.Prefix, "b"):
			return nil, &UnsafeConstructError{Kind: "Bytes", Position: tok.Pos}
		}
		b.WriteString(tok.Value)
	}
	return &ExprNode{Type: NodeConst, Pos: first.Pos, Value: b.String()}, nil
}

func (p *parser) parseParen() (*ExprNode, error) {
	open := p.next()
	if p.isOp(")") {
		p.next()
		return &ExprNode{Type: NodeTuple, Pos: open.Pos}, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		first, err = p.parseComprehension(first)
		if err != nil {
			return nil, err
		}
		return first, p.expectOp(")")
	}
	if p.isOp(")") {
		p.next()
		return first, nil
	}
	elems := []*ExprNode{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(")") {
			break
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return &ExprNode{Type: NodeTuple, Pos: open.Pos, Args: elems}, nil
}

func (p *parser) parseList() (*ExprNode, error) {
	open := p.next()
	node := &ExprNode{Type: NodeList, Pos: open.Pos}
	if p.isOp("]") {
		p.next()
		return node, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		comp, err := p.parseComprehension(first)
		if err != nil {
			return nil, err
		}
		return comp, p.expectOp("]")
	}
	node.Args = append(node.Args, first)
	for p.isOp(",") {
		p.next()
		if p.isOp("]") {
			break
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, e)
	}
	return node, p.expectOp("]")
}

// parseBrace parses dict and set displays so that they can be reported by kind
func (p *parser) parseBrace() (*ExprNode, error) {
	open := p.next()
	node := &ExprNode{Type: NodeSet, Pos: open.Pos}
	for !p.isOp("}") {
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, key)
		if p.isOp(":") {
			p.next()
			node.Type = NodeDict
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, value)
		}
		if p.isKeyword("for") {
			comp, err := p.parseComprehension(key)
			if err != nil {
				return nil, err
			}
			node.Args = []*ExprNode{comp}
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if len(node.Args) == 0 {
		node.Type = NodeDict
	}
	return node, p.expectOp("}")
}

func parseNumber(text string) (any, error) {
	clean := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(clean)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		v, err := strconv.ParseInt(clean, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number literal '%s'", text)
		}
		return v, nil
	}
	if !strings.ContainsAny(clean, ".eE") {
		if v, err := strconv.ParseInt(clean, 10, 64); err == nil {
			return v, nil
		}
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(f, 0) && !strings.ContainsAny(clean, "eE") {
		return nil, fmt.Errorf("invalid number literal '%s'", text)
	}
	return f, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
